package main

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ghostlogic/blackbox-agent/internal/platform"
)

// spawnBackground re-launches this binary as a fully detached `run`
// process. The absolute config path is always passed so the child does not
// depend on the caller's working directory. Returns the child PID.
func spawnBackground(cfgPath string, insecure bool) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, err
	}

	absCfg, err := filepath.Abs(cfgPath)
	if err != nil {
		absCfg = cfgPath
	}

	args := []string{"--config", absCfg}
	if insecure {
		args = append(args, "--insecure")
	}
	args = append(args, "run")

	cmd := exec.Command(exe, args...)
	cmd.SysProcAttr = platform.DetachedAttrs()
	// Stdin/out/err default to the null device, keeping the child silent
	// and unattached to this terminal.

	if err := cmd.Start(); err != nil {
		return 0, err
	}

	pid := cmd.Process.Pid
	// Detach: the child outlives us, nobody waits on it.
	_ = cmd.Process.Release()
	return pid, nil
}
