// Package pidfile manages the agent's PID record: a single ASCII integer at
// a well-known path, written at loop start and removed at loop end or by the
// stop command. Stop verifies the recorded PID still belongs to this agent
// before signaling it, so a stale file pointing at a recycled PID never
// kills an unrelated process.
package pidfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/ghostlogic/blackbox-agent/internal/platform"
)

// agentMarker is the substring looked for in a process's command line to
// confirm it is one of ours.
const agentMarker = "blackbox-agent"

// inspectTimeout bounds the per-PID OS inspection during stop.
const inspectTimeout = 5 * time.Second

// Write records pid at path, creating parent directories as needed.
func Write(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating pid directory: %w", err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0644)
}

// Remove deletes the PID file. Best effort: a missing file is fine.
func Remove(path string) {
	_ = os.Remove(path)
}

// inspector is the slice of OS process inspection Stop needs; tests
// substitute fakes so no real process is ever signaled.
type inspector interface {
	// Cmdline returns the command line of a live process. It errors both
	// when the process is gone and when the platform refuses inspection.
	Cmdline(ctx context.Context, pid int32) (string, error)

	// Exists reports whether a process with the pid is running at all.
	Exists(ctx context.Context, pid int32) (bool, error)

	// Terminate requests the process stop: graceful signal on POSIX,
	// forceful kill on Windows.
	Terminate(pid int) error
}

// Stop reads the PID file, verifies the recorded process is one of ours and
// terminates it. Every outcome is informational for the operator; only an
// unreadable-but-present file surfaces as an error.
func Stop(path string, logger *zap.Logger) error {
	return stop(path, sysInspector{}, logger)
}

func stop(path string, insp inspector, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logger.Info("No running agent found (no PID file)", zap.String("path", path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		logger.Warn("Corrupt PID file, removing", zap.String("path", path))
		Remove(path)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), inspectTimeout)
	defer cancel()

	if !isOurAgent(ctx, insp, int32(pid)) {
		logger.Warn("Stale PID file: process is not a blackbox agent, cleaning up",
			zap.Int("pid", pid))
		Remove(path)
		return nil
	}

	if err := insp.Terminate(pid); err != nil {
		// Process likely exited between verification and signal.
		logger.Info("Agent was already stopped", zap.Int("pid", pid))
	} else {
		logger.Info("Agent stopped", zap.Int("pid", pid))
	}

	// Remove regardless of signal outcome.
	Remove(path)
	return nil
}

// isOurAgent checks whether pid belongs to a blackbox agent. When the
// platform cannot expose the command line but the process exists, existence
// is accepted as sufficient proof. That keeps stop usable on platforms
// without command-line introspection, at the documented risk of signaling a
// recycled PID there.
func isOurAgent(ctx context.Context, insp inspector, pid int32) bool {
	cmdline, err := insp.Cmdline(ctx, pid)
	if err == nil && cmdline != "" {
		return strings.Contains(cmdline, agentMarker)
	}

	exists, err := insp.Exists(ctx, pid)
	return err == nil && exists
}

// sysInspector is the live-system inspector backed by gopsutil.
type sysInspector struct{}

func (sysInspector) Cmdline(ctx context.Context, pid int32) (string, error) {
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return "", err
	}
	return proc.CmdlineWithContext(ctx)
}

func (sysInspector) Exists(ctx context.Context, pid int32) (bool, error) {
	return process.PidExistsWithContext(ctx, pid)
}

func (sysInspector) Terminate(pid int) error {
	return platform.Terminate(pid)
}
