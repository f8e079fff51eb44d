//go:build windows

package platform

import (
	"os"
	"syscall"

	"golang.org/x/sys/windows"
)

// Terminate forcefully kills the process. Windows has no SIGTERM
// equivalent a headless service could handle, so forceful kill is the
// platform's stop mechanism; the stale PID file is cleaned up by the
// caller.
func Terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

// DetachedAttrs returns process attributes that fully detach a background
// child: no console window, new process group, no inherited console.
func DetachedAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.DETACHED_PROCESS |
			windows.CREATE_NEW_PROCESS_GROUP |
			windows.CREATE_NO_WINDOW,
	}
}
