//go:build !windows

package platform

import (
	"syscall"
)

// Terminate sends SIGTERM so the agent's signal handler can clean up the
// PID file before exiting.
func Terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

// DetachedAttrs returns process attributes that fully detach a background
// child from the controlling terminal and session.
func DetachedAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
