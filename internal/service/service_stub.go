//go:build !windows

// Package service runs the agent under the Windows service manager. There
// is no SCM on unix-like systems; the agent runs in the foreground or as a
// detached process, so this build reduces to a pass-through.
package service

import (
	"context"

	"go.uber.org/zap"
)

// AgentService on non-Windows builds invokes the collect loop directly.
type AgentService struct {
	startFn func(ctx context.Context)
}

// New wraps the loop start function. The logger parameter keeps the
// signature aligned with the Windows build; nothing is logged here.
func New(_ *zap.Logger, startFn func(ctx context.Context)) *AgentService {
	return &AgentService{startFn: startFn}
}

// IsWindowsService reports false: no service manager to answer to.
func IsWindowsService() bool {
	return false
}

// Run blocks in the loop until its context ends.
func (s *AgentService) Run() error {
	s.startFn(context.Background())
	return nil
}
