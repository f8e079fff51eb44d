//go:build windows

// Package service runs the agent under the Windows service manager. When
// the SCM launches the binary the control loop here takes over; from a
// terminal the agent runs in the foreground as on other platforms.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/svc"
)

const serviceName = "BlackboxAgent"

// stopGrace is how long a Stop or Shutdown control waits for the in-flight
// collect cycle before the process reports stopped to the SCM.
const stopGrace = 2 * time.Second

// AgentService adapts the collect loop to the svc.Handler contract.
type AgentService struct {
	logger  *zap.Logger
	startFn func(ctx context.Context)
}

// New wraps the loop start function for the SCM. startFn receives a context
// that is cancelled when the service is told to stop.
func New(logger *zap.Logger, startFn func(ctx context.Context)) *AgentService {
	return &AgentService{
		logger:  logger,
		startFn: startFn,
	}
}

// IsWindowsService reports whether the SCM launched this process.
func IsWindowsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// Run enters the SCM control loop and blocks until the service stops.
func (s *AgentService) Run() error {
	return svc.Run(serviceName, s)
}

// Execute is the svc.Handler entry point: report StartPending, run the
// loop, then honor Stop and Shutdown controls.
func (s *AgentService) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (ssec bool, errno uint32) {
	changes <- svc.Status{State: svc.StartPending}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go s.startFn(ctx)

	changes <- svc.Status{
		State:   svc.Running,
		Accepts: svc.AcceptStop | svc.AcceptShutdown,
	}
	s.logger.Info("Windows service started", zap.String("name", serviceName))

	for {
		c := <-r
		switch c.Cmd {
		case svc.Interrogate:
			changes <- c.CurrentStatus
		case svc.Stop, svc.Shutdown:
			s.logger.Info("Windows service stopping")
			changes <- svc.Status{State: svc.StopPending}
			cancel()
			time.Sleep(stopGrace)
			return false, 0
		default:
			s.logger.Warn("Unexpected service control request",
				zap.Uint32("cmd", uint32(c.Cmd)))
		}
	}
}
