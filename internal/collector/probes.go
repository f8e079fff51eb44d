// Package collector gathers OS-level telemetry into a RawSnapshot.
// All OS access goes through the Probes interface so the collection logic
// (delta math, classification, capping) is testable without a live system.
package collector

import (
	"context"

	"github.com/ghostlogic/blackbox-agent/internal/models"
)

// CPUTicks is one raw read of the cumulative CPU tick counters.
type CPUTicks struct {
	Idle  float64
	Total float64
}

// MemSample is one raw read of physical memory counters. Available is
// preferred over free where the OS exposes both.
type MemSample struct {
	Total     uint64
	Available uint64
}

// ConnSample is one raw network connection entry.
type ConnSample struct {
	Address string
	Port    int
	PID     int32
	State   string
}

// DiskSample is one raw mounted-volume usage reading.
type DiskSample struct {
	Mount string
	Total uint64
	Used  uint64
	Free  uint64
}

// Probes is the capability set the collector needs from the OS. The system
// implementation is backed by gopsutil, which handles the per-OS dispatch
// internally; tests substitute fakes. Every operation is independently
// fallible.
type Probes interface {
	Hostname() (string, error)
	Username() (string, error)
	OSInfo(ctx context.Context) (models.OSInfo, error)
	UptimeSecs(ctx context.Context) (float64, error)
	CPUTicks(ctx context.Context) (CPUTicks, error)
	Memory(ctx context.Context) (MemSample, error)
	Processes(ctx context.Context) ([]models.ProcessSample, error)
	Connections(ctx context.Context) ([]ConnSample, error)
	Disks(ctx context.Context) ([]DiskSample, error)
	ProcessName(ctx context.Context, pid int32) (string, error)
}
