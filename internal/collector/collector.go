package collector

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ghostlogic/blackbox-agent/internal/models"
)

// collectTimeout bounds one full collection pass so a hung OS call cannot
// stall the agent loop indefinitely.
const collectTimeout = 15 * time.Second

// Collector assembles a RawSnapshot from the configured probes. It owns the
// CPU tick cache used for delta computation; the cache is instance state,
// not a package global, so callers control its lifetime.
type Collector struct {
	probes Probes
	topN   int
	logger *zap.Logger
	cpu    cpuState
}

// New creates a Collector reading from the given probes. topN caps the
// process and open-port listings.
func New(probes Probes, topN int, logger *zap.Logger) *Collector {
	return &Collector{
		probes: probes,
		topN:   topN,
		logger: logger,
	}
}

// Collect gathers all telemetry categories and returns a snapshot. It never
// fails as a whole: a failed probe leaves its field nil/empty and is logged
// at debug level only.
func (c *Collector) Collect(ctx context.Context) models.RawSnapshot {
	ctx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()

	var snap models.RawSnapshot

	if hostname, err := c.probes.Hostname(); err == nil {
		snap.Hostname = hostname
	} else {
		c.logger.Debug("hostname probe failed", zap.Error(err))
		snap.Hostname = "unknown"
	}

	if username, err := c.probes.Username(); err == nil {
		snap.Username = username
	} else {
		c.logger.Debug("username probe failed", zap.Error(err))
		snap.Username = "unknown"
	}

	if osInfo, err := c.probes.OSInfo(ctx); err == nil {
		snap.OS = osInfo
	} else {
		c.logger.Debug("os info probe failed", zap.Error(err))
	}

	if uptime, err := c.probes.UptimeSecs(ctx); err == nil {
		snap.UptimeSecs = &uptime
	} else {
		c.logger.Debug("uptime probe failed", zap.Error(err))
	}

	if ticks, err := c.probes.CPUTicks(ctx); err == nil {
		pct := c.cpu.usage(ticks)
		snap.CPUPercent = &pct
	} else {
		c.logger.Debug("cpu probe failed", zap.Error(err))
	}

	if sample, err := c.probes.Memory(ctx); err == nil {
		snap.Memory = memoryStats(sample)
	} else {
		c.logger.Debug("memory probe failed", zap.Error(err))
	}

	snap.Processes = c.collectProcesses(ctx)
	snap.Network, snap.OpenPorts = c.collectNetwork(ctx)
	snap.Disks = c.collectDisks(ctx)

	return snap
}

// memoryStats converts a raw memory sample. Used is total minus available.
// A zero-total sample yields 0 percent rather than NaN.
func memoryStats(sample MemSample) *models.MemoryStats {
	used := sample.Total - sample.Available
	var pct float64
	if sample.Total > 0 {
		pct = round1(float64(used) / float64(sample.Total) * 100)
	}
	return &models.MemoryStats{
		TotalBytes: sample.Total,
		UsedBytes:  used,
		Percent:    pct,
	}
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
