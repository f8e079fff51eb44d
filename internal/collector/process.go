package collector

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/ghostlogic/blackbox-agent/internal/models"
)

// collectProcesses returns the top N processes sorted by CPU usage
// descending. A failed listing yields an empty slice, never an error.
func (c *Collector) collectProcesses(ctx context.Context) []models.ProcessSample {
	procs, err := c.probes.Processes(ctx)
	if err != nil {
		c.logger.Debug("process probe failed", zap.Error(err))
		return nil
	}

	sort.SliceStable(procs, func(i, j int) bool {
		return cpuOf(procs[i]) > cpuOf(procs[j])
	})

	if len(procs) > c.topN {
		procs = procs[:c.topN]
	}
	return procs
}

// cpuOf treats a missing CPU figure as zero for sorting purposes.
func cpuOf(p models.ProcessSample) float64 {
	if p.CPUPercent == nil {
		return 0
	}
	return *p.CPUPercent
}
