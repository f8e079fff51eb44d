package collector

import (
	"context"

	"go.uber.org/zap"

	"github.com/ghostlogic/blackbox-agent/internal/models"
)

// collectDisks converts raw volume readings into reportable entries.
// Volumes with zero total bytes (some virtual mounts report 0 size) are
// excluded rather than reported as 0%.
func (c *Collector) collectDisks(ctx context.Context) []models.DiskVolume {
	samples, err := c.probes.Disks(ctx)
	if err != nil {
		c.logger.Debug("disk probe failed", zap.Error(err))
		return nil
	}

	var volumes []models.DiskVolume
	for _, s := range samples {
		if s.Total == 0 {
			continue
		}
		volumes = append(volumes, models.DiskVolume{
			Mount:      s.Mount,
			TotalBytes: s.Total,
			UsedBytes:  s.Used,
			FreeBytes:  s.Free,
			Percent:    round1(float64(s.Used) / float64(s.Total) * 100),
		})
	}
	return volumes
}
