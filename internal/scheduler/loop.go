// Package scheduler implements the agent's collect → normalize → send loop.
// One goroutine owns the whole cycle: collection, transmission and the
// periodic seal check run sequentially, so no locks are needed. Nothing in
// the cycle is fatal; every failure is logged and the loop continues at the
// next scheduled cycle.
package scheduler

import (
	"context"
	"math/rand"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ghostlogic/blackbox-agent/internal/config"
	"github.com/ghostlogic/blackbox-agent/internal/logging"
	"github.com/ghostlogic/blackbox-agent/internal/models"
	"github.com/ghostlogic/blackbox-agent/internal/normalize"
	"github.com/ghostlogic/blackbox-agent/internal/transport"
)

// detailTruncateLen caps backend detail strings in log output.
const detailTruncateLen = 200

// Collector produces one telemetry snapshot per call.
type Collector interface {
	Collect(ctx context.Context) models.RawSnapshot
}

// Client is the slice of the transport the loop uses.
type Client interface {
	Ingest(ctx context.Context, batch models.Batch) (*transport.IngestResponse, error)
	Seal(ctx context.Context) (*transport.SealResponse, error)
}

// sealState tracks the seal window against the monotonic clock. time.Time
// values from time.Now carry a monotonic reading, and Sub uses it, so the
// window is immune to NTP corrections and wall-clock changes.
type sealState struct {
	last time.Time
}

// due reports whether a seal attempt is owed at now.
func (s *sealState) due(now time.Time, interval time.Duration) bool {
	return now.Sub(s.last) >= interval
}

// advance moves the window forward. Called only after a successful seal;
// a failed seal leaves the old marker so the next check retries.
func (s *sealState) advance(now time.Time) {
	s.last = now
}

// Loop owns cycle timing, jitter, seal tracking and per-cycle error
// isolation.
type Loop struct {
	collector Collector
	client    Client
	cfg       *config.Config
	logger    *zap.Logger

	// hostname is refreshed every cycle to follow DHCP or VM-migration
	// renames mid-run. Overridable for tests.
	hostname func() (string, error)

	rng   *rand.Rand
	seal  sealState
	cycle int
}

// New creates the agent loop.
func New(collector Collector, client Client, cfg *config.Config, logger *zap.Logger) *Loop {
	return &Loop{
		collector: collector,
		client:    client,
		cfg:       cfg,
		logger:    logger,
		hostname:  os.Hostname,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run executes the loop until the context is cancelled. Each cycle:
// collect, send, seal-check, sleep. Cycle failures never terminate the
// loop.
func (l *Loop) Run(ctx context.Context) {
	interval := l.cfg.Collection.Interval.Duration
	sealInterval := l.cfg.Collection.SealInterval.Duration

	l.logger.Info("Agent loop started",
		zap.String("agent_id", l.cfg.Agent.ID),
		zap.String("server", l.cfg.Server.URL),
		zap.Duration("collect_interval", interval),
		zap.Duration("seal_interval", sealInterval),
		zap.Bool("insecure_tls", l.cfg.Server.InsecureTLS))

	if l.cfg.Server.TenantKey == "" {
		l.logger.Warn("No tenant_key configured, requests will not authenticate")
	}

	l.seal = sealState{last: time.Now()}

	for {
		if ctx.Err() != nil {
			return
		}

		l.cycle++
		sourceID := l.cfg.Agent.ID + ":" + l.refreshHostname()

		l.runCycle(ctx, sourceID)

		if l.seal.due(time.Now(), sealInterval) {
			if l.runSeal(ctx) {
				l.seal.advance(time.Now())
			}
		}

		if !l.sleep(ctx, interval) {
			l.logger.Info("Agent loop stopped")
			return
		}
	}
}

// runCycle performs one collect → normalize → ingest pass. Any failure is
// logged with the cycle number; the loop always continues.
func (l *Loop) runCycle(ctx context.Context, sourceID string) {
	raw := l.collector.Collect(ctx)
	batch := normalize.Normalize(raw, l.cfg.Agent.ID, sourceID)

	l.logger.Debug("Collected events",
		zap.Int("cycle", l.cycle),
		zap.Int("events", len(batch.Events)),
		zap.String("batch_id", batch.BatchID))

	resp, err := l.client.Ingest(ctx, batch)
	if err != nil {
		l.logger.Error("Ingest failed",
			zap.Int("cycle", l.cycle),
			zap.String("error", l.scrub(err.Error())))
		return
	}

	if resp.Status == "ingested" {
		l.logger.Info("Batch sent",
			zap.Int("cycle", l.cycle),
			zap.Int("events", len(batch.Events)),
			zap.Int("accepted", resp.Accepted),
			zap.Int("buffered", resp.BufferSize))
		return
	}

	l.logger.Warn("Ingest not accepted",
		zap.Int("cycle", l.cycle),
		zap.String("status", resp.Status),
		zap.String("detail", l.scrub(truncate(resp.Detail, detailTruncateLen))))
}

// runSeal makes one seal attempt and reports whether the window may
// advance.
func (l *Loop) runSeal(ctx context.Context) bool {
	l.logger.Info("Sealing capsule")

	resp, err := l.client.Seal(ctx)
	if err != nil {
		l.logger.Error("Seal failed", zap.String("error", l.scrub(err.Error())))
		return false
	}
	if resp.Status == "error" {
		l.logger.Warn("Seal rejected",
			zap.String("status", resp.Status),
			zap.String("detail", l.scrub(truncate(resp.Detail, detailTruncateLen))))
		return false
	}

	l.logger.Info("Seal complete",
		zap.String("status", resp.Status),
		zap.String("capsule", resp.CapsuleRef()))
	return true
}

// sleep waits one collect interval plus a uniformly random jitter in
// [0, 10%] of it, re-sampled each cycle, to desynchronize fleet-wide
// polling. Returns false when the context was cancelled during the wait.
func (l *Loop) sleep(ctx context.Context, interval time.Duration) bool {
	jitter := time.Duration(l.rng.Float64() * 0.1 * float64(interval))
	timer := time.NewTimer(interval + jitter)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// refreshHostname re-reads the hostname, keeping the previous batch's
// fallback semantics on failure.
func (l *Loop) refreshHostname() string {
	hostname, err := l.hostname()
	if err != nil || hostname == "" {
		l.logger.Debug("hostname refresh failed", zap.Error(err))
		return "unknown"
	}
	return hostname
}

func (l *Loop) scrub(msg string) string {
	return logging.Scrub(msg, l.cfg.Server.TenantKey)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
