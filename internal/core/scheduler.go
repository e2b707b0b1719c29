package core

// scheduler.go runs background maintenance while the server is up.
//
// Two jobs share one ticker: scrub history older than the retention window
// is purged, and idle import sessions past their TTL are dropped. Failures
// are logged and the loop keeps going.

import (
	"context"
	"log/slog"
	"time"
)

// MaintenanceConfig holds the scheduler settings. Zero values fall back to
// the defaults noted on each field.
type MaintenanceConfig struct {
	RetentionDays int           // Days of scrub history to keep (default: 90)
	CheckInterval time.Duration // How often to purge history (default: 24h)
	SweepInterval time.Duration // How often to expire sessions (default: 1m)
}

func (c MaintenanceConfig) withDefaults() MaintenanceConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 90
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	return c
}

// StartMaintenance purges history immediately and then every CheckInterval,
// and sweeps expired sessions every SweepInterval. It blocks until ctx is
// cancelled.
func (s *Service) StartMaintenance(ctx context.Context, cfg MaintenanceConfig) {
	cfg = cfg.withDefaults()
	slog.Info("maintenance scheduler started",
		"retention_days", cfg.RetentionDays,
		"check_interval", cfg.CheckInterval,
		"session_ttl", s.sessionTTL,
	)

	s.runPurgeJob(ctx, cfg.RetentionDays)

	purge := time.NewTicker(cfg.CheckInterval)
	defer purge.Stop()
	sweep := time.NewTicker(cfg.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("maintenance scheduler stopped")
			return
		case <-purge.C:
			s.runPurgeJob(ctx, cfg.RetentionDays)
		case <-sweep.C:
			if n := s.SweepSessions(time.Now()); n > 0 {
				slog.Info("expired import sessions", "count", n)
			}
		}
	}
}

// runPurgeJob performs one history purge.
func (s *Service) runPurgeJob(ctx context.Context, retentionDays int) {
	start := time.Now()
	purged, err := s.store.PurgeRuns(ctx, retentionDays)
	if err != nil {
		slog.Error("history purge failed", "error", err)
		return
	}
	slog.Info("purged scrub history",
		"entries_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
