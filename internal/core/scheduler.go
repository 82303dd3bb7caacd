package core

// scheduler.go runs the feed build history retention job.
//
// The job deletes feed_builds rows older than the retention window. It runs
// once on start and then on every tick until the context is cancelled.
// Failures are logged and never stop the scheduler.

import (
	"context"
	"log/slog"
	"time"

	"github.com/JonMunkholm/feedsync/internal/config"
)

// StartHistoryScheduler blocks until ctx is cancelled, purging old feed
// builds every cfg.CheckInterval.
func (s *Service) StartHistoryScheduler(ctx context.Context, cfg config.HistoryConfig) {
	slog.Info("history scheduler started",
		"retention_days", cfg.RetentionDays,
		"check_interval", cfg.CheckInterval,
	)

	// Run immediately on startup
	s.runPurgeJob(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history scheduler stopped")
			return
		case <-ticker.C:
			s.runPurgeJob(ctx, cfg)
		}
	}
}

// runPurgeJob performs one purge cycle.
func (s *Service) runPurgeJob(ctx context.Context, cfg config.HistoryConfig) {
	start := time.Now()
	purged, err := s.history.PurgeBuilds(ctx, cfg.RetentionDays)
	if err != nil {
		slog.Error("history purge failed", "error", err)
		return
	}
	slog.Info("purged feed build history",
		"entries_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
