package core

// scheduler.go runs background maintenance for the session store.
//
// Sessions live in memory only, so idle ones are swept periodically. The
// sweeper is long-running and context-aware for graceful shutdown.

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often expired sessions are removed.
const DefaultSweepInterval = 10 * time.Minute

// StartSessionSweeper removes expired sessions every interval until ctx is
// cancelled. It sweeps once immediately on start.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	slog.Info("session sweeper started", "interval", interval.String())

	s.runSweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep()
		}
	}
}

// runSweep performs one sweep pass.
func (s *Service) runSweep() {
	start := time.Now()
	removed := s.sessions.Sweep()
	if removed == 0 {
		slog.Debug("session sweep found nothing to remove")
		return
	}
	slog.Info("expired sessions removed",
		"sessions_removed", removed,
		"sessions_live", s.sessions.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
