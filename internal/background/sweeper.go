package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/talentbase/talentbase-auth/internal/ratelimit"
)

// Sweeper periodically removes expired, unblocked records from the rate-limit
// table. It is an explicitly owned background task: whoever owns the engine
// lifecycle starts it and stops it on shutdown, so short-lived processes and
// tests never leak the ticker.
type Sweeper struct {
	limiter  *ratelimit.Limiter
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewSweeper creates a new rate-limit table sweeper
func NewSweeper(limiter *ratelimit.Limiter, logger *slog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		limiter:  limiter,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or the context is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep()
		case <-s.stopCh:
			s.logger.Info("rate-limit sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("rate-limit sweeper context cancelled")
			return
		}
	}
}

// runSweep performs one sweep pass. Sweep failures cannot block admission
// decisions; the limiter table is only ever trimmed here, never consulted.
func (s *Sweeper) runSweep() {
	before := s.limiter.Status()
	s.limiter.Sweep()
	after := s.limiter.Status()

	if removed := before.ActiveClients - after.ActiveClients; removed > 0 {
		s.logger.Info("rate-limit sweep completed",
			slog.Int("records_removed", removed),
			slog.Int("records_remaining", after.ActiveClients),
			slog.Int("blocked_retained", after.BlockedClients))
	}
}

// Stop signals the sweeper to stop
func (s *Sweeper) Stop() {
	close(s.stopCh)
}
