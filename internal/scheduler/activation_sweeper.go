package scheduler

import (
	"context"
	"time"

	"maintenance_backend/platform/logger"
)

const defaultActivationSweepInterval = 15 * time.Minute

// ActivationSweeper runs the lead-time sweep on a fixed interval.
type ActivationSweeper struct {
	runner   ActivationRunner
	log      *logger.Logger
	interval time.Duration
}

func NewActivationSweeper(runner ActivationRunner, log *logger.Logger, interval time.Duration) *ActivationSweeper {
	if interval <= 0 {
		interval = defaultActivationSweepInterval
	}
	if log == nil {
		log = logger.Discard()
	}
	return &ActivationSweeper{runner: runner, log: log, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *ActivationSweeper) Run(ctx context.Context) error {
	if s == nil || s.runner == nil {
		return nil
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ActivationSweeper) sweep(ctx context.Context) {
	if _, err := s.runner.ActivateDue(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("activation sweep failed", "error", err)
	}
}
