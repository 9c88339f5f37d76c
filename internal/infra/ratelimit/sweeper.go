package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweepable is any limiter that can reclaim expired state on demand.
type Sweepable interface {
	Sweep() int
}

// Sweeper periodically reclaims expired limiter state. It is a separate,
// injectable strategy rather than an ambient timer inside the limiter, so
// tests drive Sweep directly and deployments tune or disable the cadence.
type Sweeper struct {
	target   Sweepable
	interval time.Duration
	logger   *zap.Logger
}

func NewSweeper(target Sweepable, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{target: target, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	if s == nil || s.target == nil || s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.target.Sweep(); removed > 0 {
				s.logger.Debug("swept expired rate limit entries",
					zap.Int("removed", removed))
			}
		}
	}
}
