package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CycleRunner runs one monitoring cycle.
type CycleRunner interface {
	Run(ctx context.Context) (*Result, error)
}

// Compile-time interface check.
var _ CycleRunner = (*Cycle)(nil)

// Scheduler runs cycles on a fixed interval from a single goroutine, so two
// cycles are never in flight at once. A cycle that overruns the interval
// delays the next tick rather than overlapping it.
type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	logger   zerolog.Logger
}

// NewScheduler returns a scheduler running r every interval.
func NewScheduler(r CycleRunner, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{runner: r, interval: interval, logger: logger}
}

// Start runs a cycle immediately and then on every tick until ctx is done.
// It blocks and returns ctx.Err().
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("Cycle scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Cycle scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// Errors are logged by the cycle; the next tick is the retry.
	_, _ = s.runner.Run(ctx)
}
