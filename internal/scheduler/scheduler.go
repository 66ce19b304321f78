package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked once per iteration with the iteration start time.
type TickFunc func(ctx context.Context, start time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
}

// Scheduler drives fixed-interval iterations. The sleep between iterations
// shrinks by the time the tick itself took, floored at one second, so a slow
// iteration delays the next one but is never skipped or caught up in a burst.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking the tick function every interval until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := sleep(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now().UTC()
		if err := tick(ctx, start); err != nil {
			s.logger.Error().Err(err).Time("start", start).Msg("tick execution failed")
		}

		elapsed := time.Since(start)
		delay := s.opts.Interval - elapsed
		if delay < time.Second {
			if elapsed >= s.opts.Interval {
				s.logger.Warn().
					Dur("elapsed", elapsed).
					Dur("interval", s.opts.Interval).
					Msg("iteration overran the check interval")
			}
			delay = time.Second
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
