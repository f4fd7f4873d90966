package sim

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// BeforeTickFunc is called by Run before each tick, with the number of the tick about to run. It is
// the place to submit new processes: submissions made here are picked up by that same tick.
type BeforeTickFunc func(tick int) error

// Step runs count ticks back to back and returns their reports
func (s *Scheduler) Step(count int) []TickReport {
	reports := make([]TickReport, 0, count)
	for i := 0; i < count; i++ {
		reports = append(reports, s.Tick())
	}
	return reports
}

// Run ticks the scheduler once per interval until ctx is cancelled or maxTicks ticks have run. A
// maxTicks of 0 runs until cancellation. Ticks never overlap: a tick that runs longer than the interval
// delays the next one rather than running alongside it.
//
// Run returns nil when maxTicks is reached, ctx.Err() on cancellation, or the first error returned
// from beforeTick.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, maxTicks int, beforeTick BeforeTickFunc) error {
	if interval <= 0 {
		return errors.Newf("tick interval must be positive, got %s", interval)
	}
	if maxTicks < 0 {
		return errors.Newf("maxTicks must not be negative, got %d", maxTicks)
	}

	s.logger.Debug("Scheduler::Run", slog.Duration("Interval", interval), slog.Int("MaxTicks", maxTicks))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for ran := 0; maxTicks == 0 || ran < maxTicks; ran++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if beforeTick != nil {
			err := beforeTick(s.Ticks() + 1)
			if err != nil {
				return err
			}
		}

		s.Tick()
	}

	return nil
}
