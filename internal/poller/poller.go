// Package poller provides cancellable periodic task scheduling for
// background refresh loops.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/msgdesk/internal/logging"
)

// Scheduler runs one function on a fixed interval. At most one timer loop is
// active per Scheduler: setting a new interval always cancels the previous
// loop before starting the next.
type Scheduler struct {
	name   string
	fn     func(context.Context)
	logger zerolog.Logger

	mu       sync.Mutex
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a Scheduler for the given task.
func New(name string, fn func(context.Context)) *Scheduler {
	return &Scheduler{
		name:   name,
		fn:     fn,
		logger: logging.Component(name),
	}
}

// Set replaces the active schedule. A non-positive interval stops the loop
// without starting a new one.
func (s *Scheduler) Set(ctx context.Context, interval time.Duration) {
	s.mu.Lock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	// Wait outside the tick callback path but inside Set so a replaced loop
	// can never fire concurrently with its successor.
	s.mu.Unlock()
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interval = 0
	if interval <= 0 {
		s.logger.Debug().Msg("schedule cleared")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.interval = interval

	s.logger.Debug().Dur("interval", interval).Msg("schedule set")

	s.wg.Add(1)
	go s.run(loopCtx, interval)
}

// Clear stops any active loop.
func (s *Scheduler) Clear() {
	s.Set(context.Background(), 0)
}

// Interval returns the active interval, or zero when stopped.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Running reports whether a loop is active.
func (s *Scheduler) Running() bool {
	return s.Interval() > 0
}

func (s *Scheduler) run(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fn(ctx)
		}
	}
}
