package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsOnInterval(t *testing.T) {
	var ticks atomic.Int64
	s := New("test", func(context.Context) {
		ticks.Add(1)
	})
	defer s.Clear()

	s.Set(context.Background(), 10*time.Millisecond)
	require.True(t, s.Running())

	require.Eventually(t, func() bool {
		return ticks.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSetReplacesActiveLoop(t *testing.T) {
	var first, second atomic.Int64
	var generation atomic.Int64

	s := New("test", func(context.Context) {
		if generation.Load() == 0 {
			first.Add(1)
		} else {
			second.Add(1)
		}
	})
	defer s.Clear()

	s.Set(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return first.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)

	// Replacing the schedule must fully stop the old loop first; Set blocks
	// until the previous loop has exited.
	s.Set(context.Background(), 10*time.Millisecond)
	generation.Store(1)
	firstCount := first.Load()

	require.Eventually(t, func() bool { return second.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, firstCount, first.Load(), "replaced loop must not fire again")
}

func TestClearStopsLoop(t *testing.T) {
	var ticks atomic.Int64
	s := New("test", func(context.Context) {
		ticks.Add(1)
	})

	s.Set(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)

	s.Clear()
	require.False(t, s.Running())
	require.Equal(t, time.Duration(0), s.Interval())

	stopped := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, stopped, ticks.Load())
}

func TestNonPositiveIntervalIsNoop(t *testing.T) {
	s := New("test", func(context.Context) {
		t.Error("must not fire")
	})
	s.Set(context.Background(), 0)
	require.False(t, s.Running())
	time.Sleep(20 * time.Millisecond)
}

func TestContextCancelStopsLoop(t *testing.T) {
	var ticks atomic.Int64
	s := New("test", func(context.Context) {
		ticks.Add(1)
	})
	defer s.Clear()

	ctx, cancel := context.WithCancel(context.Background())
	s.Set(ctx, 10*time.Millisecond)
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	time.Sleep(30 * time.Millisecond)
	stopped := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, stopped, ticks.Load())
}
