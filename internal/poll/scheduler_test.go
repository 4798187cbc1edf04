package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	s := NewScheduler()
	var n atomic.Int32
	h := s.Start("count", 5*time.Millisecond, func(context.Context) { n.Add(1) })

	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
	s.Cancel(h)
	stopped := n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, n.Load(), "no rounds after cancel")
	assert.Zero(t, s.Len())
}

func TestSchedulerSkipsOverlappingTicks(t *testing.T) {
	s := NewScheduler()
	release := make(chan struct{})
	var started atomic.Int32
	h := s.Start("slow", 2*time.Millisecond, func(ctx context.Context) {
		started.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
	})

	require.Eventually(t, func() bool { return h.Skipped() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(1), started.Load(), "only one round in flight")
	assert.Equal(t, int64(1), h.Runs())

	close(release)
	require.Eventually(t, func() bool { return started.Load() >= 2 }, time.Second, time.Millisecond)
	h.Cancel()
	h.Cancel()
}

func TestSchedulerCancelAbortsInFlightRound(t *testing.T) {
	s := NewScheduler()
	cancelled := make(chan struct{})
	h := s.Start("blocked", time.Hour, func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	})
	require.Eventually(t, func() bool { return h.Runs() == 1 }, time.Second, time.Millisecond)

	s.Cancel(h)
	select {
	case <-cancelled:
	default:
		t.Fatal("Cancel returned before the round observed cancellation")
	}
}

func TestSchedulerStopAll(t *testing.T) {
	s := NewScheduler()
	for _, name := range []string{"a", "b", "c"} {
		s.Start(name, time.Millisecond, func(context.Context) {})
	}
	assert.Equal(t, 3, s.Len())
	s.StopAll()
	assert.Zero(t, s.Len())
}
