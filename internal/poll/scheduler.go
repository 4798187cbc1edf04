// Package poll runs aggregation rounds on fixed cadences and keeps the
// retained server-side views.
package poll

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GoPolymarket/clawdash/internal/pkg/logger"
	"github.com/GoPolymarket/clawdash/internal/pkg/metrics"
)

// Task is one round of work. ctx is cancelled when the handle is cancelled.
type Task func(ctx context.Context)

// Handle controls one scheduled task.
type Handle struct {
	name     string
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
	rounds   sync.WaitGroup
	running  atomic.Bool
	skipped  atomic.Int64
	runs     atomic.Int64
	once     sync.Once
}

func (h *Handle) Name() string { return h.name }

// Skipped is the number of ticks dropped because a round was still in flight.
func (h *Handle) Skipped() int64 { return h.skipped.Load() }

// Runs is the number of rounds started.
func (h *Handle) Runs() int64 { return h.runs.Load() }

// Cancel stops the ticker, cancels the in-flight round and waits for it.
// It is safe to call more than once.
func (h *Handle) Cancel() {
	h.once.Do(h.cancel)
	<-h.done
	h.rounds.Wait()
}

// Scheduler owns every running task so shutdown can stop them all.
type Scheduler struct {
	mu      sync.Mutex
	handles map[*Handle]struct{}
}

func NewScheduler() *Scheduler {
	return &Scheduler{handles: make(map[*Handle]struct{})}
}

// Start runs fn immediately and then every interval. A tick that fires while
// the previous round is still running is skipped, never queued.
func (s *Scheduler) Start(name string, interval time.Duration, fn Task) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		name:     name,
		interval: interval,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	s.handles[h] = struct{}{}
	s.mu.Unlock()

	go h.loop(ctx, fn)
	return h
}

func (h *Handle) loop(ctx context.Context, fn Task) {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.tick(ctx, fn)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.tick(ctx, fn)
		}
	}
}

func (h *Handle) tick(ctx context.Context, fn Task) {
	if !h.running.CompareAndSwap(false, true) {
		h.skipped.Add(1)
		metrics.PollRoundsSkipped.WithLabelValues(h.name).Inc()
		logger.Debug("poll round skipped, previous still in flight", "task", h.name)
		return
	}
	h.runs.Add(1)
	h.rounds.Add(1)
	go func() {
		defer h.rounds.Done()
		defer h.running.Store(false)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("poll round panicked", "task", h.name, "panic", r)
			}
		}()
		fn(ctx)
	}()
}

// Cancel stops h and forgets it.
func (s *Scheduler) Cancel(h *Handle) {
	if h == nil {
		return
	}
	s.mu.Lock()
	delete(s.handles, h)
	s.mu.Unlock()
	h.Cancel()
}

// StopAll cancels every task started by s.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	handles := make([]*Handle, 0, len(s.handles))
	for h := range s.handles {
		handles = append(handles, h)
	}
	s.handles = make(map[*Handle]struct{})
	s.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
}

// Len is the number of live tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}
