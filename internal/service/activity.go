package service

import (
	"context"
	"time"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/GoPolymarket/clawdash/internal/pkg/logger"
)

const activitySinkTimeout = 3 * time.Second

// ActivitySink persists facet log entries outside the process.
type ActivitySink interface {
	Push(ctx context.Context, entries []model.FacetLog) error
}

// ActivityLog keeps the most recent facet log entries in memory and forwards
// each batch to an optional sink without blocking the aggregation round.
type ActivityLog struct {
	buffer *ring[model.FacetLog]
	sink   ActivitySink
	ch     chan []model.FacetLog
	done   chan struct{}
}

func NewActivityLog(size int, sink ActivitySink) *ActivityLog {
	a := &ActivityLog{
		buffer: newRing[model.FacetLog](size),
		sink:   sink,
	}
	if sink != nil {
		a.ch = make(chan []model.FacetLog, 64)
		a.done = make(chan struct{})
		go a.forward()
	}
	return a
}

func (a *ActivityLog) Record(entries []model.FacetLog) {
	if len(entries) == 0 {
		return
	}
	a.buffer.Add(entries...)
	for _, e := range entries {
		if e.OK {
			logger.Debug("facet ok", "view", e.View, "facet", e.Facet, "digest", e.Digest, "latency_ms", e.LatencyMs)
		} else {
			logger.Warn("facet failed", "view", e.View, "facet", e.Facet, "error", e.Error, "latency_ms", e.LatencyMs)
		}
	}
	if a.ch == nil {
		return
	}
	select {
	case a.ch <- entries:
	default:
		logger.Warn("activity sink queue full, dropping batch", "entries", len(entries))
	}
}

// Restore seeds the buffer with entries read back from the sink, newest
// first. They are not forwarded again.
func (a *ActivityLog) Restore(entries []model.FacetLog) {
	for i := len(entries) - 1; i >= 0; i-- {
		a.buffer.Add(entries[i])
	}
}

// List returns up to limit entries, newest first, optionally for one view.
func (a *ActivityLog) List(view string, limit int) []model.FacetLog {
	return a.buffer.List(limit, func(e model.FacetLog) bool {
		return view == "" || e.View == view
	})
}

func (a *ActivityLog) forward() {
	defer close(a.done)
	for batch := range a.ch {
		ctx, cancel := context.WithTimeout(context.Background(), activitySinkTimeout)
		if err := a.sink.Push(ctx, batch); err != nil {
			logger.Error("activity sink push failed", "error", err)
		}
		cancel()
	}
}

func (a *ActivityLog) Close() {
	if a.ch == nil {
		return
	}
	close(a.ch)
	<-a.done
}
