// Package aggregate fans a view's facet calls out concurrently and merges the
// outcomes into a retained, per-facet state.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/GoPolymarket/clawdash/internal/pkg/metrics"
	"github.com/sourcegraph/conc/iter"
)

// Call is one independent upstream fetch belonging to a view.
type Call struct {
	Facet model.Facet
	Fetch func(ctx context.Context) (any, error)
}

// Outcome is the result slot for one Call.
type Outcome struct {
	Facet   model.Facet
	Value   any
	Err     error
	Latency time.Duration
}

func (o Outcome) OK() bool { return o.Err == nil }

// Round is one complete aggregation cycle for a view. Outcomes are in the
// same order as the calls that produced them.
type Round struct {
	View       string
	Outcomes   []Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Gather runs every call concurrently and waits for all of them. A failing or
// panicking call never cancels its siblings.
func Gather(ctx context.Context, view string, calls []Call) Round {
	round := Round{View: view, StartedAt: time.Now()}
	round.Outcomes = iter.Map(calls, func(call *Call) Outcome {
		return run(ctx, view, *call)
	})
	round.FinishedAt = time.Now()
	return round
}

func run(ctx context.Context, view string, call Call) (out Outcome) {
	out.Facet = call.Facet
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Value = nil
			out.Err = fmt.Errorf("%s: panic: %v", call.Facet, r)
		}
		out.Latency = time.Since(start)
		result := "ok"
		if out.Err != nil {
			result = "error"
		}
		metrics.FacetOutcomes.WithLabelValues(view, string(call.Facet), result).Inc()
	}()

	if call.Fetch == nil {
		out.Err = fmt.Errorf("%s: no fetch function", call.Facet)
		return out
	}
	out.Value, out.Err = call.Fetch(ctx)
	if out.Err != nil {
		out.Value = nil
	}
	return out
}

// Get returns the outcome for facet, if the round contains it.
func (r Round) Get(facet model.Facet) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Facet == facet {
			return o, true
		}
	}
	return Outcome{}, false
}

// Failed lists the facets that failed in this round, in call order.
func (r Round) Failed() []model.Facet {
	var failed []model.Facet
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o.Facet)
		}
	}
	return failed
}

// Succeeded reports whether at least one facet succeeded.
func (r Round) Succeeded() bool {
	for _, o := range r.Outcomes {
		if o.Err == nil {
			return true
		}
	}
	return false
}

// Snapshot is the single-shot view of a round: successes carry their value,
// failures carry a nil value and an error message.
func (r Round) Snapshot() Snapshot {
	s := Snapshot{
		Values: make(map[model.Facet]any, len(r.Outcomes)),
		OK:     make(map[model.Facet]bool, len(r.Outcomes)),
		Errors: map[model.Facet]string{},
	}
	for _, o := range r.Outcomes {
		s.OK[o.Facet] = o.Err == nil
		if o.Err != nil {
			s.Values[o.Facet] = nil
			s.Errors[o.Facet] = o.Err.Error()
			continue
		}
		s.Values[o.Facet] = o.Value
	}
	if r.Succeeded() {
		s.UpdatedAt = r.FinishedAt
	}
	return s
}

// LogEntries renders one entry per facet. Failures are entries, not errors.
func (r Round) LogEntries() []model.FacetLog {
	entries := make([]model.FacetLog, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		entry := model.FacetLog{
			Time:      r.FinishedAt,
			View:      r.View,
			Facet:     o.Facet,
			OK:        o.Err == nil,
			LatencyMs: o.Latency.Milliseconds(),
		}
		if o.Err != nil {
			entry.Error = o.Err.Error()
		} else {
			entry.Digest = Digest(o.Value)
		}
		entries = append(entries, entry)
	}
	return entries
}
