package aggregate

import (
	"sync"
	"time"

	"github.com/GoPolymarket/clawdash/internal/model"
)

// Snapshot is a point-in-time copy of a view's facets.
type Snapshot struct {
	Values    map[model.Facet]any
	OK        map[model.Facet]bool
	Errors    map[model.Facet]string
	UpdatedAt time.Time
}

// Value returns the facet value as T, or the zero value when it is absent,
// null or of another type.
func Value[T any](s Snapshot, facet model.Facet) (T, bool) {
	v, ok := s.Values[facet].(T)
	return v, ok
}

// State is the retained last-good view. A failed facet never overwrites a
// value that succeeded earlier; on first load it stays nil.
type State struct {
	mu        sync.RWMutex
	values    map[model.Facet]any
	ok        map[model.Facet]bool
	errors    map[model.Facet]string
	updatedAt time.Time
	log       map[model.Facet]model.FacetLog
	order     []model.Facet
}

func NewState() *State {
	return &State{
		values: make(map[model.Facet]any),
		ok:     make(map[model.Facet]bool),
		errors: make(map[model.Facet]string),
		log:    make(map[model.Facet]model.FacetLog),
	}
}

// Merge folds a round into the state. UpdatedAt advances only when the round
// had at least one success.
func (s *State) Merge(r Round) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range r.Outcomes {
		if o.Err != nil {
			s.ok[o.Facet] = false
			s.errors[o.Facet] = o.Err.Error()
			if _, seen := s.values[o.Facet]; !seen {
				s.values[o.Facet] = nil
			}
			continue
		}
		s.values[o.Facet] = o.Value
		s.ok[o.Facet] = true
		delete(s.errors, o.Facet)
	}
	if r.Succeeded() && r.FinishedAt.After(s.updatedAt) {
		s.updatedAt = r.FinishedAt
	}
	for _, entry := range r.LogEntries() {
		if _, seen := s.log[entry.Facet]; !seen {
			s.order = append(s.order, entry.Facet)
		}
		s.log[entry.Facet] = entry
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Values:    make(map[model.Facet]any, len(s.values)),
		OK:        make(map[model.Facet]bool, len(s.ok)),
		Errors:    make(map[model.Facet]string, len(s.errors)),
		UpdatedAt: s.updatedAt,
	}
	for k, v := range s.values {
		snap.Values[k] = v
	}
	for k, v := range s.ok {
		snap.OK[k] = v
	}
	for k, v := range s.errors {
		snap.Errors[k] = v
	}
	return snap
}

// LastLog returns the latest log entry of every facet, in first-seen order.
// Rounds that cover different facet groups each refresh only their own entries.
func (s *State) LastLog() []model.FacetLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.FacetLog, 0, len(s.order))
	for _, f := range s.order {
		out = append(out, s.log[f])
	}
	return out
}
