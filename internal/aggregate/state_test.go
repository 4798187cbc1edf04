package aggregate

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateFirstLoadFailureIsNull(t *testing.T) {
	st := NewState()
	st.Merge(Gather(context.Background(), "home", []Call{
		failCall(model.FacetPortfolio, "timeout"),
		rawCall(model.FacetTrades, `["a"]`),
	}))

	snap := st.Snapshot()
	v, present := snap.Values[model.FacetPortfolio]
	assert.True(t, present)
	assert.Nil(t, v)
	assert.False(t, snap.OK[model.FacetPortfolio])
	assert.JSONEq(t, `["a"]`, string(snap.Values[model.FacetTrades].(json.RawMessage)))
	assert.Len(t, st.LastLog(), 2)
}

func TestStateRetainsPriorValueOnFailure(t *testing.T) {
	st := NewState()
	st.Merge(Gather(context.Background(), "home", []Call{
		rawCall(model.FacetPortfolio, `{"total_value":1}`),
		rawCall(model.FacetPositions, `[]`),
	}))
	first := st.Snapshot()

	st.Merge(Gather(context.Background(), "home", []Call{
		failCall(model.FacetPortfolio, "timeout"),
		rawCall(model.FacetPositions, `[1]`),
	}))
	snap := st.Snapshot()

	assert.JSONEq(t, `{"total_value":1}`, string(snap.Values[model.FacetPortfolio].(json.RawMessage)))
	assert.False(t, snap.OK[model.FacetPortfolio])
	assert.Equal(t, "timeout", snap.Errors[model.FacetPortfolio])
	assert.JSONEq(t, `[1]`, string(snap.Values[model.FacetPositions].(json.RawMessage)))
	assert.True(t, !snap.UpdatedAt.Before(first.UpdatedAt))
}

func TestStateUpdatedAtAdvancesWithoutDuplicates(t *testing.T) {
	st := NewState()
	calls := []Call{rawCall(model.FacetCrons, `[]`), rawCall(model.FacetStatus, `{}`)}

	st.Merge(Gather(context.Background(), "owner:alpha", calls))
	first := st.Snapshot().UpdatedAt
	time.Sleep(5 * time.Millisecond)
	st.Merge(Gather(context.Background(), "owner:alpha", calls))
	snap := st.Snapshot()

	assert.True(t, snap.UpdatedAt.After(first))
	assert.Len(t, snap.Values, 2)
	assert.Empty(t, snap.Errors)
}

func TestStateAllFailedKeepsTimestamp(t *testing.T) {
	st := NewState()
	st.Merge(Gather(context.Background(), "home", []Call{rawCall(model.FacetCrons, `[]`)}))
	before := st.Snapshot().UpdatedAt

	st.Merge(Gather(context.Background(), "home", []Call{failCall(model.FacetCrons, "down")}))
	after := st.Snapshot()
	assert.Equal(t, before, after.UpdatedAt)
	require.NotNil(t, after.Values[model.FacetCrons])
}

func TestStateLastLogKeepsOneEntryPerFacet(t *testing.T) {
	st := NewState()
	st.Merge(Gather(context.Background(), "owner:alpha", []Call{rawCall(model.FacetCrons, `[]`)}))
	st.Merge(Gather(context.Background(), "owner:alpha", []Call{
		rawCall(model.FacetStatus, `{}`),
		failCall(model.FacetTrades, "502"),
	}))
	st.Merge(Gather(context.Background(), "owner:alpha", []Call{failCall(model.FacetCrons, "down")}))

	entries := st.LastLog()
	require.Len(t, entries, 3)
	assert.Equal(t, model.FacetCrons, entries[0].Facet)
	assert.False(t, entries[0].OK)
	assert.Equal(t, model.FacetStatus, entries[1].Facet)
	assert.Equal(t, "502", entries[2].Error)
}
