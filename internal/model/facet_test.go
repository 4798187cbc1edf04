package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeKeepsUndeclaredFields(t *testing.T) {
	var trade Trade
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","venue":"polymarket","price":"0.42","fee":"0.01","tags":["weather"]}`), &trade))

	out, err := json.Marshal(trade)
	require.NoError(t, err)
	var row map[string]any
	require.NoError(t, json.Unmarshal(out, &row))
	assert.Equal(t, "t1", row["id"])
	assert.Equal(t, "0.42", row["price"])
	assert.Equal(t, "0.01", row["fee"])
	assert.Equal(t, []any{"weather"}, row["tags"])
}

func TestPositionOverlayWinsOverRow(t *testing.T) {
	var pos Position
	require.NoError(t, json.Unmarshal([]byte(`{"market_id":"m","pnl":1.5,"resolves_at":"2026-11-03"}`), &pos))
	pos.PnL = decimal.RequireFromString("-2")

	out, err := json.Marshal(pos)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"pnl":"-2"`)
	assert.Contains(t, string(out), `"resolves_at":"2026-11-03"`)
}

func TestPositionWithoutRowMarshalsDeclaredFields(t *testing.T) {
	out, err := json.Marshal(Position{MarketID: "m", Venue: "polymarket"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"market_id":"m"`)
	assert.NotContains(t, string(out), "raw")
}
