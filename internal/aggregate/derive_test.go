package aggregate

import (
	"fmt"
	"testing"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFilterVenueKeepsOrder(t *testing.T) {
	trades := []model.Trade{
		{ID: "1", Venue: "polymarket"},
		{ID: "2", Venue: "kalshi"},
		{ID: "3", Venue: "polymarket"},
		{ID: "4", Venue: "Polymarket"},
		{ID: "5", Venue: "polymarket"},
	}
	got := FilterVenue(trades, "polymarket")
	ids := make([]string, 0, len(got))
	for _, tr := range got {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"1", "3", "5"}, ids)
}

func TestRankByAbsPnL(t *testing.T) {
	positions := []model.Position{
		{MarketID: "a", PnL: mustDec("2")},
		{MarketID: "b", PnL: mustDec("-5")},
		{MarketID: "c", PnL: mustDec("0.5")},
		{MarketID: "d", PnL: mustDec("-2")},
	}
	got := RankByAbsPnL(positions)
	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.MarketID)
	}
	assert.Equal(t, []string{"b", "a", "d", "c"}, ids)
	assert.Equal(t, "a", positions[0].MarketID, "input must not be reordered")
}

func TestActivityByDayWindows(t *testing.T) {
	var trades []model.Trade
	// 12 days, 20 trades each, newest first.
	for day := 30; day > 18; day-- {
		for i := 0; i < 20; i++ {
			trades = append(trades, model.Trade{
				Action:    "buy",
				Cost:      mustDec("1"),
				CreatedAt: fmt.Sprintf("2026-03-%02dT%02d:00:00Z", day, i),
			})
		}
	}

	got := ActivityByDay(trades, 150, 10)
	// 150 trades cover 7.5 days: 7 full days and one half day.
	require.Len(t, got, 8)
	assert.Equal(t, "2026-03-30", got[0].Day)
	assert.Equal(t, 20, got[0].Trades)
	assert.Equal(t, "2026-03-23", got[7].Day)
	assert.Equal(t, 10, got[7].Trades)
	assert.True(t, got[0].Volume.Equal(mustDec("20")))

	got = ActivityByDay(trades, 1000, 10)
	require.Len(t, got, 10)
	assert.Equal(t, "2026-03-21", got[9].Day)
}

func TestActivityByDayCountsDirections(t *testing.T) {
	trades := []model.Trade{
		{Side: "yes", Action: "buy", Shares: mustDec("10"), Price: mustDec("0.4"), CreatedAt: "2026-04-01 09:00"},
		{Side: "sell", Shares: mustDec("5"), Price: mustDec("0.5"), CreatedAt: "2026-04-01 08:00"},
		{CreatedAt: "garbage"},
	}
	got := ActivityByDay(trades, 0, 0)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Trades)
	assert.Equal(t, 1, got[0].Buys)
	assert.Equal(t, 1, got[0].Sells)
	assert.True(t, got[0].Volume.Equal(mustDec("6.5")))
}
