package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GoPolymarket/clawdash/internal/aggregate"
	"github.com/GoPolymarket/clawdash/internal/config"
	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/GoPolymarket/clawdash/internal/upstream"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSimmer struct {
	calls        atomic.Int32
	portfolioErr error
	positions    []model.Position
	trades       []model.Trade
}

func (f *fakeSimmer) Portfolio(context.Context, string) (json.RawMessage, error) {
	f.calls.Add(1)
	if f.portfolioErr != nil {
		return nil, f.portfolioErr
	}
	return json.RawMessage(`{"total_value":100}`), nil
}

func (f *fakeSimmer) Positions(context.Context, string) ([]model.Position, error) {
	f.calls.Add(1)
	return f.positions, nil
}

func (f *fakeSimmer) Trades(_ context.Context, _ string, limit int) ([]model.Trade, error) {
	f.calls.Add(1)
	if limit < len(f.trades) {
		return f.trades[:limit], nil
	}
	return f.trades, nil
}

func (f *fakeSimmer) Markets(context.Context, string) (json.RawMessage, error) {
	f.calls.Add(1)
	return json.RawMessage(`[{"id":"m1"}]`), nil
}

func (f *fakeSimmer) Briefing(context.Context, string) (json.RawMessage, error) {
	f.calls.Add(1)
	return json.RawMessage(`{"summary":"ok"}`), nil
}

func (f *fakeSimmer) Leaderboard(context.Context, string) (json.RawMessage, error) {
	f.calls.Add(1)
	return json.RawMessage(`{"rank":4}`), nil
}

type fakeVPS struct {
	calls   atomic.Int32
	toggled []bool
}

func (f *fakeVPS) Executions(context.Context) (json.RawMessage, error) {
	f.calls.Add(1)
	return json.RawMessage(`[]`), nil
}

func (f *fakeVPS) Status(context.Context, string) (json.RawMessage, error) {
	f.calls.Add(1)
	return json.RawMessage(`{"running":true}`), nil
}

func (f *fakeVPS) Crons(context.Context, string) (json.RawMessage, error) {
	f.calls.Add(1)
	return json.RawMessage(`[{"name":"scan","enabled":true}]`), nil
}

func (f *fakeVPS) ToggleCron(_ context.Context, _, _ string, enabled bool) (json.RawMessage, error) {
	f.calls.Add(1)
	f.toggled = append(f.toggled, enabled)
	return json.RawMessage(`{"ok":true}`), nil
}

func (f *fakeVPS) RunCron(context.Context, string, string) (json.RawMessage, error) {
	f.calls.Add(1)
	return json.RawMessage(`{"ok":true}`), nil
}

func (f *fakeVPS) PauseBot(context.Context, string, string, bool) (json.RawMessage, error) {
	f.calls.Add(1)
	return json.RawMessage(`{"ok":true}`), nil
}

type fakeWallet struct{}

func (fakeWallet) WalletValue(context.Context, string) (model.WalletValue, error) {
	return model.WalletValue{Address: "0xabc", Value: decimal.RequireFromString("42.5")}, nil
}

func dashboardFixture(t *testing.T) (*DashboardService, *fakeSimmer, *fakeVPS, *ActivityLog) {
	t.Helper()
	reg := NewOwnerRegistry(&config.Config{
		Dashboard: config.DashboardConfig{HomeOwner: "alpha"},
		Owners: []config.OwnerConfig{
			{ID: "alpha", Name: "Alpha", Region: "domestic", APIKey: "sk-alpha", WalletAddress: "0x1234567890abcdef1234567890abcdef12345678"},
			{ID: "beta", Name: "Beta", Region: "international", APIKey: "sk-beta"},
			{ID: "gamma", Name: "Gamma", Region: "international"},
		},
	})
	simmer := &fakeSimmer{
		positions: []model.Position{
			{MarketID: "a", Venue: "polymarket", PnL: decimal.RequireFromString("1")},
			{MarketID: "b", Venue: "kalshi", PnL: decimal.RequireFromString("-9")},
			{MarketID: "c", Venue: "polymarket", PnL: decimal.RequireFromString("-3")},
		},
		trades: []model.Trade{
			{ID: "t1", Venue: "polymarket", Action: "buy", Cost: decimal.RequireFromString("2"), CreatedAt: "2026-05-02T10:00:00Z"},
			{ID: "t2", Venue: "kalshi", Action: "buy", CreatedAt: "2026-05-02T09:00:00Z"},
			{ID: "t3", Venue: "polymarket", Action: "sell", Cost: decimal.RequireFromString("1"), CreatedAt: "2026-05-01T09:00:00Z"},
		},
	}
	vps := &fakeVPS{}
	activity := NewActivityLog(100, nil)
	svc := NewDashboardService(reg, simmer, vps, fakeWallet{}, activity, DashboardOptions{})
	return svc, simmer, vps, activity
}

func TestHomeMergesPartialFailure(t *testing.T) {
	svc, simmer, _, activity := dashboardFixture(t)
	simmer.portfolioErr = &upstream.Error{Backend: upstream.BackendSimmer, Path: "/api/sdk/portfolio", Message: "timeout"}

	view, err := svc.Home(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "alpha", view.Owner)
	assert.Nil(t, view.Portfolio)
	assert.False(t, view.OK[model.FacetPortfolio])
	assert.Contains(t, view.Errors[model.FacetPortfolio], "timeout")
	for _, f := range []model.Facet{model.FacetPositions, model.FacetTrades, model.FacetMarkets, model.FacetBriefing, model.FacetExecutions} {
		assert.True(t, view.OK[f], f)
	}

	require.Len(t, view.Positions, 2)
	assert.Equal(t, "c", view.Positions[0].MarketID)
	assert.Equal(t, "a", view.Positions[1].MarketID)

	require.Len(t, view.Trades, 2)
	assert.Equal(t, "t1", view.Trades[0].ID)
	assert.Equal(t, "t3", view.Trades[1].ID)

	require.Len(t, view.ActivityByDay, 2)
	assert.Equal(t, "2026-05-02", view.ActivityByDay[0].Day)

	assert.Len(t, view.Log, 6)
	failed := 0
	for _, e := range activity.List(HomeViewName, 0) {
		if !e.OK {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestHomeIsIdempotent(t *testing.T) {
	svc, _, _, _ := dashboardFixture(t)
	first, err := svc.Home(context.Background())
	require.NoError(t, err)
	second, err := svc.Home(context.Background())
	require.NoError(t, err)

	first.UpdatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	require.Len(t, second.Log, len(first.Log))
	for i := range first.Log {
		first.Log[i].Time, second.Log[i].Time = time.Time{}, time.Time{}
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
}

func TestOwnerOfflineNeverCallsUpstream(t *testing.T) {
	svc, simmer, vps, _ := dashboardFixture(t)
	ctx := context.Background()

	_, err := svc.Owner(ctx, "gamma")
	assert.True(t, upstream.IsOffline(err))
	_, err = svc.OwnerFacet(ctx, "gamma", model.FacetCrons)
	assert.True(t, upstream.IsOffline(err))
	_, err = svc.ToggleCron(ctx, "gamma", "scan", false)
	assert.True(t, upstream.IsOffline(err))
	_, err = svc.PauseBot(ctx, "gamma", "main", true)
	assert.True(t, upstream.IsOffline(err))

	assert.Zero(t, simmer.calls.Load())
	assert.Zero(t, vps.calls.Load())
}

func TestOwnerUnknown(t *testing.T) {
	svc, _, _, _ := dashboardFixture(t)
	_, err := svc.Owner(context.Background(), "delta")
	assert.True(t, errors.Is(err, model.ErrUnknownOwner))
	assert.False(t, upstream.IsOffline(err))
}

func TestOwnerViewIncludesWalletWhenConfigured(t *testing.T) {
	svc, _, vps, _ := dashboardFixture(t)

	view, err := svc.Owner(context.Background(), "alpha")
	require.NoError(t, err)
	require.NotNil(t, view.Wallet)
	assert.Equal(t, "42.5", view.Wallet.Value.String())
	assert.True(t, view.OK[model.FacetCrons])
	assert.JSONEq(t, `{"rank":4}`, string(view.Leaderboard))
	assert.Equal(t, "active", view.Owner.Status)

	view, err = svc.Owner(context.Background(), "beta")
	require.NoError(t, err)
	assert.Nil(t, view.Wallet)
	assert.NotContains(t, view.OK, model.FacetWallet)

	_, err = svc.ToggleCron(context.Background(), "beta", "scan", true)
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, vps.toggled)
}

func TestViewLogOmitsLatency(t *testing.T) {
	log := []model.FacetLog{{View: "home", Facet: model.FacetPortfolio, OK: true, LatencyMs: 42}}
	view := BuildHomeView("alpha", aggregate.Snapshot{}, log, DashboardOptions{})

	require.Len(t, view.Log, 1)
	assert.Zero(t, view.Log[0].LatencyMs)
	assert.Equal(t, int64(42), log[0].LatencyMs)
	raw, err := json.Marshal(view.Log[0])
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "latency_ms")
}
