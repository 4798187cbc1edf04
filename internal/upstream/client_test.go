package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds map[string]model.Credential

func (s staticCreds) Resolve(ownerID string) (model.Credential, error) {
	cred, ok := s[ownerID]
	if !ok {
		return model.Credential{}, model.ErrUnknownOwner
	}
	if !cred.Configured() {
		return model.Credential{}, model.ErrOwnerNotConfigured
	}
	return cred, nil
}

var testCreds = staticCreds{
	"alpha":   {APIKey: "sk-alpha"},
	"pending": {},
}

func TestFetchJSONSendsNoStore(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	raw, err := NewClient(time.Second).FetchJSON(context.Background(), BackendVPS, srv.URL+"/", "/api/x", Options{
		Headers: map[string]string{"X-API-Key": "k"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(raw))
	assert.Equal(t, "no-store", got.Get("Cache-Control"))
	assert.Equal(t, "k", got.Get("X-API-Key"))
}

func TestFetchJSONMapsStatusAndNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"detail":"short and stout"}`))
	}))
	client := NewClient(time.Second)

	_, err := client.FetchJSON(context.Background(), BackendSimmer, srv.URL, "/x", Options{})
	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusTeapot, upErr.Status)
	assert.Equal(t, "short and stout", upErr.Message)
	assert.False(t, IsOffline(err))

	srv.Close()
	_, err = client.FetchJSON(context.Background(), BackendSimmer, srv.URL, "/x", Options{})
	require.ErrorAs(t, err, &upErr)
	assert.Zero(t, upErr.Status)
}

func TestFetchJSONDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(time.Second).FetchJSON(context.Background(), BackendVPS, srv.URL, "/x", Options{})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchJSONTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewClient(20*time.Millisecond).FetchJSON(context.Background(), BackendVPS, srv.URL, "/slow", Options{})
	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Zero(t, upErr.Status)
}

func TestSimmerOfflineShortCircuits(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	s := NewSimmer(NewClient(time.Second), srv.URL, testCreds)
	_, err := s.Portfolio(context.Background(), "pending")
	assert.True(t, IsOffline(err))
	assert.ErrorIs(t, err, ErrOffline)
	_, err = s.Trades(context.Background(), "pending", 10)
	assert.True(t, IsOffline(err))

	_, err = s.Portfolio(context.Background(), "ghost")
	assert.ErrorIs(t, err, model.ErrUnknownOwner)
	assert.False(t, IsOffline(err))

	v := NewVPS(NewClient(time.Second), srv.URL, "vps", testCreds)
	_, err = v.Crons(context.Background(), "pending")
	assert.True(t, IsOffline(err))

	assert.Zero(t, hits.Load())
}

func TestSimmerUsesOwnerKeyAndDecodesWrappedLists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-alpha", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case simmerTradesPath:
			assert.Equal(t, "150", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`[{"id":"t1","venue":"polymarket","price":"0.42","fee":"0.01"}]`))
		case simmerPositionsPath:
			_, _ = w.Write([]byte(`{"positions":[{"market_id":"m","pnl":"-1.25"}],"count":1}`))
		}
	}))
	defer srv.Close()

	s := NewSimmer(NewClient(time.Second), srv.URL, testCreds)
	trades, err := s.Trades(context.Background(), "alpha", 150)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "0.42", trades[0].Price.String())
	encoded, err := json.Marshal(trades[0])
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"fee":"0.01"`)

	positions, err := s.Positions(context.Background(), "alpha")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "-1.25", positions[0].PnL.String())
}

func TestVPSWriteProxies(t *testing.T) {
	type call struct {
		Path string
		Key  string
		Body map[string]any
	}
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, call{Path: r.URL.EscapedPath(), Key: r.Header.Get(HeaderVPSKey), Body: body})
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	v := NewVPS(NewClient(time.Second), srv.URL, "vps-key", testCreds)
	ctx := context.Background()
	_, err := v.ToggleCron(ctx, "alpha", "daily scan", true)
	require.NoError(t, err)
	_, err = v.RunCron(ctx, "alpha", "daily scan")
	require.NoError(t, err)
	_, err = v.PauseBot(ctx, "alpha", "weather", false)
	require.NoError(t, err)

	require.Len(t, calls, 3)
	assert.Equal(t, "/api/owners/alpha/crons/daily%20scan/toggle", calls[0].Path)
	assert.Equal(t, map[string]any{"enabled": true}, calls[0].Body)
	assert.Equal(t, "vps-key", calls[0].Key)
	assert.Equal(t, map[string]any{}, calls[1].Body)
	assert.Equal(t, "/api/owners/alpha/bots/weather/pause", calls[2].Path)
	assert.Equal(t, map[string]any{"paused": false}, calls[2].Body)
}

func TestVPSWithoutBaseURL(t *testing.T) {
	v := NewVPS(NewClient(time.Second), "", "", testCreds)
	_, err := v.Executions(context.Background())
	var upErr *Error
	require.True(t, errors.As(err, &upErr))
}

func TestDecodeList(t *testing.T) {
	items, err := decodeList[model.Trade](json.RawMessage(`null`), "trades")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = decodeList[model.Trade](json.RawMessage(`{"other":[]}`), "trades")
	require.NoError(t, err)
	assert.NotNil(t, items)

	_, err = decodeList[model.Trade](json.RawMessage(`"nope"`), "trades")
	assert.Error(t, err)
}
