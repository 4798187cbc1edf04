package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/GoPolymarket/clawdash/internal/config"
	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a reachable Redis, e.g. CLAWDASH_TEST_REDIS_ADDR=localhost:6379.
func testRedis(t *testing.T) *RedisClient {
	t.Helper()
	addr := os.Getenv("CLAWDASH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CLAWDASH_TEST_REDIS_ADDR not set")
	}
	client, err := NewRedisClient(&config.Config{Redis: config.RedisConfig{Addr: addr}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewRedisClientRequiresAddr(t *testing.T) {
	_, err := NewRedisClient(&config.Config{})
	assert.Error(t, err)
}

func TestRedisSessionStoreLifecycle(t *testing.T) {
	client := testRedis(t)
	store := NewRedisSessionStore(client, "clawdash:test:"+uuid.NewString())
	ctx := context.Background()
	id := uuid.NewString()

	ok, err := store.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, id, "operator", time.Minute))
	ok, err = store.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, id))
	ok, err = store.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisActivitySinkCapsList(t *testing.T) {
	client := testRedis(t)
	key := "clawdash:test:activity:" + uuid.NewString()
	sink := NewRedisActivitySink(client, key, 3)
	ctx := context.Background()
	t.Cleanup(func() { client.Client.Del(context.Background(), key) })

	require.NoError(t, sink.Push(ctx, []model.FacetLog{
		{View: "home", Facet: model.FacetPortfolio, OK: true},
		{View: "home", Facet: model.FacetPositions, OK: true},
	}))
	require.NoError(t, sink.Push(ctx, []model.FacetLog{
		{View: "home", Facet: model.FacetTrades, OK: true},
		{View: "home", Facet: model.FacetMarkets, OK: false, Error: "boom"},
	}))

	got, err := sink.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.FacetMarkets, got[0].Facet)
	assert.Equal(t, "boom", got[0].Error)
	assert.Equal(t, model.FacetPositions, got[2].Facet)
}
