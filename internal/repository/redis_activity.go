package repository

import (
	"context"
	"encoding/json"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisActivitySink mirrors facet log entries into a capped Redis list,
// newest at the head.
type RedisActivitySink struct {
	client  *redis.Client
	listKey string
	listMax int
}

func NewRedisActivitySink(client *RedisClient, listKey string, listMax int) *RedisActivitySink {
	if listKey == "" {
		listKey = "clawdash:activity"
	}
	if listMax <= 0 {
		listMax = 5000
	}
	return &RedisActivitySink{
		client:  client.Client,
		listKey: listKey,
		listMax: listMax,
	}
}

func (r *RedisActivitySink) Push(ctx context.Context, entries []model.FacetLog) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		payload, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		values = append(values, string(payload))
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.listKey, values...)
	pipe.LTrim(ctx, r.listKey, 0, int64(r.listMax-1))
	_, err := pipe.Exec(ctx)
	return err
}

// Recent reads back up to limit entries, newest first.
func (r *RedisActivitySink) Recent(ctx context.Context, limit int) ([]model.FacetLog, error) {
	if limit <= 0 || limit > r.listMax {
		limit = r.listMax
	}
	items, err := r.client.LRange(ctx, r.listKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	results := make([]model.FacetLog, 0, len(items))
	for _, raw := range items {
		var entry model.FacetLog
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		results = append(results, entry)
	}
	return results, nil
}
