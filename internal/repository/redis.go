package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/GoPolymarket/clawdash/internal/config"
	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{Client: rdb}, nil
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}

// RedisSessionStore keeps live session ids as keys that expire with the
// session, so a restart does not log everyone out.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionStore(client *RedisClient, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = "clawdash:session"
	}
	return &RedisSessionStore{client: client.Client, prefix: prefix}
}

func (s *RedisSessionStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisSessionStore) Save(ctx context.Context, id, username string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(id), username, ttl).Err()
}

func (s *RedisSessionStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}
