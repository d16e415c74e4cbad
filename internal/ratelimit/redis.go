package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "authrl:"

// RedisStore keeps fixed-window counters in Redis so the limit holds across
// API replicas. Keys expire with the window, which also bounds memory.
type RedisStore struct {
	client *redis.Client
	cfg    Config
}

// NewRedisStore creates a Redis-backed store. Non-positive config values
// fall back to the defaults.
func NewRedisStore(client *redis.Client, cfg Config) *RedisStore {
	return &RedisStore{client: client, cfg: cfg.withDefaults()}
}

// Admit increments the key's counter, starting the window on the first hit.
// The passed-in clock is ignored; window expiry is driven by key TTL on the
// Redis server.
func (s *RedisStore) Admit(ctx context.Context, key string, _ time.Time) (Decision, error) {
	redisKey := redisKeyPrefix + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, s.cfg.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	if count <= int64(s.cfg.MaxAttempts) {
		return Decision{Allowed: true}, nil
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		// Counter without expiry (e.g. Expire was lost); report a full window
		ttl = s.cfg.Window
	}
	return Decision{RetryAfter: retryAfterSeconds(ttl)}, nil
}
