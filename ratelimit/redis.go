package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "ranking:submit:"

// RedisStore shares submission keys across every instance through SET NX with
// a TTL equal to the cooldown.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL parses a redis:// URL and builds a store on a new client.
func NewRedisStoreFromURL(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts)), nil
}

// Acquire ignores now: expiry is tracked by the redis server clock.
func (r *RedisStore) Acquire(ctx context.Context, key SubmissionKey, now time.Time, cooldown time.Duration) (bool, error) {
	// a zero TTL would make SETNX keep the key forever
	if cooldown <= 0 {
		return true, nil
	}
	ok, err := r.client.SetNX(ctx, redisKeyPrefix+key.String(), now.UnixMilli(), cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
