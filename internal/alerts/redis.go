package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "odds-edge-bot:alert:"

// RedisDeduper shares alert cooldowns across bot instances with SET NX and
// a TTL equal to the cooldown.
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisDeduper creates a RedisDeduper backed by rdb.
func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

// Allow claims key for the TTL. It returns false if another caller holds it.
// A zero TTL disables suppression, since SET NX without expiry would hold the
// key forever.
func (d *RedisDeduper) Allow(ctx context.Context, key string) (bool, error) {
	if d.ttl <= 0 {
		return true, nil
	}
	ok, err := d.rdb.SetNX(ctx, keyPrefix+key, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: claim alert %s: %w", key, err)
	}
	return ok, nil
}

// ConnectRedis parses a redis:// URL and verifies the server answers.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

var _ Deduper = (*RedisDeduper)(nil)
