package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis-backed travel duration cache for multi-process deployments.
// Failures degrade to cache misses; the estimator's fallback covers the rest.
type RedisDurationCache struct {
	client *redis.Client
}

func NewRedisDurationCache(client *redis.Client) *RedisDurationCache {
	return &RedisDurationCache{client: client}
}

func (c *RedisDurationCache) Get(ctx context.Context, key string) (int, bool) {
	seconds, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Debug().Err(err).Str("key", key).Msg("redis duration cache read failed")
		}
		return 0, false
	}
	return seconds, true
}

func (c *RedisDurationCache) Set(ctx context.Context, key string, seconds int, ttl time.Duration) {
	if err := c.client.Set(ctx, key, seconds, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("redis duration cache write failed")
	}
}
