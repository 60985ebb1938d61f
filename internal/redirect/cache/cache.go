// Package cache implements the redirect service's code→URL cache.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "url:"

	// TTL bounds staleness if a registry-level correction ever bypasses
	// the event path. Matches the bus retention horizon.
	TTL = 7 * 24 * time.Hour
)

// Cache maps short codes to original URLs. Absence is a valid state, not
// an error: Get returns "" on a miss. Writes are last-write-wins, so
// replaying the same creation event any number of times leaves the cache
// in the same state.
type Cache interface {
	// Get retrieves the original URL for a code, or "" on a miss.
	Get(ctx context.Context, code string) (string, error)

	// Set stores code → originalURL with the standard TTL.
	Set(ctx context.Context, code, originalURL string) error
}

// Compile-time interface check
var _ Cache = (*RedisCache)(nil)

// RedisCache implements Cache on Redis. The cache is a performance
// optimization, not a source of truth: read errors degrade to a miss and
// write errors are logged and swallowed.
type RedisCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRedisCache creates a Redis-backed cache.
func NewRedisCache(rdb *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		rdb:    rdb,
		logger: logger,
	}
}

func cacheKey(code string) string {
	return keyPrefix + code
}

// Get retrieves the original URL for a code.
func (c *RedisCache) Get(ctx context.Context, code string) (string, error) {
	val, err := c.rdb.Get(ctx, cacheKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		c.logger.Warn("cache read failed, treating as miss",
			zap.String("code", code),
			zap.Error(err),
		)
		return "", nil
	}
	return val, nil
}

// Set stores the mapping with the standard TTL.
func (c *RedisCache) Set(ctx context.Context, code, originalURL string) error {
	if err := c.rdb.Set(ctx, cacheKey(code), originalURL, TTL).Err(); err != nil {
		c.logger.Warn("cache write failed",
			zap.String("code", code),
			zap.Error(err),
		)
	}
	return nil
}
