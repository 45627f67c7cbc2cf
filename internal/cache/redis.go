// Package cache provides the Redis-backed rate limiter and distributed locks.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix keeps jobquest keys apart when the Redis instance is shared.
const keyPrefix = "jobquest:"

// Cache is the Redis client behind the write-route rate limiter, the
// reconciler lock and the readiness probe.
type Cache struct {
	client *redis.Client
}

// New connects to redisURL and fails fast when Redis does not answer a ping,
// so a misconfigured URL stops startup instead of the first rate-limited write.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Traffic is one EVAL per write request plus the reconciler lock.
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping reports whether Redis answers; it backs /readyz.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the pool. It runs as a server shutdown hook.
func (c *Cache) Close() error {
	return c.client.Close()
}
