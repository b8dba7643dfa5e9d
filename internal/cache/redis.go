// Package cache holds the Redis-backed pieces of the request path: the
// token-verification cache and the rate limiter. All Redis access goes
// through methods on Cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Idle connections are recycled after this long without use.
const connMaxIdleTime = 5 * time.Minute

// Options tunes the Redis connection pool. Zero values keep the client
// defaults.
type Options struct {
	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration
}

// Cache wraps a single Redis client shared by the auth cache and the
// rate limiter.
type Cache struct {
	client *redis.Client
}

// New connects to Redis at redisURL, applies the pool options, and fails
// fast if the server is unreachable.
func New(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if opts.PoolSize > 0 {
		opt.PoolSize = opts.PoolSize
	}
	if opts.MinIdleConns > 0 {
		opt.MinIdleConns = opts.MinIdleConns
	}
	if opts.PoolTimeout > 0 {
		opt.PoolTimeout = opts.PoolTimeout
	}
	opt.ConnMaxIdleTime = connMaxIdleTime

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
