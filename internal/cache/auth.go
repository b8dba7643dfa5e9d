package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/envbox/envbox/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for verified-token cache.
	authCachePrefix = "auth:token:"
	// authCacheTTL bounds how long a verified token skips re-verification.
	// Kept short so revoked tokens and deleted users age out quickly.
	authCacheTTL = 5 * time.Minute
)

// cachedAuthContext represents a verified identity stored in Redis.
type cachedAuthContext struct {
	UserID string `json:"user_id"`
}

// GetAuthContext retrieves a cached verified identity by cache key
// (a hash of the token, never the token itself).
// Returns nil if not found (cache miss).
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	key := authCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached cachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	if cached.UserID == "" {
		return nil, nil
	}

	return &model.AuthContext{UserID: cached.UserID}, nil
}

// SetAuthContext caches a verified identity.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error {
	key := authCachePrefix + cacheKey

	data, err := json.Marshal(cachedAuthContext{UserID: auth.UserID})
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	return c.client.Set(ctx, key, data, authCacheTTL).Err()
}

// DeleteAuthContext removes a cached verified identity.
func (c *Cache) DeleteAuthContext(ctx context.Context, cacheKey string) error {
	key := authCachePrefix + cacheKey
	return c.client.Del(ctx, key).Err()
}
