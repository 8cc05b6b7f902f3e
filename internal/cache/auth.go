package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/verimail/verimail/internal/model"
)

const (
	// authCachePrefix is the Redis key prefix for auth context cache.
	authCachePrefix = "auth:ctx:"
	// authCacheTTL bounds how long a deactivation can remain invisible to
	// the gateway. The Key Store contract only promises eventual visibility
	// of admin toggles, so a short TTL is acceptable.
	authCacheTTL = 1 * time.Minute
)

// CachedAuthContext represents auth context stored in Redis.
type CachedAuthContext struct {
	KeyID string `json:"key_id"`
	Tier  string `json:"tier"`
}

// GetAuthContext retrieves a cached auth context by hashed token.
// Returns nil if not found (cache miss).
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	key := authCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached CachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		KeyID: cached.KeyID,
		Tier:  cached.Tier,
	}, nil
}

// SetAuthContext caches an auth context.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error {
	key := authCachePrefix + cacheKey

	cached := CachedAuthContext{
		KeyID: auth.KeyID,
		Tier:  auth.Tier,
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	return c.client.Set(ctx, key, data, authCacheTTL).Err()
}

// DeleteAuthContext removes a cached auth context.
// Used when a key is deactivated to shorten the visibility window.
func (c *Cache) DeleteAuthContext(ctx context.Context, cacheKey string) error {
	key := authCachePrefix + cacheKey
	return c.client.Del(ctx, key).Err()
}

// AuthCacheKey derives the cache key for a plaintext token.
func AuthCacheKey(token string) string {
	return hashToken(token)
}
