package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// rateLimitPrefix is the Redis key prefix for per-key rate limit windows.
	rateLimitPrefix = "ratelimit:apikey:"
	// windowSeconds is the fixed window length. Counts reset at aligned
	// wall-clock minute boundaries, so a burst of up to 2x the limit can
	// straddle a window edge. That is a documented trade-off of the fixed
	// window strategy, not a defect.
	windowSeconds = 60
)

// RateLimitResult contains the outcome of a fixed-window admission check.
type RateLimitResult struct {
	Allowed   bool
	Count     int64 // Post-increment count in the current window
	Remaining int64
	ResetAt   time.Time // Start of the next window
}

// fixedWindowScript atomically increments the window counter and arms its
// expiry when this caller is the first writer in the window. Running both
// operations in one script closes the gap where a crash between INCR and
// EXPIRE would leave a counter with no TTL.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[1])
	end
	return count
`)

// CheckRateLimit performs a fixed-window admission check for an API key
// token against its tier's per-minute limit. The counter key is derived
// from a hash of the token and the current minute bucket.
//
// A Redis error is reported to the caller; the admission policy for backend
// failures (fail-open vs fail-closed) is decided by the middleware, not here.
func (c *Cache) CheckRateLimit(ctx context.Context, token string, limit int, now time.Time) (*RateLimitResult, error) {
	bucket := WindowBucket(now)
	key := rateLimitPrefix + hashToken(token) + ":" + bucket

	count, err := fixedWindowScript.Run(ctx, c.client, []string{key}, windowSeconds).Int64()
	if err != nil {
		return nil, err
	}

	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitResult{
		Allowed:   count <= int64(limit),
		Count:     count,
		Remaining: remaining,
		ResetAt:   NextWindowStart(now),
	}, nil
}

// WindowBucket returns the fixed-window bucket identifier for a point in
// time: the number of whole minutes since the Unix epoch.
func WindowBucket(now time.Time) string {
	return strconv.FormatInt(now.Unix()/windowSeconds, 10)
}

// NextWindowStart returns the instant the current window ends.
func NextWindowStart(now time.Time) time.Time {
	next := (now.Unix()/windowSeconds + 1) * windowSeconds
	return time.Unix(next, 0).UTC()
}

// hashToken creates a truncated SHA256 hash of a token. Tokens are secrets;
// only the hash appears in Redis keys.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
