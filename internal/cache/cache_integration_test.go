//go:build integration

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/verimail/verimail/internal/model"
	"github.com/verimail/verimail/internal/testutil"
)

func setupCache(t *testing.T) (*Cache, context.Context) {
	t.Helper()

	redisURL := testutil.RequireEnv(t, "TEST_REDIS_URL")

	ctx := context.Background()
	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return c, ctx
}

func TestCheckRateLimit(t *testing.T) {
	c, ctx := setupCache(t)

	const limit = 5
	now := time.Now()
	token := testutil.UniqueID("tok")

	for i := 1; i <= limit; i++ {
		result, err := c.CheckRateLimit(ctx, token, limit, now)
		if err != nil {
			t.Fatalf("CheckRateLimit #%d: %v", i, err)
		}
		if !result.Allowed {
			t.Fatalf("request %d rejected, want allowed", i)
		}
		if result.Count != int64(i) {
			t.Errorf("count = %d, want %d", result.Count, i)
		}
		if result.Remaining != int64(limit-i) {
			t.Errorf("remaining = %d, want %d", result.Remaining, limit-i)
		}
	}

	result, err := c.CheckRateLimit(ctx, token, limit, now)
	if err != nil {
		t.Fatalf("CheckRateLimit over limit: %v", err)
	}
	if result.Allowed {
		t.Error("request over limit admitted")
	}
	if result.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", result.Remaining)
	}
}

func TestCheckRateLimitNewWindow(t *testing.T) {
	c, ctx := setupCache(t)

	token := testutil.UniqueID("tok")
	now := time.Now()

	for i := 0; i < 3; i++ {
		if _, err := c.CheckRateLimit(ctx, token, 2, now); err != nil {
			t.Fatalf("CheckRateLimit: %v", err)
		}
	}

	// A later window gets a fresh counter.
	result, err := c.CheckRateLimit(ctx, token, 2, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("CheckRateLimit in next window: %v", err)
	}
	if !result.Allowed || result.Count != 1 {
		t.Errorf("next window result = %+v, want fresh count 1", result)
	}
}

func TestCheckRateLimitConcurrent(t *testing.T) {
	c, ctx := setupCache(t)

	const (
		workers = 20
		perWork = 5
		limit   = workers * perWork
	)
	token := testutil.UniqueID("tok")
	now := time.Now()

	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				if _, err := c.CheckRateLimit(ctx, token, limit+1, now); err != nil {
					errCh <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("CheckRateLimit: %v", err)
	}

	// The INCR script is atomic, so the final count is exact.
	result, err := c.CheckRateLimit(ctx, token, limit+1, now)
	if err != nil {
		t.Fatalf("CheckRateLimit final: %v", err)
	}
	if result.Count != int64(limit+1) {
		t.Errorf("final count = %d, want %d", result.Count, limit+1)
	}
}

func TestAuthContextCache(t *testing.T) {
	c, ctx := setupCache(t)

	cacheKey := AuthCacheKey(testutil.UniqueID("tok"))

	got, err := c.GetAuthContext(ctx, cacheKey)
	if err != nil {
		t.Fatalf("GetAuthContext: %v", err)
	}
	if got != nil {
		t.Fatalf("cold cache returned %+v, want nil", got)
	}

	want := &model.AuthContext{KeyID: "key-1", Tier: model.TierPro}
	if err := c.SetAuthContext(ctx, cacheKey, want); err != nil {
		t.Fatalf("SetAuthContext: %v", err)
	}

	got, err = c.GetAuthContext(ctx, cacheKey)
	if err != nil {
		t.Fatalf("GetAuthContext after set: %v", err)
	}
	if got == nil || got.KeyID != want.KeyID || got.Tier != want.Tier {
		t.Errorf("GetAuthContext = %+v, want %+v", got, want)
	}

	if err := c.DeleteAuthContext(ctx, cacheKey); err != nil {
		t.Fatalf("DeleteAuthContext: %v", err)
	}
	got, err = c.GetAuthContext(ctx, cacheKey)
	if err != nil {
		t.Fatalf("GetAuthContext after delete: %v", err)
	}
	if got != nil {
		t.Errorf("entry survived delete: %+v", got)
	}
}
