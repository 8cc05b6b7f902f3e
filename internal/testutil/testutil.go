// Package testutil provides shared helpers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/verimail/verimail/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 530530

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops and recreates the full schema for tests.
// Migrations are applied down in reverse order, then up in order.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	root, err := ProjectRoot()
	if err != nil {
		return err
	}

	migrations := []string{"000001_api_keys", "000002_usage_logs"}

	for i := len(migrations) - 1; i >= 0; i-- {
		if err := applyMigration(ctx, pool, root, migrations[i]+".down.sql"); err != nil {
			return err
		}
	}
	for _, name := range migrations {
		if err := applyMigration(ctx, pool, root, name+".up.sql"); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, root, file string) error {
	path := filepath.Join(root, "migrations", file)

	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file, err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("apply migration %s: %w", file, err)
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestAPIKey creates a test API key with sensible defaults.
func NewTestAPIKey(t testing.TB) *model.APIKey {
	t.Helper()
	now := time.Now().UTC()
	return &model.APIKey{
		ID:        fmt.Sprintf("key-%d", now.UnixNano()),
		Token:     fmt.Sprintf("tok-%d", now.UnixNano()),
		Tier:      model.TierFree,
		Active:    true,
		Label:     "Test Key",
		CreatedAt: now,
	}
}

// NewTestAPIKeyWithTier creates a test API key with a specific tier.
func NewTestAPIKeyWithTier(t testing.TB, tier string) *model.APIKey {
	t.Helper()
	key := NewTestAPIKey(t)
	key.Tier = tier
	return key
}

// NewTestUsageRecord creates a usage record owned by the given key.
func NewTestUsageRecord(t testing.TB, apiKeyID string, at time.Time) *model.UsageRecord {
	t.Helper()
	return &model.UsageRecord{
		ID:        fmt.Sprintf("usage-%d", time.Now().UnixNano()),
		Email:     "test@example.com",
		APIKeyID:  apiKeyID,
		ClientIP:  "192.0.2.10",
		Timestamp: at,
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
