//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verimail/verimail/internal/model"
	"github.com/verimail/verimail/internal/testutil"
)

func setupRepo(t *testing.T) (*Repository, context.Context) {
	t.Helper()

	databaseURL := testutil.RequireEnv(t, "TEST_DATABASE_URL")

	ctx := context.Background()
	repo, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect database: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		if err := unlock(); err != nil {
			t.Errorf("release db lock: %v", err)
		}
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return repo, ctx
}

func TestAPIKeyLifecycle(t *testing.T) {
	repo, ctx := setupRepo(t)

	key := testutil.NewTestAPIKeyWithTier(t, model.TierBasic)
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}

	byToken, err := repo.GetAPIKeyByToken(ctx, key.Token)
	if err != nil {
		t.Fatalf("GetAPIKeyByToken: %v", err)
	}
	if byToken.ID != key.ID || byToken.Tier != model.TierBasic || !byToken.Active {
		t.Errorf("GetAPIKeyByToken = %+v", byToken)
	}

	byID, err := repo.GetAPIKeyByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKeyByID: %v", err)
	}
	if byID.Token != key.Token {
		t.Errorf("token = %q, want %q", byID.Token, key.Token)
	}

	if err := repo.SetAPIKeyActive(ctx, key.ID, false); err != nil {
		t.Fatalf("SetAPIKeyActive: %v", err)
	}
	toggled, err := repo.GetAPIKeyByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKeyByID after toggle: %v", err)
	}
	if toggled.Active {
		t.Error("key still active after SetAPIKeyActive(false)")
	}

	keys, err := repo.ListAPIKeys(ctx)
	if err != nil {
		t.Fatalf("ListAPIKeys: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("ListAPIKeys returned %d keys, want 1", len(keys))
	}
}

func TestGetAPIKeyByTokenNotFound(t *testing.T) {
	repo, ctx := setupRepo(t)

	_, err := repo.GetAPIKeyByToken(ctx, "no-such-token")
	if !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("err = %v, want ErrAPIKeyNotFound", err)
	}
}

func TestSetAPIKeyActiveNotFound(t *testing.T) {
	repo, ctx := setupRepo(t)

	err := repo.SetAPIKeyActive(ctx, "no-such-key", false)
	if !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("err = %v, want ErrAPIKeyNotFound", err)
	}
}

func TestUsageLedger(t *testing.T) {
	repo, ctx := setupRepo(t)

	key := testutil.NewTestAPIKey(t)
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}

	monthStart := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)

	stamps := []struct {
		name string
		at   time.Time
	}{
		{"previous month", monthStart.Add(-1 * time.Second)},
		{"exactly at boundary", monthStart},
		{"mid month", monthStart.AddDate(0, 0, 14)},
	}
	for _, s := range stamps {
		record := testutil.NewTestUsageRecord(t, key.ID, s.at)
		record.ID = testutil.UniqueID(s.name)
		if err := repo.AppendUsageRecord(ctx, record); err != nil {
			t.Fatalf("AppendUsageRecord (%s): %v", s.name, err)
		}
	}

	// The boundary record counts toward the new month; the older one does not.
	count, err := repo.CountUsageSince(ctx, key.ID, monthStart)
	if err != nil {
		t.Fatalf("CountUsageSince: %v", err)
	}
	if count != 2 {
		t.Errorf("CountUsageSince = %d, want 2", count)
	}

	records, err := repo.ListUsageByKey(ctx, key.ID, monthStart, monthStart.AddDate(0, 1, 0), 10)
	if err != nil {
		t.Fatalf("ListUsageByKey: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListUsageByKey returned %d records, want 2", len(records))
	}
	if records[0].Timestamp.Before(records[1].Timestamp) {
		t.Error("records not ordered newest first")
	}
}

func TestAppendUsageRecordWithoutKey(t *testing.T) {
	repo, ctx := setupRepo(t)

	// Orphaned records carry no key reference and no client IP.
	record := &model.UsageRecord{
		ID:        testutil.UniqueID("usage"),
		Email:     "test@example.com",
		Timestamp: time.Now().UTC(),
	}
	if err := repo.AppendUsageRecord(ctx, record); err != nil {
		t.Fatalf("AppendUsageRecord: %v", err)
	}
}
