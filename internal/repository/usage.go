package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/verimail/verimail/internal/model"
)

// AppendUsageRecord inserts a single usage record into the ledger.
// The ledger is append-only; there is no update or delete path.
func (r *Repository) AppendUsageRecord(ctx context.Context, record *model.UsageRecord) error {
	query := `
		INSERT INTO usage_logs (id, email, api_key_id, client_ip, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.Email,
		nullableString(record.APIKeyID),
		nullableString(record.ClientIP),
		record.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}

	return nil
}

// CountUsageSince returns the exact number of usage records for a key with
// timestamp >= since. Quota enforcement is billing-adjacent, so this is a
// real COUNT(*), not an estimate.
func (r *Repository) CountUsageSince(ctx context.Context, apiKeyID string, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM usage_logs
		WHERE api_key_id = $1 AND created_at >= $2
	`

	var count int64
	if err := r.pool.QueryRow(ctx, query, apiKeyID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}

	return count, nil
}

// ListUsageByKey retrieves usage records for a key within a time range,
// newest first. Used by the admin surface, not the validation pipeline.
func (r *Repository) ListUsageByKey(ctx context.Context, apiKeyID string, from, to time.Time, limit int) ([]*model.UsageRecord, error) {
	query := `
		SELECT id, email, COALESCE(api_key_id, ''), COALESCE(client_ip, ''), created_at
		FROM usage_logs
		WHERE api_key_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, apiKeyID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	defer rows.Close()

	var records []*model.UsageRecord
	for rows.Next() {
		var record model.UsageRecord
		if err := rows.Scan(
			&record.ID,
			&record.Email,
			&record.APIKeyID,
			&record.ClientIP,
			&record.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage records: %w", err)
	}

	return records, nil
}

// nullableString returns nil for empty strings.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
