package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/verimail/verimail/internal/model"
)

// Common errors for API key repository operations.
var (
	ErrAPIKeyNotFound = errors.New("API key not found")
)

// CreateAPIKey inserts a new API key into the database.
// The unique index on token rejects duplicate tokens at creation.
func (r *Repository) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	query := `
		INSERT INTO api_keys (id, token, tier, active, label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		key.ID,
		key.Token,
		key.Tier,
		key.Active,
		key.Label,
		key.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}

	return nil
}

// GetAPIKeyByToken retrieves an API key by its opaque token.
// Returns ErrAPIKeyNotFound for unknown tokens; the caller decides what to
// do with an inactive key.
func (r *Repository) GetAPIKeyByToken(ctx context.Context, token string) (*model.APIKey, error) {
	query := `
		SELECT id, token, tier, active, label, created_at
		FROM api_keys
		WHERE token = $1
	`

	return r.scanAPIKey(r.pool.QueryRow(ctx, query, token))
}

// GetAPIKeyByID retrieves an API key by its ID.
func (r *Repository) GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error) {
	query := `
		SELECT id, token, tier, active, label, created_at
		FROM api_keys
		WHERE id = $1
	`

	return r.scanAPIKey(r.pool.QueryRow(ctx, query, id))
}

// ListAPIKeys retrieves all API keys, newest first.
func (r *Repository) ListAPIKeys(ctx context.Context) ([]*model.APIKey, error) {
	query := `
		SELECT id, token, tier, active, label, created_at
		FROM api_keys
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	defer rows.Close()

	var keys []*model.APIKey
	for rows.Next() {
		key, err := scanAPIKeyFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan API key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API keys: %w", err)
	}

	return keys, nil
}

// SetAPIKeyActive toggles the active flag on a key.
// Keys are never hard-deleted; deactivation is the only lifecycle mutation.
func (r *Repository) SetAPIKeyActive(ctx context.Context, id string, active bool) error {
	query := `
		UPDATE api_keys
		SET active = $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to update API key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}

	return nil
}

// scanAPIKey scans a single row into an APIKey model.
func (r *Repository) scanAPIKey(row pgx.Row) (*model.APIKey, error) {
	var key model.APIKey

	err := row.Scan(
		&key.ID,
		&key.Token,
		&key.Tier,
		&key.Active,
		&key.Label,
		&key.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to scan API key: %w", err)
	}

	return &key, nil
}

// scanAPIKeyFromRows scans a row from pgx.Rows into an APIKey model.
func scanAPIKeyFromRows(rows pgx.Rows) (*model.APIKey, error) {
	var key model.APIKey

	err := rows.Scan(
		&key.ID,
		&key.Token,
		&key.Tier,
		&key.Active,
		&key.Label,
		&key.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &key, nil
}
