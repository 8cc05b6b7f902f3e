package model

import "time"

// UsageRecord represents a single validation event in the usage ledger.
// Records are append-only: never mutated or deleted after creation.
type UsageRecord struct {
	ID       string `json:"id"` // ULID (time-sortable)
	Email    string `json:"email"`
	APIKeyID string `json:"api_key_id,omitempty"` // Empty for orphaned records
	ClientIP string `json:"client_ip,omitempty"`

	Timestamp time.Time `json:"timestamp"` // Event time, immutable
}

// UsageSummary aggregates ledger activity for a key over a period.
type UsageSummary struct {
	APIKeyID   string    `json:"api_key_id"`
	MonthStart time.Time `json:"month_start"`
	Count      int64     `json:"count"`
	Limit      int       `json:"limit"` // MonthlyUnlimited when the tier is uncapped
}
