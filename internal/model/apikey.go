// Package model defines domain entities for the application.
package model

import "time"

// Tier constants. Every key belongs to exactly one tier.
const (
	TierFree      = "free"
	TierBasic     = "basic"
	TierPro       = "pro"
	TierUnlimited = "unlimited"
)

// ValidTiers contains all valid tier values.
var ValidTiers = []string{TierFree, TierBasic, TierPro, TierUnlimited}

// MonthlyUnlimited disables the monthly quota check for a tier.
const MonthlyUnlimited = -1

// TierLimit defines the admission limits for a tier.
type TierLimit struct {
	RequestsPerMinute int
	RequestsPerMonth  int // MonthlyUnlimited disables the monthly check
}

// TierLimits is the single authoritative limit table. Every tier has a
// non-zero per-minute limit; only the monthly limit may be unlimited.
var TierLimits = map[string]TierLimit{
	TierFree:      {RequestsPerMinute: 60, RequestsPerMonth: 500},
	TierBasic:     {RequestsPerMinute: 120, RequestsPerMonth: 5000},
	TierPro:       {RequestsPerMinute: 300, RequestsPerMonth: 25000},
	TierUnlimited: {RequestsPerMinute: 1200, RequestsPerMonth: MonthlyUnlimited},
}

// LimitsForTier returns the limits for a tier, falling back to the free
// tier for unknown values.
func LimitsForTier(tier string) TierLimit {
	if limit, ok := TierLimits[tier]; ok {
		return limit
	}
	return TierLimits[TierFree]
}

// APIKey represents an API key entity. The token is immutable once issued;
// keys are deactivated by clearing Active, never hard-deleted.
type APIKey struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"` // Never serialize
	Tier      string    `json:"tier"`
	Active    bool      `json:"active"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Limits returns the admission limits for this key's tier.
func (k *APIKey) Limits() TierLimit {
	return LimitsForTier(k.Tier)
}

// AuthContext holds authenticated request context.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	KeyID string
	Tier  string
}

// APIKeyCreateRequest represents a request to create a new API key.
type APIKeyCreateRequest struct {
	Tier  string `json:"tier,omitempty"`
	Label string `json:"label,omitempty"`
}

// APIKeyUpdateRequest toggles the active flag on a key.
type APIKeyUpdateRequest struct {
	Active *bool `json:"active"`
}

// APIKeyResponse represents an API key without its token.
type APIKeyResponse struct {
	ID        string    `json:"id"`
	Tier      string    `json:"tier"`
	Active    bool      `json:"active"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts an APIKey to APIKeyResponse.
func (k *APIKey) ToResponse() APIKeyResponse {
	return APIKeyResponse{
		ID:        k.ID,
		Tier:      k.Tier,
		Active:    k.Active,
		Label:     k.Label,
		CreatedAt: k.CreatedAt,
	}
}

// APIKeyCreateResponse includes the plaintext token (shown only once).
type APIKeyCreateResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"` // Plaintext - display once only!
	Tier      string    `json:"tier"`
	Active    bool      `json:"active"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
