// Package quota enforces per-month usage limits against the usage ledger.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/verimail/verimail/internal/model"
)

// UsageCounter counts ledger records for a key from a point in time.
// *repository.Repository satisfies this.
type UsageCounter interface {
	CountUsageSince(ctx context.Context, apiKeyID string, since time.Time) (int64, error)
}

// Enforcer computes monthly usage and compares it against tier limits.
type Enforcer struct {
	ledger UsageCounter
	now    func() time.Time
}

// New creates an Enforcer backed by the given ledger.
func New(ledger UsageCounter) *Enforcer {
	return &Enforcer{
		ledger: ledger,
		now:    time.Now,
	}
}

// Result describes the outcome of a quota check.
type Result struct {
	WithinQuota bool
	Used        int64
	Limit       int // model.MonthlyUnlimited when the tier is uncapped
	MonthStart  time.Time
}

// Check reports whether the key is within its tier's monthly quota.
// Unlimited tiers short-circuit without querying the ledger. The quota
// window opens at the first instant of the current calendar month in UTC;
// a record stamped exactly at that boundary counts toward the new month.
func (e *Enforcer) Check(ctx context.Context, apiKeyID, tier string) (*Result, error) {
	limit := model.LimitsForTier(tier).RequestsPerMonth
	if limit == model.MonthlyUnlimited {
		return &Result{WithinQuota: true, Limit: model.MonthlyUnlimited}, nil
	}

	monthStart := MonthStartUTC(e.now())

	used, err := e.ledger.CountUsageSince(ctx, apiKeyID, monthStart)
	if err != nil {
		return nil, fmt.Errorf("count monthly usage: %w", err)
	}

	return &Result{
		WithinQuota: used < int64(limit),
		Used:        used,
		Limit:       limit,
		MonthStart:  monthStart,
	}, nil
}

// MonthStartUTC returns the inclusive start of the calendar month containing
// now, in UTC.
func MonthStartUTC(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
