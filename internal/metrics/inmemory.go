package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ValidationsValid          uint64
	ValidationsInvalid        uint64
	ValidationDurationCount   uint64
	ValidationDurationTotalNs int64
	AuthRejected              uint64
	RateLimited               uint64
	QuotaExceeded             uint64
	LedgerWriteFailures       uint64
	MXCacheHits               uint64
	MXCacheMisses             uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	validationsValid          uint64
	validationsInvalid        uint64
	validationDurationCount   uint64
	validationDurationTotalNs int64
	authRejected              uint64
	rateLimited               uint64
	quotaExceeded             uint64
	ledgerWriteFailures       uint64
	mxCacheHits               uint64
	mxCacheMisses             uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ValidationsValid:          atomic.LoadUint64(&m.validationsValid),
		ValidationsInvalid:        atomic.LoadUint64(&m.validationsInvalid),
		ValidationDurationCount:   atomic.LoadUint64(&m.validationDurationCount),
		ValidationDurationTotalNs: atomic.LoadInt64(&m.validationDurationTotalNs),
		AuthRejected:              atomic.LoadUint64(&m.authRejected),
		RateLimited:               atomic.LoadUint64(&m.rateLimited),
		QuotaExceeded:             atomic.LoadUint64(&m.quotaExceeded),
		LedgerWriteFailures:       atomic.LoadUint64(&m.ledgerWriteFailures),
		MXCacheHits:               atomic.LoadUint64(&m.mxCacheHits),
		MXCacheMisses:             atomic.LoadUint64(&m.mxCacheMisses),
	}
}

// IncValidation increments the validation outcome counter.
func (m *InMemoryRecorder) IncValidation(status string) {
	if status == "valid" {
		atomic.AddUint64(&m.validationsValid, 1)
		return
	}
	atomic.AddUint64(&m.validationsInvalid, 1)
}

// ObserveValidationDuration records end-to-end scoring duration.
func (m *InMemoryRecorder) ObserveValidationDuration(duration time.Duration) {
	atomic.AddUint64(&m.validationDurationCount, 1)
	atomic.AddInt64(&m.validationDurationTotalNs, duration.Nanoseconds())
}

// IncAuthRejected increments the auth rejection counter.
func (m *InMemoryRecorder) IncAuthRejected() {
	atomic.AddUint64(&m.authRejected, 1)
}

// IncRateLimited increments the rate-limit rejection counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// IncQuotaExceeded increments the quota rejection counter.
func (m *InMemoryRecorder) IncQuotaExceeded() {
	atomic.AddUint64(&m.quotaExceeded, 1)
}

// IncLedgerWriteFailure increments the ledger write failure counter.
func (m *InMemoryRecorder) IncLedgerWriteFailure() {
	atomic.AddUint64(&m.ledgerWriteFailures, 1)
}

// IncMXCacheHit increments the MX cache hit counter.
func (m *InMemoryRecorder) IncMXCacheHit() {
	atomic.AddUint64(&m.mxCacheHits, 1)
}

// IncMXCacheMiss increments the MX cache miss counter.
func (m *InMemoryRecorder) IncMXCacheMiss() {
	atomic.AddUint64(&m.mxCacheMisses, 1)
}
