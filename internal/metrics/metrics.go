// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Validation pipeline metrics
	IncValidation(status string) // status: "valid" or "invalid"
	ObserveValidationDuration(duration time.Duration)

	// Admission metrics
	IncAuthRejected()
	IncRateLimited()
	IncQuotaExceeded()

	// Ledger metrics
	IncLedgerWriteFailure()

	// MX lookup cache metrics
	IncMXCacheHit()
	IncMXCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
