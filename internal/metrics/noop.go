package metrics

import "time"

// NoopRecorder discards all metric events.
type NoopRecorder struct{}

// NewNoop returns a Recorder that does nothing.
func NewNoop() *NoopRecorder {
	return &NoopRecorder{}
}

func (*NoopRecorder) IncValidation(string)                  {}
func (*NoopRecorder) ObserveValidationDuration(time.Duration) {}
func (*NoopRecorder) IncAuthRejected()                      {}
func (*NoopRecorder) IncRateLimited()                       {}
func (*NoopRecorder) IncQuotaExceeded()                     {}
func (*NoopRecorder) IncLedgerWriteFailure()                {}
func (*NoopRecorder) IncMXCacheHit()                        {}
func (*NoopRecorder) IncMXCacheMiss()                       {}
