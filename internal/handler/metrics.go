package handler

import (
	"fmt"
	"net/http"

	"github.com/verimail/verimail/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "verimail_validations_total{status=\"valid\"} %d\n", snap.ValidationsValid)
	writeMetric(w, "verimail_validations_total{status=\"invalid\"} %d\n", snap.ValidationsInvalid)
	writeMetric(w, "verimail_validation_duration_seconds_count %d\n", snap.ValidationDurationCount)
	writeMetric(w, "verimail_validation_duration_seconds_sum %.6f\n", float64(snap.ValidationDurationTotalNs)/1e9)

	writeMetric(w, "verimail_auth_rejected_total %d\n", snap.AuthRejected)
	writeMetric(w, "verimail_rate_limited_total %d\n", snap.RateLimited)
	writeMetric(w, "verimail_quota_exceeded_total %d\n", snap.QuotaExceeded)

	writeMetric(w, "verimail_ledger_write_failures_total %d\n", snap.LedgerWriteFailures)

	writeMetric(w, "verimail_mx_cache_total{result=\"hit\"} %d\n", snap.MXCacheHits)
	writeMetric(w, "verimail_mx_cache_total{result=\"miss\"} %d\n", snap.MXCacheMisses)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
