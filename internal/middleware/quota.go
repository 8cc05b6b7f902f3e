package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/verimail/verimail/internal/auth"
	"github.com/verimail/verimail/internal/metrics"
	"github.com/verimail/verimail/internal/quota"
)

// QuotaChecker reports whether a key is within its monthly quota.
// *quota.Enforcer satisfies this.
type QuotaChecker interface {
	Check(ctx context.Context, apiKeyID, tier string) (*quota.Result, error)
}

// QuotaConfig holds configuration for the quota middleware.
type QuotaConfig struct {
	Logger  *slog.Logger
	Quota   QuotaChecker
	Metrics metrics.Recorder
}

// Quota returns middleware that rejects requests over the tier's monthly
// limit. Must be applied after Auth. The rejection is distinct from a rate
// limit rejection so clients can tell a burst from an exhausted plan.
func Quota(cfg QuotaConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Quota.Check(r.Context(), authCtx.KeyID, authCtx.Tier)
			if err != nil {
				// Quota is billing-adjacent and must be exact; a ledger
				// read failure cannot be silently waved through.
				cfg.Logger.Error("quota check failed",
					slog.String("error", err.Error()),
					slog.String("key_id", authCtx.KeyID),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"success":false,"data":null,"error":"Internal Server Error"}`))
				return
			}

			if !result.WithinQuota {
				cfg.Logger.Warn("monthly quota exceeded",
					slog.String("key_id", authCtx.KeyID),
					slog.String("tier", authCtx.Tier),
					slog.Int64("used", result.Used),
					slog.Int("limit", result.Limit),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncQuotaExceeded()

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"data":null,"error":"Monthly usage limit reached"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
