package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/verimail/verimail/internal/auth"
	"github.com/verimail/verimail/internal/cache"
	"github.com/verimail/verimail/internal/metrics"
	"github.com/verimail/verimail/internal/model"
)

// RateLimiter performs the fixed-window admission check.
// *cache.Cache satisfies this.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, token string, limit int, now time.Time) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter
	Metrics metrics.Recorder
	Enabled bool
	// FailOpen admits requests when the limiter backend errors or times
	// out. An explicit over-limit result always rejects regardless.
	FailOpen bool
	// Timeout bounds a single backend call.
	Timeout time.Duration
}

// RateLimit returns middleware that admits requests against the per-minute
// fixed-window limit of the key's tier. Must be applied after Auth.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				// No auth context - should not happen if Auth middleware ran first
				next.ServeHTTP(w, r)
				return
			}

			limit := model.LimitsForTier(authCtx.Tier).RequestsPerMinute
			token := ExtractAPIKey(r)

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			result, err := cfg.Limiter.CheckRateLimit(ctx, token, limit, time.Now())
			cancel()

			if err != nil {
				cfg.Logger.Error("rate limit backend unavailable",
					slog.String("error", err.Error()),
					slog.String("key_id", authCtx.KeyID),
					slog.Bool("fail_open", cfg.FailOpen),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				if cfg.FailOpen {
					next.ServeHTTP(w, r)
					return
				}
				recorder.IncRateLimited()
				writeRateLimitError(w, "Rate limit check unavailable")
				return
			}

			setRateLimitHeaders(w, limit, result.Remaining, result.ResetAt)

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("key_id", authCtx.KeyID),
					slog.String("tier", authCtx.Tier),
					slog.Int64("count", result.Count),
					slog.Int("limit", limit),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncRateLimited()

				retryAfter := int(time.Until(result.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeRateLimitError(w, "Rate limit exceeded for this minute")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}

// writeRateLimitError writes a 429 Too Many Requests response.
func writeRateLimitError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"success":false,"data":null,"error":"` + message + `"}`))
}
