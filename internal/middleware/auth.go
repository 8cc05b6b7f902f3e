package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/verimail/verimail/internal/auth"
	"github.com/verimail/verimail/internal/cache"
	"github.com/verimail/verimail/internal/metrics"
	"github.com/verimail/verimail/internal/model"
	"github.com/verimail/verimail/internal/repository"
)

// KeyStore looks up API keys by opaque token.
// *repository.Repository satisfies this.
type KeyStore interface {
	GetAPIKeyByToken(ctx context.Context, token string) (*model.APIKey, error)
}

// AuthCache caches auth contexts between requests.
// *cache.Cache satisfies this. A nil cache disables caching.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, auth *model.AuthContext) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Keys    KeyStore
	Cache   AuthCache
	Metrics metrics.Recorder
}

// Auth returns a middleware that authenticates API requests by opaque
// token. Missing, unknown, and inactive keys all produce the same 403
// response to prevent token probing. On success the auth context is
// injected into the request context for the downstream admission checks.
//
// Cached auth contexts mean an admin deactivation may stay invisible for
// up to the cache TTL; the Key Store contract allows eventual visibility.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractAPIKey(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_key"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				recorder.IncAuthRejected()
				writeAuthError(w)
				return
			}

			// Check cache first
			cacheKey := cache.AuthCacheKey(token)
			var authCtx *model.AuthContext
			if cfg.Cache != nil {
				authCtx, _ = cfg.Cache.GetAuthContext(r.Context(), cacheKey)
			}

			if authCtx == nil {
				key, err := cfg.Keys.GetAPIKeyByToken(r.Context(), token)
				if err != nil {
					if !errors.Is(err, repository.ErrAPIKeyNotFound) {
						cfg.Logger.Error("database error during auth",
							slog.String("error", err.Error()),
							slog.String("request_id", GetRequestID(r.Context())),
						)
					} else {
						cfg.Logger.Warn("authentication failed",
							slog.String("reason", "unknown_key"),
							slog.String("ip", r.RemoteAddr),
							slog.String("endpoint", r.Method+" "+r.URL.Path),
							slog.String("request_id", GetRequestID(r.Context())),
						)
					}
					recorder.IncAuthRejected()
					writeAuthError(w)
					return
				}

				if !key.Active {
					cfg.Logger.Warn("authentication failed",
						slog.String("reason", "inactive_key"),
						slog.String("key_id", key.ID),
						slog.String("request_id", GetRequestID(r.Context())),
					)
					recorder.IncAuthRejected()
					writeAuthError(w)
					return
				}

				authCtx = &model.AuthContext{
					KeyID: key.ID,
					Tier:  key.Tier,
				}

				if cfg.Cache != nil {
					_ = cfg.Cache.SetAuthContext(r.Context(), cacheKey, authCtx)
				}
			}

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractAPIKey extracts the API key token from the request.
// Supports both "x-api-key: <token>" and "Authorization: Bearer <token>".
func ExtractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// writeAuthError writes a 403 response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"success":false,"data":null,"error":"Invalid or missing API key"}`))
}
