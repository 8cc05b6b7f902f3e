package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// AdminTokenHeader carries the admin capability token.
const AdminTokenHeader = "X-Admin-Token"

// AdminAuth returns middleware guarding the admin surface with a static
// capability token. The token travels explicitly in a header rather than in
// ambient session state. An empty configured token rejects everything; the
// router should not mount admin routes in that case.
func AdminAuth(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get(AdminTokenHeader)

			if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				logger.Warn("admin authentication failed",
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"success":false,"data":null,"error":"Invalid or missing admin token"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
