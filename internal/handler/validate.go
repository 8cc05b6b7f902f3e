package handler

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/verimail/verimail/internal/auth"
	"github.com/verimail/verimail/internal/verifier"
)

// EmailValidator runs the scoring-and-logging tail of the pipeline.
// *service.ValidationService satisfies this.
type EmailValidator interface {
	Validate(ctx context.Context, email, apiKeyID, clientIP string) verifier.Result
}

// ValidateHandler serves the email validation endpoint.
type ValidateHandler struct {
	service EmailValidator
	logger  *slog.Logger
}

// NewValidateHandler creates a new ValidateHandler.
func NewValidateHandler(service EmailValidator, logger *slog.Logger) *ValidateHandler {
	return &ValidateHandler{
		service: service,
		logger:  logger,
	}
}

// Validate handles GET /validate?email=<address>.
// Admission (auth, rate, quota) has already happened in middleware by the
// time this runs; a malformed address is a scored result, not an error.
func (h *ValidateHandler) Validate(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeEnvelopeError(w, http.StatusBadRequest, "Missing required query parameter: email")
		return
	}

	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		// Auth middleware was not applied; treat as unauthenticated.
		writeEnvelopeError(w, http.StatusForbidden, "Invalid or missing API key")
		return
	}

	result := h.service.Validate(r.Context(), email, authCtx.KeyID, clientIP(r))

	writeEnvelope(w, http.StatusOK, result)
}

// clientIP strips the port from RemoteAddr. The RealIP middleware has
// already folded proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
