package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/verimail/verimail/internal/auth"
	"github.com/verimail/verimail/internal/model"
	"github.com/verimail/verimail/internal/verifier"
)

type stubValidator struct {
	result verifier.Result

	lastEmail    string
	lastKeyID    string
	lastClientIP string
}

func (s *stubValidator) Validate(_ context.Context, email, apiKeyID, clientIP string) verifier.Result {
	s.lastEmail = email
	s.lastKeyID = apiKeyID
	s.lastClientIP = clientIP
	r := s.result
	r.Email = email
	return r
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// envelope mirrors Envelope with a concrete data type for decoding.
type resultEnvelope struct {
	Success bool            `json:"success"`
	Data    verifier.Result `json:"data"`
	Error   *string         `json:"error"`
}

func TestValidate(t *testing.T) {
	t.Parallel()

	svc := &stubValidator{result: verifier.Result{
		IsValid:     true,
		SyntaxValid: true,
		MXValid:     true,
		Score:       1.0,
		Message:     "Validation complete",
	}}
	h := NewValidateHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/validate?email=test@example.com", nil)
	req.RemoteAddr = "192.0.2.10:51234"
	req = req.WithContext(auth.ContextWithAuth(req.Context(), &model.AuthContext{KeyID: "key-1", Tier: model.TierFree}))
	w := httptest.NewRecorder()
	h.Validate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp resultEnvelope
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.Error != nil {
		t.Errorf("error = %q, want null", *resp.Error)
	}
	if resp.Data.Email != "test@example.com" || resp.Data.Score != 1.0 {
		t.Errorf("data = %+v", resp.Data)
	}

	if svc.lastKeyID != "key-1" {
		t.Errorf("service called with key %q, want key-1", svc.lastKeyID)
	}
	if svc.lastClientIP != "192.0.2.10" {
		t.Errorf("client IP = %q, want 192.0.2.10 (port stripped)", svc.lastClientIP)
	}
}

func TestValidateMissingEmail(t *testing.T) {
	t.Parallel()

	h := NewValidateHandler(&stubValidator{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	req = req.WithContext(auth.ContextWithAuth(req.Context(), &model.AuthContext{KeyID: "key-1"}))
	w := httptest.NewRecorder()
	h.Validate(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp Envelope
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Error("success = true, want false")
	}
	if resp.Error == nil || *resp.Error != "Missing required query parameter: email" {
		t.Errorf("error = %v", resp.Error)
	}
}

func TestValidateWithoutAuthContext(t *testing.T) {
	t.Parallel()

	h := NewValidateHandler(&stubValidator{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/validate?email=a@b.com", nil)
	w := httptest.NewRecorder()
	h.Validate(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}
