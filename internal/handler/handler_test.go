package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHello(t *testing.T) {
	t.Parallel()

	h := New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.Hello(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["service"] != "verimail" {
		t.Errorf("service = %q, want verimail", resp["service"])
	}
	if resp["version"] == "" {
		t.Error("version missing")
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	h := New()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	h.NotFound(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}

	var resp Envelope
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Error("success = true, want false")
	}
	if resp.Error == nil || *resp.Error != "resource not found" {
		t.Errorf("error = %v", resp.Error)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := New()
	req := httptest.NewRequest(http.MethodDelete, "/validate", nil)
	w := httptest.NewRecorder()
	h.MethodNotAllowed(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}
