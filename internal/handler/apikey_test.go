package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/verimail/verimail/internal/model"
	"github.com/verimail/verimail/internal/repository"
)

// memKeyStore is an in-memory APIKeyStore.
type memKeyStore struct {
	keys       map[string]*model.APIKey
	usageCount int64
}

func newMemKeyStore() *memKeyStore {
	return &memKeyStore{keys: make(map[string]*model.APIKey)}
}

func (s *memKeyStore) CreateAPIKey(_ context.Context, key *model.APIKey) error {
	s.keys[key.ID] = key
	return nil
}

func (s *memKeyStore) GetAPIKeyByID(_ context.Context, id string) (*model.APIKey, error) {
	key, ok := s.keys[id]
	if !ok {
		return nil, repository.ErrAPIKeyNotFound
	}
	return key, nil
}

func (s *memKeyStore) ListAPIKeys(_ context.Context) ([]*model.APIKey, error) {
	keys := make([]*model.APIKey, 0, len(s.keys))
	for _, key := range s.keys {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *memKeyStore) SetAPIKeyActive(_ context.Context, id string, active bool) error {
	key, ok := s.keys[id]
	if !ok {
		return repository.ErrAPIKeyNotFound
	}
	key.Active = active
	return nil
}

func (s *memKeyStore) CountUsageSince(_ context.Context, _ string, _ time.Time) (int64, error) {
	return s.usageCount, nil
}

type memInvalidator struct {
	deleted []string
}

func (m *memInvalidator) DeleteAuthContext(_ context.Context, cacheKey string) error {
	m.deleted = append(m.deleted, cacheKey)
	return nil
}

func newAPIKeyRouter(store *memKeyStore, invalidator *memInvalidator) http.Handler {
	h := NewAPIKeyHandler(testLogger(), store, invalidator)

	r := chi.NewRouter()
	r.Route("/admin/api-keys", func(r chi.Router) {
		r.Get("/", h.ListAPIKeys)
		r.Post("/", h.CreateAPIKey)
		r.Patch("/{key_id}", h.UpdateAPIKey)
		r.Get("/{key_id}/usage", h.GetUsage)
	})
	return r
}

type createEnvelope struct {
	Success bool                       `json:"success"`
	Data    model.APIKeyCreateResponse `json:"data"`
	Error   *string                    `json:"error"`
}

func TestCreateAPIKey(t *testing.T) {
	t.Parallel()

	store := newMemKeyStore()
	router := newAPIKeyRouter(store, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys",
		strings.NewReader(`{"tier":"pro","label":"partner"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", w.Code, w.Body.String())
	}

	var resp createEnvelope
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.Data.Tier != model.TierPro || resp.Data.Label != "partner" || !resp.Data.Active {
		t.Errorf("data = %+v", resp.Data)
	}
	if len(resp.Data.Token) != 32 {
		t.Errorf("token length = %d, want 32", len(resp.Data.Token))
	}

	stored, ok := store.keys[resp.Data.ID]
	if !ok {
		t.Fatal("key not persisted")
	}
	if stored.Token != resp.Data.Token {
		t.Error("persisted token differs from returned token")
	}
}

func TestCreateAPIKeyDefaultsToFree(t *testing.T) {
	t.Parallel()

	router := newAPIKeyRouter(newMemKeyStore(), nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/api-keys", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	var resp createEnvelope
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.Tier != model.TierFree {
		t.Errorf("tier = %q, want free", resp.Data.Tier)
	}
}

func TestCreateAPIKeyRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"invalid tier", `{"tier":"platinum"}`},
		{"malformed json", `{tier}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newAPIKeyRouter(newMemKeyStore(), nil)
			req := httptest.NewRequest(http.MethodPost, "/admin/api-keys", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestListAPIKeysOmitsTokens(t *testing.T) {
	t.Parallel()

	store := newMemKeyStore()
	store.keys["key-1"] = &model.APIKey{ID: "key-1", Token: "super-secret", Tier: model.TierFree, Active: true}
	router := newAPIKeyRouter(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/api-keys", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "super-secret") {
		t.Error("token leaked in list response")
	}
}

func TestUpdateAPIKey(t *testing.T) {
	t.Parallel()

	store := newMemKeyStore()
	store.keys["key-1"] = &model.APIKey{ID: "key-1", Token: "tok", Tier: model.TierFree, Active: true}
	invalidator := &memInvalidator{}
	router := newAPIKeyRouter(store, invalidator)

	req := httptest.NewRequest(http.MethodPatch, "/admin/api-keys/key-1",
		strings.NewReader(`{"active":false}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}
	if store.keys["key-1"].Active {
		t.Error("key still active after PATCH")
	}
	if len(invalidator.deleted) != 1 {
		t.Errorf("auth cache evicted %d times, want 1", len(invalidator.deleted))
	}
}

func TestUpdateAPIKeyValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"unknown key", "/admin/api-keys/missing", `{"active":false}`, http.StatusNotFound},
		{"missing active field", "/admin/api-keys/key-1", `{}`, http.StatusBadRequest},
		{"malformed body", "/admin/api-keys/key-1", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemKeyStore()
			store.keys["key-1"] = &model.APIKey{ID: "key-1", Token: "tok", Active: true}
			router := newAPIKeyRouter(store, nil)

			req := httptest.NewRequest(http.MethodPatch, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

type usageEnvelope struct {
	Success bool               `json:"success"`
	Data    model.UsageSummary `json:"data"`
	Error   *string            `json:"error"`
}

func TestGetUsage(t *testing.T) {
	t.Parallel()

	store := newMemKeyStore()
	store.keys["key-1"] = &model.APIKey{ID: "key-1", Tier: model.TierBasic, Active: true}
	store.usageCount = 1234
	router := newAPIKeyRouter(store, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/api-keys/key-1/usage", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", w.Code, w.Body.String())
	}

	var resp usageEnvelope
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.APIKeyID != "key-1" {
		t.Errorf("APIKeyID = %q", resp.Data.APIKeyID)
	}
	if resp.Data.Count != 1234 {
		t.Errorf("Count = %d, want 1234", resp.Data.Count)
	}
	if resp.Data.Limit != model.TierLimits[model.TierBasic].RequestsPerMonth {
		t.Errorf("Limit = %d", resp.Data.Limit)
	}
	if resp.Data.MonthStart.Day() != 1 {
		t.Errorf("MonthStart = %v, want first of month", resp.Data.MonthStart)
	}
}

func TestGetUsageUnknownKey(t *testing.T) {
	t.Parallel()

	router := newAPIKeyRouter(newMemKeyStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/api-keys/missing/usage", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
