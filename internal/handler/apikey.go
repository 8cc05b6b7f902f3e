package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/verimail/verimail/internal/auth"
	"github.com/verimail/verimail/internal/cache"
	"github.com/verimail/verimail/internal/model"
	"github.com/verimail/verimail/internal/quota"
	"github.com/verimail/verimail/internal/repository"
)

// APIKeyStore is the repository surface the admin handlers need.
// *repository.Repository satisfies this.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]*model.APIKey, error)
	SetAPIKeyActive(ctx context.Context, id string, active bool) error
	CountUsageSince(ctx context.Context, apiKeyID string, since time.Time) (int64, error)
}

// AuthCacheInvalidator evicts cached auth contexts after a toggle.
// *cache.Cache satisfies this. Nil disables eviction.
type AuthCacheInvalidator interface {
	DeleteAuthContext(ctx context.Context, cacheKey string) error
}

// APIKeyHandler handles the admin API key management endpoints.
// These are the collaborator interfaces consumed by the (out of scope)
// admin surface; the gateway pipeline itself never mutates keys.
type APIKeyHandler struct {
	logger *slog.Logger
	store  APIKeyStore
	cache  AuthCacheInvalidator
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(logger *slog.Logger, store APIKeyStore, cache AuthCacheInvalidator) *APIKeyHandler {
	return &APIKeyHandler{
		logger: logger,
		store:  store,
		cache:  cache,
	}
}

// CreateAPIKey handles POST /admin/api-keys.
func (h *APIKeyHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.APIKeyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelopeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Tier == "" {
		req.Tier = model.TierFree
	}
	if !slices.Contains(model.ValidTiers, req.Tier) {
		writeEnvelopeError(w, http.StatusBadRequest,
			"Invalid tier: "+req.Tier+". Valid tiers: free, basic, pro, unlimited")
		return
	}

	token, err := auth.GenerateToken()
	if err != nil {
		h.logger.Error("failed to generate token", slog.String("error", err.Error()))
		writeEnvelopeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	apiKey := &model.APIKey{
		ID:        uuid.New().String(),
		Token:     token,
		Tier:      req.Tier,
		Active:    true,
		Label:     req.Label,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.CreateAPIKey(ctx, apiKey); err != nil {
		h.logger.Error("failed to create API key", slog.String("error", err.Error()))
		writeEnvelopeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.logger.Info("API key created",
		slog.String("key_id", apiKey.ID),
		slog.String("tier", apiKey.Tier),
	)

	// The token is returned exactly once.
	writeEnvelope(w, http.StatusCreated, model.APIKeyCreateResponse{
		ID:        apiKey.ID,
		Token:     token,
		Tier:      apiKey.Tier,
		Active:    apiKey.Active,
		Label:     apiKey.Label,
		CreatedAt: apiKey.CreatedAt,
	})
}

// ListAPIKeys handles GET /admin/api-keys.
func (h *APIKeyHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.store.ListAPIKeys(r.Context())
	if err != nil {
		h.logger.Error("failed to list API keys", slog.String("error", err.Error()))
		writeEnvelopeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	responses := make([]model.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, key.ToResponse())
	}

	writeEnvelope(w, http.StatusOK, responses)
}

// UpdateAPIKey handles PATCH /admin/api-keys/{key_id}.
// The only supported mutation is toggling the active flag.
func (h *APIKeyHandler) UpdateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	keyID := chi.URLParam(r, "key_id")

	var req model.APIKeyUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Active == nil {
		writeEnvelopeError(w, http.StatusBadRequest, "Request body must set \"active\"")
		return
	}

	if err := h.store.SetAPIKeyActive(ctx, keyID, *req.Active); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			writeEnvelopeError(w, http.StatusNotFound, "API key not found")
			return
		}
		h.logger.Error("failed to update API key", slog.String("error", err.Error()))
		writeEnvelopeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	key, err := h.store.GetAPIKeyByID(ctx, keyID)
	if err != nil {
		h.logger.Error("failed to reload API key", slog.String("error", err.Error()))
		writeEnvelopeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	// Evict the cached auth context so a deactivation takes effect before
	// the cache TTL would expire it.
	if h.cache != nil {
		_ = h.cache.DeleteAuthContext(ctx, cache.AuthCacheKey(key.Token))
	}

	h.logger.Info("API key updated",
		slog.String("key_id", key.ID),
		slog.Bool("active", key.Active),
	)

	writeEnvelope(w, http.StatusOK, key.ToResponse())
}

// GetUsage handles GET /admin/api-keys/{key_id}/usage.
// Returns the key's exact usage count for the current calendar month.
func (h *APIKeyHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	keyID := chi.URLParam(r, "key_id")

	key, err := h.store.GetAPIKeyByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			writeEnvelopeError(w, http.StatusNotFound, "API key not found")
			return
		}
		h.logger.Error("failed to load API key", slog.String("error", err.Error()))
		writeEnvelopeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	monthStart := quota.MonthStartUTC(time.Now())
	count, err := h.store.CountUsageSince(ctx, key.ID, monthStart)
	if err != nil {
		h.logger.Error("failed to count usage", slog.String("error", err.Error()))
		writeEnvelopeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeEnvelope(w, http.StatusOK, model.UsageSummary{
		APIKeyID:   key.ID,
		MonthStart: monthStart,
		Count:      count,
		Limit:      key.Limits().RequestsPerMonth,
	})
}
