package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/envbox/envbox/internal/auth"
	"github.com/envbox/envbox/internal/handler/dto"
	"github.com/envbox/envbox/internal/service"
)

// KeyHandler handles HTTP requests for key operations.
type KeyHandler struct {
	svc    *service.KeyService
	logger *slog.Logger
}

// NewKeyHandler creates a new KeyHandler.
func NewKeyHandler(svc *service.KeyService, logger *slog.Logger) *KeyHandler {
	return &KeyHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /keys.
// The response echoes the stored value once; list responses never carry it.
func (h *KeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing credentials")
		return
	}

	var req dto.CreateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	key, err := h.svc.CreateKey(r.Context(), userID, service.CreateKeyInput{
		Name:        req.Name,
		Value:       req.Value,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("key_created",
		"key_id", key.ID,
		"user_id", userID,
		"tag_count", len(key.Tags),
	)

	writeJSON(w, http.StatusCreated, dto.ToCreatedKeyResponse(key))
}

// List handles GET /keys.
func (h *KeyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing credentials")
		return
	}

	keys, err := h.svc.ListKeys(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToKeyListResponse(keys))
}

// Revoke handles POST /keys/{id}/revoke.
func (h *KeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing credentials")
		return
	}

	keyID := chi.URLParam(r, "id")
	if keyID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Key ID is required")
		return
	}

	if err := h.svc.RevokeKey(r.Context(), userID, keyID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("key_revoked", "key_id", keyID, "user_id", userID)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "key revoked"})
}

// handleServiceError maps service errors to HTTP responses.
func (h *KeyHandler) handleServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeValidationError(w, ve)
	case errors.Is(err, service.ErrKeyNotFound):
		writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "Key not found")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
