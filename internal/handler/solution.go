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

// SolutionHandler handles HTTP requests for solution operations.
type SolutionHandler struct {
	svc    *service.SolutionService
	logger *slog.Logger
}

// NewSolutionHandler creates a new SolutionHandler.
func NewSolutionHandler(svc *service.SolutionService, logger *slog.Logger) *SolutionHandler {
	return &SolutionHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /solutions.
func (h *SolutionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing credentials")
		return
	}

	var req dto.CreateSolutionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	solution, err := h.svc.CreateSolution(r.Context(), userID, service.CreateSolutionInput{
		Name:        req.Name,
		Description: req.Description,
		KeyIDs:      req.KeyIDs,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("solution_created",
		"solution_id", solution.ID,
		"user_id", userID,
		"key_count", len(solution.Keys),
	)

	writeJSON(w, http.StatusCreated, dto.ToSolutionResponse(solution))
}

// List handles GET /solutions.
func (h *SolutionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing credentials")
		return
	}

	solutions, err := h.svc.ListSolutions(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSolutionListResponse(solutions))
}

// Env handles GET /solutions/{id}/env.
// This is the only read path that returns secret values.
func (h *SolutionHandler) Env(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing credentials")
		return
	}

	solutionID := chi.URLParam(r, "id")
	if solutionID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Solution ID is required")
		return
	}

	env, err := h.svc.SolutionEnv(r.Context(), userID, solutionID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("env_materialized",
		"solution_id", solutionID,
		"user_id", userID,
		"key_count", len(env),
	)

	writeJSON(w, http.StatusOK, env)
}

// handleServiceError maps service errors to HTTP responses.
func (h *SolutionHandler) handleServiceError(w http.ResponseWriter, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeValidationError(w, ve)
	case errors.Is(err, service.ErrSolutionNotFound):
		writeError(w, http.StatusNotFound, "SOLUTION_NOT_FOUND", "Solution not found")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
