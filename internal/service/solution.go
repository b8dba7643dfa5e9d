package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/envbox/envbox/internal/metrics"
	"github.com/envbox/envbox/internal/model"
	"github.com/envbox/envbox/internal/store"
)

// SolutionService handles solution business logic.
type SolutionService struct {
	store   store.Store
	metrics metrics.Recorder
}

// NewSolutionService creates a new SolutionService.
func NewSolutionService(st store.Store, recorder metrics.Recorder) *SolutionService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SolutionService{store: st, metrics: recorder}
}

// CreateSolutionInput defines input for creating a solution.
type CreateSolutionInput struct {
	Name        string
	Description string
	KeyIDs      []string
}

// CreateSolution validates the input and persists the solution plus its key
// associations atomically. If any key ID does not resolve to a key owned by
// the caller, nothing is persisted and a validation error is returned.
func (s *SolutionService) CreateSolution(ctx context.Context, ownerID string, input CreateSolutionInput) (*model.Solution, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, newValidationError("name", "must not be empty")
	}

	keyIDs := input.KeyIDs
	if keyIDs == nil {
		keyIDs = []string{}
	}

	now := time.Now().UTC()
	solution := &model.Solution{
		ID:          ulid.Make().String(),
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateSolution(ctx, solution, keyIDs); err != nil {
		if errors.Is(err, store.ErrKeyOwnershipMismatch) {
			return nil, newValidationError("keyIds", "invalid key ids")
		}
		return nil, fmt.Errorf("failed to create solution: %w", err)
	}

	s.metrics.IncSolutionCreated()

	return solution, nil
}

// ListSolutions retrieves the owner's solutions with member keys resolved.
func (s *SolutionService) ListSolutions(ctx context.Context, ownerID string) ([]*model.Solution, error) {
	solutions, err := s.store.ListSolutions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}
	return solutions, nil
}

// SolutionEnv materializes the solution's active keys as a name -> value map.
// Revoked keys are excluded even while still joined to the solution.
func (s *SolutionService) SolutionEnv(ctx context.Context, ownerID, solutionID string) (map[string]string, error) {
	solution, err := s.store.GetSolution(ctx, ownerID, solutionID)
	if err != nil {
		if errors.Is(err, store.ErrSolutionNotFound) {
			return nil, ErrSolutionNotFound
		}
		return nil, fmt.Errorf("failed to get solution: %w", err)
	}

	env := solution.Env()

	s.metrics.IncEnvMaterialized()
	s.metrics.ObserveEnvSize(len(env))

	return env, nil
}
