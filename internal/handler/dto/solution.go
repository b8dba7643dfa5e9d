package dto

import (
	"time"

	"github.com/envbox/envbox/internal/model"
)

// CreateSolutionRequest represents the request body for creating a solution.
type CreateSolutionRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	KeyIDs      []string `json:"keyIds"`
}

// SolutionKeyResponse is the redacted form of a member key.
type SolutionKeyResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SolutionResponse represents a solution in API responses. Member keys are
// always redacted to id/name/description.
type SolutionResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Keys        []SolutionKeyResponse `json:"keys"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

// ToSolutionResponse converts a Solution model to its response form.
// Redaction of member keys is the model's job; the DTO only reshapes it.
func ToSolutionResponse(solution *model.Solution) *SolutionResponse {
	refs := solution.KeyRefs()
	keys := make([]SolutionKeyResponse, len(refs))
	for i, ref := range refs {
		keys[i] = SolutionKeyResponse(ref)
	}
	return &SolutionResponse{
		ID:          solution.ID,
		Name:        solution.Name,
		Description: solution.Description,
		Keys:        keys,
		CreatedAt:   solution.CreatedAt,
		UpdatedAt:   solution.UpdatedAt,
	}
}

// ToSolutionListResponse converts a slice of Solution models to list form.
func ToSolutionListResponse(solutions []*model.Solution) []SolutionResponse {
	responses := make([]SolutionResponse, len(solutions))
	for i, solution := range solutions {
		responses[i] = *ToSolutionResponse(solution)
	}
	return responses
}
