// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/envbox/envbox/internal/model"
)

// CreateKeyRequest represents the request body for creating a key.
type CreateKeyRequest struct {
	Name        string   `json:"name"`
	Value       string   `json:"value"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// KeyResponse represents a key in list responses. It never carries the
// secret value or the revocation flag.
type KeyResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreatedKeyResponse is the create echo. This is the only response outside
// the env path that carries the secret value.
type CreatedKeyResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
	Revoked     bool      `json:"revoked"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MessageResponse is a simple confirmation payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ValidationErrorResponse carries field-level validation failures.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

// ToKeyResponse converts a Key model to its redacted list form.
func ToKeyResponse(key *model.Key) KeyResponse {
	tags := key.Tags
	if tags == nil {
		tags = []string{}
	}
	return KeyResponse{
		ID:          key.ID,
		Name:        key.Name,
		Description: key.Description,
		Tags:        tags,
		CreatedAt:   key.CreatedAt,
		UpdatedAt:   key.UpdatedAt,
	}
}

// ToKeyListResponse converts a slice of Key models to list form.
func ToKeyListResponse(keys []*model.Key) []KeyResponse {
	responses := make([]KeyResponse, len(keys))
	for i, key := range keys {
		responses[i] = ToKeyResponse(key)
	}
	return responses
}

// ToCreatedKeyResponse converts a freshly created Key to the create echo.
func ToCreatedKeyResponse(key *model.Key) *CreatedKeyResponse {
	tags := key.Tags
	if tags == nil {
		tags = []string{}
	}
	return &CreatedKeyResponse{
		ID:          key.ID,
		Name:        key.Name,
		Value:       key.Value,
		Description: key.Description,
		Tags:        tags,
		Revoked:     key.Revoked,
		OwnerID:     key.OwnerID,
		CreatedAt:   key.CreatedAt,
		UpdatedAt:   key.UpdatedAt,
	}
}
