// Package model defines domain entities for the application.
package model

import "time"

// Key represents a named secret value owned by a single user.
// The value is write-once: after creation the only mutation is revocation.
type Key struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Value       string    `json:"-"` // Never serialize directly
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags"`
	Revoked     bool      `json:"revoked"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsActive reports whether the key participates in env materialization.
func (k *Key) IsActive() bool {
	return !k.Revoked
}

// KeyRef is the redacted form of a key used when keys are embedded in
// solution responses. It carries no secret material.
type KeyRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Ref returns the redacted reference form of the key.
func (k *Key) Ref() KeyRef {
	return KeyRef{
		ID:          k.ID,
		Name:        k.Name,
		Description: k.Description,
	}
}
