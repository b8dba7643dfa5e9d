package model

import "time"

// User represents an account that owns keys and solutions.
// PasswordHash is set only in local auth mode; remote-mode identities are
// provisioned with an empty hash and authenticate through the external provider.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthContext holds the verified identity for a request.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	UserID string
}
