// Package auth provides token verification and credential hashing.
package auth

import (
	"context"
	"errors"

	"github.com/envbox/envbox/internal/model"
)

// Verification errors. The auth middleware collapses all of them into one
// generic 401 response so callers cannot tell which check failed.
var (
	// ErrMissingCredential indicates no bearer token was presented.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidToken indicates the token failed signature, expiry, or
	// delegated verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownUser indicates a valid token whose subject has no user row.
	ErrUnknownUser = errors.New("unknown user")
)

// Verifier resolves a bearer token to a verified identity.
// Implementations: LocalVerifier (JWT + user lookup) and RemoteVerifier
// (delegated to an external identity service).
type Verifier interface {
	Verify(ctx context.Context, token string) (*model.AuthContext, error)
}
