// Package store defines the storage-access contract shared by the
// swappable database implementations (pgx and GORM).
package store

import (
	"context"
	"errors"

	"github.com/envbox/envbox/internal/model"
)

// Common errors returned by every Store implementation.
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailExists      = errors.New("email already exists")
	ErrKeyNotFound      = errors.New("key not found")
	ErrSolutionNotFound = errors.New("solution not found")

	// ErrKeyOwnershipMismatch indicates that one or more requested key IDs
	// do not resolve to keys owned by the caller. Returned from inside the
	// solution-creation transaction so nothing is persisted.
	ErrKeyOwnershipMismatch = errors.New("one or more key ids do not belong to the owner")
)

// Store is the storage-access contract. All read and list operations are
// scoped by owner ID; implementations must never return rows belonging to
// another owner.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// Keys
	CreateKey(ctx context.Context, key *model.Key) error
	ListKeys(ctx context.Context, ownerID string) ([]*model.Key, error)
	// RevokeKey marks a key revoked. Idempotent: revoking an already revoked
	// key succeeds. Returns ErrKeyNotFound when the key does not exist or is
	// owned by someone else.
	RevokeKey(ctx context.Context, ownerID, keyID string) error

	// Solutions
	// CreateSolution persists the solution row and its key associations in a
	// single transaction. Ownership of every key ID is verified inside the
	// transaction; on mismatch it returns ErrKeyOwnershipMismatch and
	// persists nothing. On success solution.Keys is populated with the
	// resolved member keys.
	CreateSolution(ctx context.Context, solution *model.Solution, keyIDs []string) error
	ListSolutions(ctx context.Context, ownerID string) ([]*model.Solution, error)
	// GetSolution resolves a solution and all member keys (including revoked
	// ones and secret values) for the given owner.
	GetSolution(ctx context.Context, ownerID, solutionID string) (*model.Solution, error)

	// Ping checks storage connectivity.
	Ping(ctx context.Context) error
	// Close releases the underlying connections.
	Close()
}
