// Package testutil provides test doubles shared by service and handler tests.
package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/envbox/envbox/internal/model"
	"github.com/envbox/envbox/internal/store"
)

// FakeStore is an in-memory store.Store implementation for tests.
// It honors the same semantics as the real implementations: owner scoping,
// idempotent revocation, all-or-nothing solution creation, and newest-first
// ordering.
type FakeStore struct {
	mu        sync.Mutex
	users     map[string]*model.User
	keys      map[string]*model.Key
	solutions map[string]*model.Solution
	members   map[string][]string // solution ID -> key IDs

	// Err, when set, is returned from every operation. Lets tests exercise
	// storage-failure paths.
	Err error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		users:     make(map[string]*model.User),
		keys:      make(map[string]*model.Key),
		solutions: make(map[string]*model.Solution),
		members:   make(map[string][]string),
	}
}

// CreateUser stores a user, enforcing email uniqueness.
func (f *FakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

// GetUserByID retrieves a user by ID.
func (f *FakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail retrieves a user by email.
func (f *FakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// CreateKey stores a key.
func (f *FakeStore) CreateKey(_ context.Context, key *model.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	cp := *key
	f.keys[key.ID] = &cp
	return nil
}

// ListKeys returns the owner's keys, newest first.
func (f *FakeStore) ListKeys(_ context.Context, ownerID string) ([]*model.Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var out []*model.Key
	for _, k := range f.keys {
		if k.OwnerID == ownerID {
			cp := *k
			out = append(out, &cp)
		}
	}
	sortKeysNewestFirst(out)
	return out, nil
}

// RevokeKey marks a key revoked, scoped by owner. Idempotent.
func (f *FakeStore) RevokeKey(_ context.Context, ownerID, keyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	k, ok := f.keys[keyID]
	if !ok || k.OwnerID != ownerID {
		return store.ErrKeyNotFound
	}
	k.Revoked = true
	return nil
}

// CreateSolution stores the solution and its memberships atomically.
func (f *FakeStore) CreateSolution(_ context.Context, solution *model.Solution, keyIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}

	// Duplicate IDs resolve to fewer rows than requested in the real
	// stores, so they fail the same way as unknown or foreign keys.
	resolved := make([]*model.Key, 0, len(keyIDs))
	seen := make(map[string]struct{}, len(keyIDs))
	for _, id := range keyIDs {
		k, ok := f.keys[id]
		if !ok || k.OwnerID != solution.OwnerID {
			return store.ErrKeyOwnershipMismatch
		}
		if _, dup := seen[id]; dup {
			return store.ErrKeyOwnershipMismatch
		}
		seen[id] = struct{}{}
		cp := *k
		resolved = append(resolved, &cp)
	}

	cp := *solution
	f.solutions[solution.ID] = &cp
	f.members[solution.ID] = append([]string(nil), keyIDs...)
	solution.Keys = resolved
	return nil
}

// ListSolutions returns the owner's solutions with member keys resolved,
// newest first.
func (f *FakeStore) ListSolutions(_ context.Context, ownerID string) ([]*model.Solution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	var out []*model.Solution
	for _, s := range f.solutions {
		if s.OwnerID == ownerID {
			out = append(out, f.resolveLocked(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// GetSolution resolves a solution and its member keys for the owner.
func (f *FakeStore) GetSolution(_ context.Context, ownerID, solutionID string) (*model.Solution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	s, ok := f.solutions[solutionID]
	if !ok || s.OwnerID != ownerID {
		return nil, store.ErrSolutionNotFound
	}
	return f.resolveLocked(s), nil
}

// Ping reports connectivity; fails when Err is set.
func (f *FakeStore) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Err
}

// Close is a no-op.
func (f *FakeStore) Close() {}

// resolveLocked copies a solution with its current member keys attached.
// Callers must hold f.mu.
func (f *FakeStore) resolveLocked(s *model.Solution) *model.Solution {
	cp := *s
	ids := f.members[s.ID]
	cp.Keys = make([]*model.Key, 0, len(ids))
	for _, id := range ids {
		if k, ok := f.keys[id]; ok {
			kcp := *k
			cp.Keys = append(cp.Keys, &kcp)
		}
	}
	sortKeysNewestFirst(cp.Keys)
	return &cp
}

func sortKeysNewestFirst(keys []*model.Key) {
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].CreatedAt.Equal(keys[j].CreatedAt) {
			return keys[i].CreatedAt.After(keys[j].CreatedAt)
		}
		return keys[i].ID > keys[j].ID
	})
}
