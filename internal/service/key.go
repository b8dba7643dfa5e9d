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

// KeyService handles key business logic.
type KeyService struct {
	store   store.Store
	metrics metrics.Recorder
}

// NewKeyService creates a new KeyService.
func NewKeyService(st store.Store, recorder metrics.Recorder) *KeyService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &KeyService{store: st, metrics: recorder}
}

// CreateKeyInput defines input for creating a key.
type CreateKeyInput struct {
	Name        string
	Value       string
	Description string
	Tags        []string
}

// CreateKey validates the input and persists a new key for the owner.
func (s *KeyService) CreateKey(ctx context.Context, ownerID string, input CreateKeyInput) (*model.Key, error) {
	fields := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		fields["name"] = "must not be empty"
	}
	if input.Value == "" {
		fields["value"] = "must not be empty"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now().UTC()
	key := &model.Key{
		ID:          ulid.Make().String(),
		Name:        input.Name,
		Value:       input.Value,
		Description: input.Description,
		Tags:        tags,
		Revoked:     false,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateKey(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to create key: %w", err)
	}

	s.metrics.IncKeyCreated()

	return key, nil
}

// ListKeys retrieves the owner's keys, newest first.
func (s *KeyService) ListKeys(ctx context.Context, ownerID string) ([]*model.Key, error) {
	keys, err := s.store.ListKeys(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// RevokeKey marks a key revoked. Re-invoking on an already revoked key
// succeeds; a key that does not exist or is owned by someone else yields
// ErrKeyNotFound.
func (s *KeyService) RevokeKey(ctx context.Context, ownerID, keyID string) error {
	if err := s.store.RevokeKey(ctx, ownerID, keyID); err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		return fmt.Errorf("failed to revoke key: %w", err)
	}

	s.metrics.IncKeyRevoked()

	return nil
}
