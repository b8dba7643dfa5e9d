// Package gormstore provides a GORM-backed implementation of store.Store.
// It is selected with STORE_DRIVER=gorm and is interchangeable with the
// raw-SQL pgx repository.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/envbox/envbox/internal/model"
	"github.com/envbox/envbox/internal/store"
)

// Store provides database access methods through GORM.
type Store struct {
	db *gorm.DB
}

// New opens a GORM connection and migrates the schema.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{PrepareStmt: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&userRecord{},
		&keyRecord{},
		&solutionRecord{},
		&solutionKeyRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	record := userRecord{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return store.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var record userRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return userModel(&record), nil
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var record userRecord
	err := s.db.WithContext(ctx).First(&record, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return userModel(&record), nil
}

// CreateKey inserts a new key.
func (s *Store) CreateKey(ctx context.Context, key *model.Key) error {
	record := keyRecordFrom(key)
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create key: %w", err)
	}
	return nil
}

// ListKeys retrieves all keys for an owner, newest first.
func (s *Store) ListKeys(ctx context.Context, ownerID string) ([]*model.Key, error) {
	var records []keyRecord
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	keys := make([]*model.Key, len(records))
	for i := range records {
		keys[i] = keyModel(&records[i])
	}
	return keys, nil
}

// RevokeKey marks a key as revoked, scoped by owner. Idempotent.
func (s *Store) RevokeKey(ctx context.Context, ownerID, keyID string) error {
	result := s.db.WithContext(ctx).
		Model(&keyRecord{}).
		Where("id = ? AND owner_id = ?", keyID, ownerID).
		Update("revoked", true)
	if result.Error != nil {
		return fmt.Errorf("failed to revoke key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrKeyNotFound
	}
	return nil
}

// CreateSolution persists the solution and its join rows in one transaction.
// Key ownership is verified inside the transaction; on mismatch nothing is
// persisted and store.ErrKeyOwnershipMismatch is returned.
func (s *Store) CreateSolution(ctx context.Context, solution *model.Solution, keyIDs []string) error {
	var resolved []keyRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("owner_id = ? AND id IN ?", solution.OwnerID, keyIDs).
			Order("created_at DESC, id DESC").
			Find(&resolved).Error; err != nil {
			return fmt.Errorf("failed to resolve keys: %w", err)
		}

		if len(resolved) != len(keyIDs) {
			return store.ErrKeyOwnershipMismatch
		}

		record := solutionRecord{
			ID:          solution.ID,
			Name:        solution.Name,
			Description: solution.Description,
			OwnerID:     solution.OwnerID,
			CreatedAt:   solution.CreatedAt,
			UpdatedAt:   solution.UpdatedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to create solution: %w", err)
		}

		if len(keyIDs) > 0 {
			joins := make([]solutionKeyRecord, len(keyIDs))
			for i, keyID := range keyIDs {
				joins[i] = solutionKeyRecord{SolutionID: solution.ID, KeyID: keyID}
			}
			if err := tx.Create(&joins).Error; err != nil {
				return fmt.Errorf("failed to associate keys: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	solution.Keys = make([]*model.Key, len(resolved))
	for i := range resolved {
		solution.Keys[i] = keyModel(&resolved[i])
	}
	return nil
}

// ListSolutions retrieves all solutions for an owner with member keys resolved.
func (s *Store) ListSolutions(ctx context.Context, ownerID string) ([]*model.Solution, error) {
	var records []solutionRecord
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}

	solutions := make([]*model.Solution, len(records))
	ids := make([]string, len(records))
	for i := range records {
		solutions[i] = solutionModel(&records[i])
		ids[i] = records[i].ID
	}

	if len(ids) == 0 {
		return solutions, nil
	}

	keysBySolution, err := s.memberKeys(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, solution := range solutions {
		solution.Keys = keysBySolution[solution.ID]
	}

	return solutions, nil
}

// GetSolution resolves a single solution with all member keys for an owner.
func (s *Store) GetSolution(ctx context.Context, ownerID, solutionID string) (*model.Solution, error) {
	var record solutionRecord
	err := s.db.WithContext(ctx).
		First(&record, "id = ? AND owner_id = ?", solutionID, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrSolutionNotFound
		}
		return nil, fmt.Errorf("failed to get solution: %w", err)
	}

	solution := solutionModel(&record)

	keysBySolution, err := s.memberKeys(ctx, []string{record.ID})
	if err != nil {
		return nil, err
	}
	solution.Keys = keysBySolution[record.ID]

	return solution, nil
}

// memberKeys loads member keys for a set of solutions in one join query.
func (s *Store) memberKeys(ctx context.Context, solutionIDs []string) (map[string][]*model.Key, error) {
	var rows []memberRow
	err := s.db.WithContext(ctx).
		Table("solution_keys sk").
		Select("sk.solution_id, k.id AS key_id, k.name, k.value, k.description, k.tags, k.revoked, k.owner_id, k.created_at, k.updated_at").
		Joins("JOIN keys k ON k.id = sk.key_id").
		Where("sk.solution_id IN ?", solutionIDs).
		Order("k.created_at DESC, k.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load solution keys: %w", err)
	}

	result := make(map[string][]*model.Key, len(solutionIDs))
	for i := range rows {
		result[rows[i].SolutionID] = append(result[rows[i].SolutionID], rows[i].key())
	}
	return result, nil
}

func userModel(record *userRecord) *model.User {
	return &model.User{
		ID:           record.ID,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}
}

func keyRecordFrom(key *model.Key) *keyRecord {
	return &keyRecord{
		ID:          key.ID,
		Name:        key.Name,
		Value:       key.Value,
		Description: key.Description,
		Tags:        key.Tags,
		Revoked:     key.Revoked,
		OwnerID:     key.OwnerID,
		CreatedAt:   key.CreatedAt,
		UpdatedAt:   key.UpdatedAt,
	}
}

func keyModel(record *keyRecord) *model.Key {
	return &model.Key{
		ID:          record.ID,
		Name:        record.Name,
		Value:       record.Value,
		Description: record.Description,
		Tags:        record.Tags,
		Revoked:     record.Revoked,
		OwnerID:     record.OwnerID,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func solutionModel(record *solutionRecord) *model.Solution {
	return &model.Solution{
		ID:          record.ID,
		Name:        record.Name,
		Description: record.Description,
		OwnerID:     record.OwnerID,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func (r *memberRow) key() *model.Key {
	return &model.Key{
		ID:          r.KeyID,
		Name:        r.Name,
		Value:       r.Value,
		Description: r.Description,
		Tags:        r.Tags,
		Revoked:     r.Revoked,
		OwnerID:     r.OwnerID,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "23505") || strings.Contains(err.Error(), "unique"))
}
