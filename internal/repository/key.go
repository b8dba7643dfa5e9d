package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/envbox/envbox/internal/model"
	"github.com/envbox/envbox/internal/store"
)

// CreateKey inserts a new key into the database.
func (r *Repository) CreateKey(ctx context.Context, key *model.Key) error {
	query := `
		INSERT INTO keys (id, name, value, description, tags, revoked, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		key.ID,
		key.Name,
		key.Value,
		key.Description,
		pq.Array(key.Tags),
		key.Revoked,
		key.OwnerID,
		key.CreatedAt,
		key.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create key: %w", err)
	}

	return nil
}

// ListKeys retrieves all keys for an owner, newest first.
// Secret values are loaded; redaction happens at the response layer.
func (r *Repository) ListKeys(ctx context.Context, ownerID string) ([]*model.Key, error) {
	query := `
		SELECT id, name, value, description, tags, revoked, owner_id, created_at, updated_at
		FROM keys
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []*model.Key
	for rows.Next() {
		key, err := scanKeyFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keys: %w", err)
	}

	return keys, nil
}

// RevokeKey marks a key as revoked. The update is scoped by owner so a key
// belonging to someone else reports not-found rather than revealing its
// existence. Re-revoking an already revoked key succeeds.
func (r *Repository) RevokeKey(ctx context.Context, ownerID, keyID string) error {
	query := `
		UPDATE keys
		SET revoked = TRUE, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`

	result, err := r.pool.Exec(ctx, query, keyID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to revoke key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrKeyNotFound
	}

	return nil
}

// scanKeyFromRows scans a row from pgx.Rows into a Key model.
func scanKeyFromRows(rows pgx.Rows) (*model.Key, error) {
	var key model.Key
	var tags []string
	err := rows.Scan(
		&key.ID,
		&key.Name,
		&key.Value,
		&key.Description,
		pq.Array(&tags),
		&key.Revoked,
		&key.OwnerID,
		&key.CreatedAt,
		&key.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	key.Tags = tags
	return &key, nil
}
