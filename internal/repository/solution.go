package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/envbox/envbox/internal/model"
	"github.com/envbox/envbox/internal/store"
)

// CreateSolution inserts a solution and its key associations atomically.
// Ownership of every requested key ID is re-checked inside the transaction;
// a mismatch rolls everything back and returns store.ErrKeyOwnershipMismatch.
func (r *Repository) CreateSolution(ctx context.Context, solution *model.Solution, keyIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Resolve the candidate keys, locked for the duration of the transaction
	// so a concurrent owner change cannot slip past the check.
	rows, err := tx.Query(ctx, `
		SELECT id, name, value, description, tags, revoked, owner_id, created_at, updated_at
		FROM keys
		WHERE owner_id = $1 AND id = ANY($2)
		ORDER BY created_at DESC, id DESC
		FOR SHARE
	`, solution.OwnerID, keyIDs)
	if err != nil {
		return fmt.Errorf("failed to resolve keys: %w", err)
	}

	var keys []*model.Key
	for rows.Next() {
		key, err := scanKeyFromRows(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating keys: %w", err)
	}

	if len(keys) != len(keyIDs) {
		return store.ErrKeyOwnershipMismatch
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO solutions (id, name, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		solution.ID,
		solution.Name,
		solution.Description,
		solution.OwnerID,
		solution.CreatedAt,
		solution.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create solution: %w", err)
	}

	if len(keyIDs) > 0 {
		_, err = tx.Exec(ctx, `
			INSERT INTO solution_keys (solution_id, key_id)
			SELECT $1, unnest($2::text[])
		`, solution.ID, keyIDs)
		if err != nil {
			return fmt.Errorf("failed to associate keys: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	solution.Keys = keys
	return nil
}

// ListSolutions retrieves all solutions for an owner, newest first, with
// their member keys resolved through the solution_keys join.
func (r *Repository) ListSolutions(ctx context.Context, ownerID string) ([]*model.Solution, error) {
	query := `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM solutions
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list solutions: %w", err)
	}
	defer rows.Close()

	var solutions []*model.Solution
	ids := make([]string, 0)
	for rows.Next() {
		solution, err := scanSolutionFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan solution: %w", err)
		}
		solutions = append(solutions, solution)
		ids = append(ids, solution.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating solutions: %w", err)
	}

	if len(solutions) == 0 {
		return solutions, nil
	}

	keysBySolution, err := r.memberKeys(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, solution := range solutions {
		solution.Keys = keysBySolution[solution.ID]
	}

	return solutions, nil
}

// GetSolution resolves a single solution with all member keys for an owner.
func (r *Repository) GetSolution(ctx context.Context, ownerID, solutionID string) (*model.Solution, error) {
	query := `
		SELECT id, name, description, owner_id, created_at, updated_at
		FROM solutions
		WHERE id = $1 AND owner_id = $2
	`

	var solution model.Solution
	err := r.pool.QueryRow(ctx, query, solutionID, ownerID).Scan(
		&solution.ID,
		&solution.Name,
		&solution.Description,
		&solution.OwnerID,
		&solution.CreatedAt,
		&solution.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSolutionNotFound
		}
		return nil, fmt.Errorf("failed to get solution: %w", err)
	}

	keysBySolution, err := r.memberKeys(ctx, []string{solution.ID})
	if err != nil {
		return nil, err
	}
	solution.Keys = keysBySolution[solution.ID]

	return &solution, nil
}

// memberKeys loads the member keys for a set of solutions in one query.
func (r *Repository) memberKeys(ctx context.Context, solutionIDs []string) (map[string][]*model.Key, error) {
	query := `
		SELECT sk.solution_id, k.id, k.name, k.value, k.description, k.tags, k.revoked, k.owner_id, k.created_at, k.updated_at
		FROM solution_keys sk
		JOIN keys k ON k.id = sk.key_id
		WHERE sk.solution_id = ANY($1)
		ORDER BY k.created_at DESC, k.id DESC
	`

	rows, err := r.pool.Query(ctx, query, solutionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load solution keys: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]*model.Key, len(solutionIDs))
	for rows.Next() {
		var solutionID string
		key, err := scanMemberKey(rows, &solutionID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan solution key: %w", err)
		}
		result[solutionID] = append(result[solutionID], key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating solution keys: %w", err)
	}

	return result, nil
}

// scanSolutionFromRows scans a row from pgx.Rows into a Solution model.
func scanSolutionFromRows(rows pgx.Rows) (*model.Solution, error) {
	var solution model.Solution
	err := rows.Scan(
		&solution.ID,
		&solution.Name,
		&solution.Description,
		&solution.OwnerID,
		&solution.CreatedAt,
		&solution.UpdatedAt,
	)
	return &solution, err
}

// scanMemberKey scans a join row carrying the solution ID plus a full key.
func scanMemberKey(rows pgx.Rows, solutionID *string) (*model.Key, error) {
	var key model.Key
	var tags []string
	err := rows.Scan(
		solutionID,
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
