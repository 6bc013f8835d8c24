package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coursebuilder/backend/internal/apperrors"
	"github.com/coursebuilder/backend/internal/models"
)

type universeRepository struct {
	db *sql.DB
}

// NewUniverseRepository creates a new universe repository
func NewUniverseRepository(db *sql.DB) *universeRepository {
	return &universeRepository{
		db: db,
	}
}

// GetAll retrieves all universes ordered by name
func (r *universeRepository) GetAll(ctx context.Context) ([]models.Universe, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM universes
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query universes: %w", err)
	}
	defer rows.Close()

	universes := make([]models.Universe, 0)
	for rows.Next() {
		var u models.Universe
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan universe: %w", err)
		}
		universes = append(universes, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return universes, nil
}

// GetByID retrieves a universe by its ID
func (r *universeRepository) GetByID(ctx context.Context, id int) (*models.Universe, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM universes
		WHERE id = ?
		LIMIT 1
	`

	var u models.Universe
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: universe %d not found", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get universe by id: %w", err)
	}

	return &u, nil
}

// Create creates a new universe, filling in its ID
func (r *universeRepository) Create(ctx context.Context, universe *models.Universe) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO universes (name, created_at, updated_at) VALUES (?, ?, ?)`,
		universe.Name, universe.CreatedAt, universe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create universe: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	universe.ID = int(id)
	return nil
}

// Update renames a universe
func (r *universeRepository) Update(ctx context.Context, universe *models.Universe) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE universes SET name = ?, updated_at = ? WHERE id = ?`,
		universe.Name, universe.UpdatedAt, universe.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update universe: %w", err)
	}
	return nil
}

// Delete deletes a universe.
//
// A universe that still has courses assigned cannot be deleted and yields a conflict.
func (r *universeRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM universes WHERE id = ?`, id)
	if err != nil {
		translated := translateMySQLError(err, "delete universe")
		if apperrors.KindOf(translated) == apperrors.KindConflict {
			return fmt.Errorf("%w: universe %d still has courses assigned", apperrors.ErrConflict, id)
		}
		return translated
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: universe %d not found", apperrors.ErrNotFound, id)
	}

	return nil
}
