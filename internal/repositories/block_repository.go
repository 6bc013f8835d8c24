package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coursebuilder/backend/internal/apperrors"
	"github.com/coursebuilder/backend/internal/models"
)

const blockColumns = `b.id, b.type, b.headline, b.description, b.content, b.created_at, b.updated_at`

type blockRepository struct {
	db *sql.DB
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(db *sql.DB) *blockRepository {
	return &blockRepository{
		db: db,
	}
}

// GetByID retrieves a block by its ID together with its usage count
func (r *blockRepository) GetByID(ctx context.Context, id int) (*models.BlockListItem, error) {
	query := `
		SELECT ` + blockColumns + `,
			(SELECT COUNT(*) FROM step_blocks sb WHERE sb.block_id = b.id) AS usage_count
		FROM blocks b
		WHERE b.id = ?
		LIMIT 1
	`

	var item models.BlockListItem
	block, err := scanBlock(r.db.QueryRowContext(ctx, query, id), &item.UsageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: block %d not found", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block by id: %w", err)
	}

	item.Block = *block
	return &item, nil
}

// GetAll retrieves all blocks ordered by ID, each with its usage count
func (r *blockRepository) GetAll(ctx context.Context) ([]models.BlockListItem, error) {
	query := `
		SELECT ` + blockColumns + `, COUNT(sb.id) AS usage_count
		FROM blocks b
		LEFT JOIN step_blocks sb ON sb.block_id = b.id
		GROUP BY b.id
		ORDER BY b.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocks: %w", err)
	}
	defer rows.Close()

	items := make([]models.BlockListItem, 0)
	for rows.Next() {
		var item models.BlockListItem
		block, err := scanBlock(rows, &item.UsageCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		item.Block = *block
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// GetUnused retrieves blocks that no step references
func (r *blockRepository) GetUnused(ctx context.Context) ([]models.Block, error) {
	query := `
		SELECT ` + blockColumns + `
		FROM blocks b
		LEFT JOIN step_blocks sb ON sb.block_id = b.id
		WHERE sb.id IS NULL
		ORDER BY b.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query unused blocks: %w", err)
	}
	defer rows.Close()

	blocks := make([]models.Block, 0)
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		blocks = append(blocks, *block)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return blocks, nil
}

// Create creates a new block, filling in its ID
func (r *blockRepository) Create(ctx context.Context, block *models.Block) error {
	return insertBlock(ctx, r.db, block)
}

// Update overwrites type, headline, description and content of a block.
//
// Rows affected counts matched rows (clientFoundRows), so zero means the block is gone.
func (r *blockRepository) Update(ctx context.Context, block *models.Block) error {
	content, err := json.Marshal(block.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal block content: %w", err)
	}

	query := `
		UPDATE blocks
		SET type = ?, headline = ?, description = ?, content = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		block.Type,
		block.Headline,
		nullString(block.Description),
		string(content),
		block.UpdatedAt,
		block.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update block: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: block %d not found", apperrors.ErrNotFound, block.ID)
	}

	return nil
}

// GetDeleteCheck retrieves the headline and the number of step references of a block
func (r *blockRepository) GetDeleteCheck(ctx context.Context, id int) (*models.DeleteBlockCheck, error) {
	query := `
		SELECT b.headline, COUNT(sb.id)
		FROM blocks b
		LEFT JOIN step_blocks sb ON sb.block_id = b.id
		WHERE b.id = ?
		GROUP BY b.id, b.headline
	`

	var check models.DeleteBlockCheck
	err := r.db.QueryRowContext(ctx, query, id).Scan(&check.Headline, &check.UsageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: block %d not found", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check block usage: %w", err)
	}

	return &check, nil
}

// Delete deletes a block.
//
// A foreign key violation (the block got referenced meanwhile) is returned as a conflict.
func (r *blockRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blocks WHERE id = ?`, id)
	if err != nil {
		return translateMySQLError(err, "delete block")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: block %d not found", apperrors.ErrNotFound, id)
	}

	return nil
}

// insertBlock inserts a block through q, filling in its ID
func insertBlock(ctx context.Context, q queryer, block *models.Block) error {
	content, err := json.Marshal(block.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal block content: %w", err)
	}

	query := `
		INSERT INTO blocks (type, headline, description, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := q.ExecContext(ctx, query,
		block.Type,
		block.Headline,
		nullString(block.Description),
		string(content),
		block.CreatedAt,
		block.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	block.ID = int(id)
	return nil
}

// findBlockForReference checks that a block exists before a step-block points at it.
//
// A delete that slips in before the step-block insert surfaces as a foreign key error (1452) there.
func findBlockForReference(ctx context.Context, q queryer, id int) error {
	var found int
	err := q.QueryRowContext(ctx, `SELECT id FROM blocks WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: block %d not found", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to find block: %w", err)
	}
	return nil
}

// scanBlock scans the blockColumns, followed by extra destinations if any
func scanBlock(row rowScanner, extra ...any) (*models.Block, error) {
	var (
		block       models.Block
		description sql.NullString
		content     []byte
	)

	dest := append([]any{
		&block.ID,
		&block.Type,
		&block.Headline,
		&description,
		&content,
		&block.CreatedAt,
		&block.UpdatedAt,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	decoded, err := models.DecodeBlockContent(block.Type, content)
	if err != nil {
		return nil, err
	}

	block.Description = stringPtr(description)
	block.Content = decoded
	return &block, nil
}
