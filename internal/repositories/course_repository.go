package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/coursebuilder/backend/internal/apperrors"
	"github.com/coursebuilder/backend/internal/models"
)

const courseColumns = `c.id, c.title, c.description, c.cover_image, c.created_at, c.updated_at`

type courseRepository struct {
	db          *sql.DB
	assignments *assignmentRepository
	now         func() time.Time
}

// NewCourseRepository creates a new course repository.
//
// Universe links are written through the given assignment repository inside the course transaction.
func NewCourseRepository(db *sql.DB, assignments *assignmentRepository) *courseRepository {
	return &courseRepository{
		db:          db,
		assignments: assignments,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GetByID retrieves a course by its ID
func (r *courseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = ? LIMIT 1`

	course, err := scanCourse(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: course %d not found", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	return course, nil
}

// GetAll retrieves all courses, newest first
func (r *courseRepository) GetAll(ctx context.Context) ([]models.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		ORDER BY c.created_at DESC, c.id DESC
	`
	return r.queryCourses(ctx, query)
}

// GetByUniverseID retrieves the courses assigned to a universe, newest first
func (r *courseRepository) GetByUniverseID(ctx context.Context, universeID int) ([]models.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses c
		INNER JOIN universe_course_assignments a ON a.course_id = c.id
		WHERE a.universe_id = ?
		ORDER BY c.created_at DESC, c.id DESC
	`
	return r.queryCourses(ctx, query, universeID)
}

func (r *courseRepository) queryCourses(ctx context.Context, query string, args ...any) ([]models.Course, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, *course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return courses, nil
}

// GetSteps retrieves the steps of a course ordered by orderIndex, each with its step-blocks
// ordered by orderIndex and the referenced blocks fully populated
func (r *courseRepository) GetSteps(ctx context.Context, courseID int) ([]models.Step, error) {
	query := `
		SELECT s.id, s.course_id, s.title, s.order_index,
			sb.id, sb.order_index,
			` + blockColumns + `
		FROM steps s
		LEFT JOIN step_blocks sb ON sb.step_id = s.id
		LEFT JOIN blocks b ON b.id = sb.block_id
		WHERE s.course_id = ?
		ORDER BY s.order_index, sb.order_index
	`

	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}
	defer rows.Close()

	steps := make([]models.Step, 0)
	for rows.Next() {
		var (
			step           models.Step
			stepBlockID    sql.NullInt64
			stepBlockOrder sql.NullInt64
			blockID        sql.NullInt64
			blockType      sql.NullString
			headline       sql.NullString
			description    sql.NullString
			content        []byte
			createdAt      sql.NullTime
			updatedAt      sql.NullTime
		)

		err := rows.Scan(
			&step.ID, &step.CourseID, &step.Title, &step.OrderIndex,
			&stepBlockID, &stepBlockOrder,
			&blockID, &blockType, &headline, &description, &content, &createdAt, &updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}

		if len(steps) == 0 || steps[len(steps)-1].ID != step.ID {
			step.StepBlocks = make([]models.StepBlock, 0)
			steps = append(steps, step)
		}
		if !stepBlockID.Valid {
			continue
		}

		decoded, err := models.DecodeBlockContent(models.BlockType(blockType.String), content)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step block: %w", err)
		}

		current := &steps[len(steps)-1]
		current.StepBlocks = append(current.StepBlocks, models.StepBlock{
			ID:         int(stepBlockID.Int64),
			StepID:     current.ID,
			OrderIndex: int(stepBlockOrder.Int64),
			Block: models.Block{
				ID:          int(blockID.Int64),
				Type:        models.BlockType(blockType.String),
				Headline:    headline.String,
				Description: stringPtr(description),
				Content:     decoded,
				CreatedAt:   createdAt.Time,
				UpdatedAt:   updatedAt.Time,
			},
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return steps, nil
}

// Create writes a course with its steps, step-blocks, new blocks and universe links in one transaction.
//
// Returns the ID of the new course. Nothing is written if any part fails.
func (r *courseRepository) Create(ctx context.Context, course *models.PreparedCourse) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := r.now()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO courses (title, description, cover_image, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		course.Title, nullString(course.Description), course.CoverImage, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create course: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	courseID := int(id)

	if err := r.writeStructure(ctx, tx, courseID, course, now); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return courseID, nil
}

// Replace overwrites the scalar fields of a course and rebuilds its structure from scratch in one transaction.
//
// Step-blocks are deleted before steps, then universe links, then the new structure is written.
// Blocks are never deleted. Returns what was removed.
func (r *courseRepository) Replace(ctx context.Context, id int, course *models.PreparedCourse) (*models.CourseStructureStats, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stats, err := r.lockWithStats(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	now := r.now()
	_, err = tx.ExecContext(ctx,
		`UPDATE courses SET title = ?, description = ?, cover_image = ?, updated_at = ? WHERE id = ?`,
		course.Title, nullString(course.Description), course.CoverImage, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	if err := r.deleteStructure(ctx, tx, id); err != nil {
		return nil, err
	}

	if err := r.writeStructure(ctx, tx, id, course, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stats, nil
}

// Delete deletes a course with its steps, step-blocks and universe links in one transaction.
//
// Referenced blocks are kept. Returns what was removed.
func (r *courseRepository) Delete(ctx context.Context, id int) (*models.CourseStructureStats, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stats, err := r.lockWithStats(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := r.deleteStructure(ctx, tx, id); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete course: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stats, nil
}

// lockWithStats locks the course row for the rest of the transaction and counts its structure
func (r *courseRepository) lockWithStats(ctx context.Context, tx *sql.Tx, id int) (*models.CourseStructureStats, error) {
	var found int
	err := tx.QueryRowContext(ctx, `SELECT id FROM courses WHERE id = ? FOR UPDATE`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: course %d not found", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course by id: %w", err)
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM steps WHERE course_id = ?),
			(SELECT COUNT(*) FROM step_blocks sb INNER JOIN steps s ON s.id = sb.step_id WHERE s.course_id = ?),
			(SELECT COUNT(*) FROM universe_course_assignments WHERE course_id = ?)
	`

	var stats models.CourseStructureStats
	if err := tx.QueryRowContext(ctx, query, id, id, id).Scan(&stats.Steps, &stats.StepBlocks, &stats.Assignments); err != nil {
		return nil, fmt.Errorf("failed to count course structure: %w", err)
	}

	return &stats, nil
}

// deleteStructure removes step-blocks, then steps, then universe links of a course
func (r *courseRepository) deleteStructure(ctx context.Context, tx *sql.Tx, courseID int) error {
	_, err := tx.ExecContext(ctx,
		`DELETE sb FROM step_blocks sb INNER JOIN steps s ON s.id = sb.step_id WHERE s.course_id = ?`,
		courseID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete step blocks: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM steps WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("failed to delete steps: %w", err)
	}

	return r.assignments.deleteForCourse(ctx, tx, courseID)
}

// writeStructure inserts steps in the given order, resolves and links their blocks, then assigns universes
func (r *courseRepository) writeStructure(ctx context.Context, tx *sql.Tx, courseID int, course *models.PreparedCourse, now time.Time) error {
	for _, step := range course.Steps {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO steps (course_id, title, order_index, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			courseID, step.Title, step.OrderIndex, now, now,
		)
		if err != nil {
			return translateMySQLError(err, "create step")
		}

		stepID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}

		for _, placed := range step.Blocks {
			blockID, err := resolveBlock(ctx, tx, placed, now)
			if err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx,
				`INSERT INTO step_blocks (step_id, block_id, order_index, created_at) VALUES (?, ?, ?, ?)`,
				stepID, blockID, placed.OrderIndex, now,
			)
			if err != nil {
				return translateMySQLError(err, "create step block")
			}
		}
	}

	return r.assignments.assign(ctx, tx, courseID, course.UniverseIDs, now)
}

// resolveBlock returns the ID of the referenced block, creating it first if it is new
func resolveBlock(ctx context.Context, tx *sql.Tx, placed models.PreparedBlock, now time.Time) (int, error) {
	if placed.ExistingBlockID != nil {
		if err := findBlockForReference(ctx, tx, *placed.ExistingBlockID); err != nil {
			return 0, err
		}
		return *placed.ExistingBlockID, nil
	}

	block := placed.NewBlock
	block.CreatedAt = now
	block.UpdatedAt = now
	if err := insertBlock(ctx, tx, block); err != nil {
		return 0, err
	}
	return block.ID, nil
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var (
		course      models.Course
		description sql.NullString
	)

	err := row.Scan(
		&course.ID,
		&course.Title,
		&description,
		&course.CoverImage,
		&course.CreatedAt,
		&course.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	course.Description = stringPtr(description)
	return &course, nil
}
