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

type assignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new universe assignment repository
func NewAssignmentRepository(db *sql.DB) *assignmentRepository {
	return &assignmentRepository{
		db: db,
	}
}

// GetByCourseID retrieves the universe assignments of a course
func (r *assignmentRepository) GetByCourseID(ctx context.Context, courseID int) ([]models.UniverseAssignment, error) {
	byCourse, err := r.GetByCourseIDs(ctx, []int{courseID})
	if err != nil {
		return nil, err
	}
	if assignments, ok := byCourse[courseID]; ok {
		return assignments, nil
	}
	return make([]models.UniverseAssignment, 0), nil
}

// GetByCourseIDs retrieves the universe assignments of several courses, keyed by course ID
func (r *assignmentRepository) GetByCourseIDs(ctx context.Context, courseIDs []int) (map[int][]models.UniverseAssignment, error) {
	result := make(map[int][]models.UniverseAssignment, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}

	placeholders, args := inClause(courseIDs)
	query := `
		SELECT a.id, a.course_id, a.assigned_at, u.id, u.name
		FROM universe_course_assignments a
		INNER JOIN universes u ON u.id = a.universe_id
		WHERE a.course_id IN (` + placeholders + `)
		ORDER BY a.course_id, u.id
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query universe assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.UniverseAssignment
		if err := rows.Scan(&a.ID, &a.CourseID, &a.AssignedAt, &a.Universe.ID, &a.Universe.Name); err != nil {
			return nil, fmt.Errorf("failed to scan universe assignment: %w", err)
		}
		result[a.CourseID] = append(result[a.CourseID], a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// assign links a course to each universe through q.
//
// Every universe is looked up first, a missing one aborts with a not found error.
func (r *assignmentRepository) assign(ctx context.Context, q queryer, courseID int, universeIDs []int, assignedAt time.Time) error {
	for _, universeID := range universeIDs {
		var found int
		err := q.QueryRowContext(ctx, `SELECT id FROM universes WHERE id = ?`, universeID).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: universe %d not found", apperrors.ErrNotFound, universeID)
		}
		if err != nil {
			return fmt.Errorf("failed to find universe: %w", err)
		}

		_, err = q.ExecContext(ctx,
			`INSERT INTO universe_course_assignments (universe_id, course_id, assigned_at) VALUES (?, ?, ?)`,
			universeID, courseID, assignedAt,
		)
		if err != nil {
			return translateMySQLError(err, "assign course to universe")
		}
	}

	return nil
}

// deleteForCourse removes every universe link of a course through q
func (r *assignmentRepository) deleteForCourse(ctx context.Context, q queryer, courseID int) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM universe_course_assignments WHERE course_id = ?`, courseID); err != nil {
		return fmt.Errorf("failed to delete universe assignments: %w", err)
	}
	return nil
}
