package services

import (
	"context"
	"fmt"

	"github.com/coursebuilder/backend/internal/apperrors"
	"github.com/coursebuilder/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	courseCreatedMessage = "E-learning created successfully"
	courseUpdatedMessage = "E-learning updated successfully"
)

// CourseRepository is the interface that wraps methods for course aggregate data access
type CourseRepository interface {
	// GetByID retrieves a course by ID
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	//
	// Returns the course and an error if any (not found if the course does not exist).
	GetByID(ctx context.Context, id int) (*models.Course, error)
	// GetAll retrieves all courses, newest first
	//
	// "ctx" is the context for the request.
	//
	// Returns a list of courses and an error if any.
	GetAll(ctx context.Context) ([]models.Course, error)
	// GetByUniverseID retrieves the courses assigned to a universe, newest first
	//
	// "ctx" is the context for the request.
	// "universeID" is the ID of the universe.
	//
	// Returns a list of courses and an error if any.
	GetByUniverseID(ctx context.Context, universeID int) ([]models.Course, error)
	// GetSteps retrieves the ordered steps of a course with their ordered step-blocks and blocks
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns a list of steps and an error if any.
	GetSteps(ctx context.Context, courseID int) ([]models.Step, error)
	// Create writes a whole course in one transaction
	//
	// "ctx" is the context for the request.
	// "course" is the validated course to write.
	//
	// Returns the ID of the course and an error if any. Nothing is written on error.
	Create(ctx context.Context, course *models.PreparedCourse) (int, error)
	// Replace overwrites a course and rebuilds its structure in one transaction
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	// "course" is the validated desired state.
	//
	// Returns what was removed and an error if any. Nothing is changed on error.
	Replace(ctx context.Context, id int, course *models.PreparedCourse) (*models.CourseStructureStats, error)
	// Delete deletes a course with its structure in one transaction, blocks are kept
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the course.
	//
	// Returns what was removed and an error if any.
	Delete(ctx context.Context, id int) (*models.CourseStructureStats, error)
}

// AssignmentRepository is the interface that wraps methods for reading course universe links
type AssignmentRepository interface {
	// GetByCourseID retrieves the universe assignments of a course
	//
	// "ctx" is the context for the request.
	// "courseID" is the ID of the course.
	//
	// Returns a list of assignments and an error if any.
	GetByCourseID(ctx context.Context, courseID int) ([]models.UniverseAssignment, error)
	// GetByCourseIDs retrieves the universe assignments of several courses keyed by course ID
	//
	// "ctx" is the context for the request.
	// "courseIDs" is the list of course IDs.
	//
	// Returns a map of assignments and an error if any.
	GetByCourseIDs(ctx context.Context, courseIDs []int) (map[int][]models.UniverseAssignment, error)
}

// UniverseFinder is the interface that wraps the universe lookup used for tenant-scoped listing
type UniverseFinder interface {
	// GetByID retrieves a universe by ID
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the universe.
	//
	// Returns the universe and an error if any (not found if the universe does not exist).
	GetByID(ctx context.Context, id int) (*models.Universe, error)
}

type courseService struct {
	courses     CourseRepository
	assignments AssignmentRepository
	universes   UniverseFinder
	logger      *zap.Logger
}

// NewCourseService creates a new course service
func NewCourseService(courses CourseRepository, assignments AssignmentRepository, universes UniverseFinder, logger *zap.Logger) *courseService {
	return &courseService{
		courses:     courses,
		assignments: assignments,
		universes:   universes,
		logger:      logger,
	}
}

// CreateCourse validates a course specification and writes the whole course in one transaction.
//
// Only the ID is returned, the structure is read back through GetCourseDetail.
func (s *courseService) CreateCourse(ctx context.Context, spec *models.CourseSpec) (*models.CourseWriteResult, error) {
	prepared, err := prepareCourse(spec)
	if err != nil {
		return nil, err
	}

	id, err := s.courses.Create(ctx, prepared)
	if err != nil {
		logIfUnexpected(s.logger, "failed to create course", err, zap.String("title", spec.Title))
		return nil, err
	}

	s.logger.Info("course created",
		zap.Int("course_id", id),
		zap.Int("steps", len(prepared.Steps)),
		zap.Int("universes", len(prepared.UniverseIDs)),
	)
	return &models.CourseWriteResult{ID: id, Message: courseCreatedMessage}, nil
}

// UpdateCourse replaces a course with the given specification.
//
// Steps, step-blocks and universe links are rebuilt from scratch, so their IDs change.
// Blocks referenced before are kept even when no longer used.
func (s *courseService) UpdateCourse(ctx context.Context, id int, spec *models.CourseSpec) (*models.CourseWriteResult, error) {
	prepared, err := prepareCourse(spec)
	if err != nil {
		return nil, err
	}

	removed, err := s.courses.Replace(ctx, id, prepared)
	if err != nil {
		logIfUnexpected(s.logger, "failed to update course", err, zap.Int("course_id", id))
		return nil, err
	}

	s.logger.Info("course replaced",
		zap.Int("course_id", id),
		zap.Int("removed_steps", removed.Steps),
		zap.Int("removed_step_blocks", removed.StepBlocks),
		zap.Int("removed_assignments", removed.Assignments),
		zap.Int("steps", len(prepared.Steps)),
	)
	return &models.CourseWriteResult{ID: id, Message: courseUpdatedMessage}, nil
}

// DeleteCourse deletes a course with its steps, step-blocks and universe links
func (s *courseService) DeleteCourse(ctx context.Context, id int) error {
	removed, err := s.courses.Delete(ctx, id)
	if err != nil {
		logIfUnexpected(s.logger, "failed to delete course", err, zap.Int("course_id", id))
		return err
	}

	s.logger.Info("course deleted",
		zap.Int("course_id", id),
		zap.Int("removed_steps", removed.Steps),
		zap.Int("removed_step_blocks", removed.StepBlocks),
	)
	return nil
}

// ListCourses retrieves all courses with their universe assignments, newest first
func (s *courseService) ListCourses(ctx context.Context) ([]models.CourseListItem, error) {
	courses, err := s.courses.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list courses", zap.Error(err))
		return nil, err
	}
	return s.withAssignments(ctx, courses)
}

// ListCoursesByUniverse retrieves the courses assigned to a universe with their universe assignments
func (s *courseService) ListCoursesByUniverse(ctx context.Context, universeID int) ([]models.CourseListItem, error) {
	if _, err := s.universes.GetByID(ctx, universeID); err != nil {
		logIfUnexpected(s.logger, "failed to get universe", err, zap.Int("universe_id", universeID))
		return nil, err
	}

	courses, err := s.courses.GetByUniverseID(ctx, universeID)
	if err != nil {
		s.logger.Error("failed to list courses by universe", zap.Error(err), zap.Int("universe_id", universeID))
		return nil, err
	}
	return s.withAssignments(ctx, courses)
}

func (s *courseService) withAssignments(ctx context.Context, courses []models.Course) ([]models.CourseListItem, error) {
	ids := make([]int, len(courses))
	for i, course := range courses {
		ids[i] = course.ID
	}

	byCourse, err := s.assignments.GetByCourseIDs(ctx, ids)
	if err != nil {
		s.logger.Error("failed to get universe assignments", zap.Error(err))
		return nil, err
	}

	items := make([]models.CourseListItem, len(courses))
	for i, course := range courses {
		assignments := byCourse[course.ID]
		if assignments == nil {
			assignments = make([]models.UniverseAssignment, 0)
		}
		items[i] = models.CourseListItem{Course: course, UniverseAssignments: assignments}
	}
	return items, nil
}

// GetCourseDetail retrieves a course with its ordered steps, step-blocks, blocks and universe assignments.
//
// Steps and assignments are loaded concurrently once the course is known to exist.
func (s *courseService) GetCourseDetail(ctx context.Context, id int) (*models.CourseDetail, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		logIfUnexpected(s.logger, "failed to get course", err, zap.Int("course_id", id))
		return nil, err
	}

	detail := &models.CourseDetail{Course: *course}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		steps, err := s.courses.GetSteps(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to get steps: %w", err)
		}
		detail.Steps = steps
		return nil
	})
	g.Go(func() error {
		assignments, err := s.assignments.GetByCourseID(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to get universe assignments: %w", err)
		}
		detail.UniverseAssignments = assignments
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to get course detail", zap.Error(err), zap.Int("course_id", id))
		return nil, err
	}

	if detail.Steps == nil {
		detail.Steps = make([]models.Step, 0)
	}
	if detail.UniverseAssignments == nil {
		detail.UniverseAssignments = make([]models.UniverseAssignment, 0)
	}
	return detail, nil
}

// prepareCourse validates a specification and builds the content of every new block.
//
// Malformed input is a validation error. Clashing positions or a block placed twice in one step
// is a conflict. Duplicate universe IDs are collapsed. Nothing touches the database.
func prepareCourse(spec *models.CourseSpec) (*models.PreparedCourse, error) {
	if err := validateStruct(spec); err != nil {
		return nil, err
	}

	prepared := &models.PreparedCourse{
		Title:       spec.Title,
		Description: spec.Description,
		CoverImage:  spec.CoverImage,
		Steps:       make([]models.PreparedStep, 0, len(spec.Steps)),
		UniverseIDs: uniqueIDs(spec.UniverseIDs),
	}

	for i, step := range spec.Steps {
		preparedStep := models.PreparedStep{
			Title:      step.Title,
			OrderIndex: step.OrderIndex,
			Blocks:     make([]models.PreparedBlock, 0, len(step.StepBlocks)),
		}

		for j, placed := range step.StepBlocks {
			path := fmt.Sprintf("steps[%d].stepBlocks[%d]", i, j)

			switch {
			case placed.ExistingBlockID != nil && placed.NewBlock != nil:
				return nil, fmt.Errorf("%w: %s: existingBlockId and newBlock are mutually exclusive", apperrors.ErrValidation, path)
			case placed.ExistingBlockID == nil && placed.NewBlock == nil:
				return nil, fmt.Errorf("%w: %s: either existingBlockId or newBlock is required", apperrors.ErrValidation, path)
			}

			preparedBlock := models.PreparedBlock{
				OrderIndex:      placed.OrderIndex,
				ExistingBlockID: placed.ExistingBlockID,
			}
			if placed.NewBlock != nil {
				block, err := buildBlock(placed.NewBlock)
				if err != nil {
					return nil, fmt.Errorf("%w: %s.newBlock: %s", apperrors.ErrValidation, path, apperrors.Message(err))
				}
				preparedBlock.NewBlock = block
			}
			preparedStep.Blocks = append(preparedStep.Blocks, preparedBlock)
		}

		prepared.Steps = append(prepared.Steps, preparedStep)
	}

	if err := checkOrdering(prepared.Steps); err != nil {
		return nil, err
	}

	return prepared, nil
}

// checkOrdering rejects duplicate step positions, duplicate step-block positions within a step,
// and the same existing block placed twice in one step
func checkOrdering(steps []models.PreparedStep) error {
	stepOrders := make(map[int]int, len(steps))
	for i, step := range steps {
		if first, ok := stepOrders[step.OrderIndex]; ok {
			return fmt.Errorf("%w: steps[%d] and steps[%d] share orderIndex %d", apperrors.ErrConflict, first, i, step.OrderIndex)
		}
		stepOrders[step.OrderIndex] = i

		blockOrders := make(map[int]int, len(step.Blocks))
		existing := make(map[int]int)
		for j, placed := range step.Blocks {
			if first, ok := blockOrders[placed.OrderIndex]; ok {
				return fmt.Errorf("%w: steps[%d].stepBlocks[%d] and steps[%d].stepBlocks[%d] share orderIndex %d",
					apperrors.ErrConflict, i, first, i, j, placed.OrderIndex)
			}
			blockOrders[placed.OrderIndex] = j

			if placed.ExistingBlockID == nil {
				continue
			}
			if first, ok := existing[*placed.ExistingBlockID]; ok {
				return fmt.Errorf("%w: steps[%d].stepBlocks[%d] and steps[%d].stepBlocks[%d] both use block %d",
					apperrors.ErrConflict, i, first, i, j, *placed.ExistingBlockID)
			}
			existing[*placed.ExistingBlockID] = j
		}
	}
	return nil
}

// uniqueIDs drops repeated IDs keeping the first occurrence order
func uniqueIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
