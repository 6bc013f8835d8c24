package services

import (
	"context"
	"sync"

	"github.com/coursebuilder/backend/internal/models"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

// mockBlockRepository is a mock implementation of BlockRepository
type mockBlockRepository struct {
	block       *models.BlockListItem
	blocks      []models.BlockListItem
	unused      []models.Block
	checks      []*models.DeleteBlockCheck
	createdID   int
	err         error
	createErr   error
	updateErr   error
	deleteErr   error
	checkErr    error
	created     *models.Block
	updated     *models.Block
	deleted     bool
	checkCalled int
}

func (m *mockBlockRepository) GetByID(ctx context.Context, id int) (*models.BlockListItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	copied := *m.block
	return &copied, nil
}

func (m *mockBlockRepository) GetAll(ctx context.Context) ([]models.BlockListItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.blocks, nil
}

func (m *mockBlockRepository) GetUnused(ctx context.Context) ([]models.Block, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.unused, nil
}

func (m *mockBlockRepository) Create(ctx context.Context, block *models.Block) error {
	if m.createErr != nil {
		return m.createErr
	}
	block.ID = m.createdID
	m.created = block
	return nil
}

func (m *mockBlockRepository) Update(ctx context.Context, block *models.Block) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = block
	return nil
}

// GetDeleteCheck returns the configured checks in order, repeating the last one
func (m *mockBlockRepository) GetDeleteCheck(ctx context.Context, id int) (*models.DeleteBlockCheck, error) {
	m.checkCalled++
	if m.checkErr != nil {
		return nil, m.checkErr
	}
	i := m.checkCalled - 1
	if i >= len(m.checks) {
		i = len(m.checks) - 1
	}
	return m.checks[i], nil
}

func (m *mockBlockRepository) Delete(ctx context.Context, id int) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = true
	return nil
}

// mockCourseRepository is a mock implementation of CourseRepository
type mockCourseRepository struct {
	course     *models.Course
	courses    []models.Course
	steps      []models.Step
	createdID  int
	stats      *models.CourseStructureStats
	err        error
	stepsErr   error
	writeErr   error
	written    *models.PreparedCourse
	replacedID int
	deletedID  int
	universeID int
}

func (m *mockCourseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.course, nil
}

func (m *mockCourseRepository) GetAll(ctx context.Context) ([]models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.courses, nil
}

func (m *mockCourseRepository) GetByUniverseID(ctx context.Context, universeID int) ([]models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.universeID = universeID
	return m.courses, nil
}

func (m *mockCourseRepository) GetSteps(ctx context.Context, courseID int) ([]models.Step, error) {
	if m.stepsErr != nil {
		return nil, m.stepsErr
	}
	return m.steps, nil
}

func (m *mockCourseRepository) Create(ctx context.Context, course *models.PreparedCourse) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.written = course
	return m.createdID, nil
}

func (m *mockCourseRepository) Replace(ctx context.Context, id int, course *models.PreparedCourse) (*models.CourseStructureStats, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	m.written = course
	m.replacedID = id
	return m.stats, nil
}

func (m *mockCourseRepository) Delete(ctx context.Context, id int) (*models.CourseStructureStats, error) {
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	m.deletedID = id
	return m.stats, nil
}

// mockAssignmentRepository is a mock implementation of AssignmentRepository
type mockAssignmentRepository struct {
	mu          sync.Mutex
	assignments map[int][]models.UniverseAssignment
	err         error
	requested   []int
}

func (m *mockAssignmentRepository) GetByCourseID(ctx context.Context, courseID int) ([]models.UniverseAssignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.assignments[courseID], nil
}

func (m *mockAssignmentRepository) GetByCourseIDs(ctx context.Context, courseIDs []int) (map[int][]models.UniverseAssignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	m.requested = courseIDs
	m.mu.Unlock()
	return m.assignments, nil
}

// mockUniverseRepository is a mock implementation of UniverseRepository
type mockUniverseRepository struct {
	universe  *models.Universe
	universes []models.Universe
	createdID int
	err       error
	deleteErr error
	created   *models.Universe
	updated   *models.Universe
}

func (m *mockUniverseRepository) GetAll(ctx context.Context) ([]models.Universe, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.universes, nil
}

func (m *mockUniverseRepository) GetByID(ctx context.Context, id int) (*models.Universe, error) {
	if m.err != nil {
		return nil, m.err
	}
	copied := *m.universe
	return &copied, nil
}

func (m *mockUniverseRepository) Create(ctx context.Context, universe *models.Universe) error {
	if m.err != nil {
		return m.err
	}
	universe.ID = m.createdID
	m.created = universe
	return nil
}

func (m *mockUniverseRepository) Update(ctx context.Context, universe *models.Universe) error {
	if m.err != nil {
		return m.err
	}
	m.updated = universe
	return nil
}

func (m *mockUniverseRepository) Delete(ctx context.Context, id int) error {
	return m.deleteErr
}
