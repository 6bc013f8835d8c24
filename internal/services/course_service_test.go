package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/coursebuilder/backend/internal/apperrors"
	"github.com/coursebuilder/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// safetySpec is a course with one reused block and one block authored inline
func safetySpec() *models.CourseSpec {
	return &models.CourseSpec{
		Title:      "Safety",
		CoverImage: "https://cdn.example.com/safety.png",
		Steps: []models.StepSpec{
			{
				Title:      "Intro",
				OrderIndex: 1,
				StepBlocks: []models.StepBlockSpec{
					{OrderIndex: 1, ExistingBlockID: intPtr(12)},
					{
						OrderIndex: 2,
						NewBlock: &models.CreateBlockRequest{
							Type:               models.BlockTypeFeedbackActivity,
							Headline:           "Check",
							BlockContentFields: models.BlockContentFields{Question: strPtr("Ready?")},
						},
					},
				},
			},
		},
		UniverseIDs: []int{3, 4, 3},
	}
}

func newTestCourseService(courses *mockCourseRepository, assignments *mockAssignmentRepository, universes *mockUniverseRepository) *courseService {
	return NewCourseService(courses, assignments, universes, zap.NewNop())
}

func TestNewCourseService(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	courses := &mockCourseRepository{}
	assignments := &mockAssignmentRepository{}
	universes := &mockUniverseRepository{}

	svc := NewCourseService(courses, assignments, universes, logger)

	assert.NotNil(t, svc)
	assert.Equal(t, courses, svc.courses)
	assert.Equal(t, assignments, svc.assignments)
	assert.Equal(t, universes, svc.universes)
	assert.Equal(t, logger, svc.logger)
}

func TestPrepareCourse(t *testing.T) {
	tests := []struct {
		name          string
		modify        func(spec *models.CourseSpec)
		expectedError error
		errorContains string
	}{
		{
			name:   "valid",
			modify: func(spec *models.CourseSpec) {},
		},
		{
			name:          "missing title",
			modify:        func(spec *models.CourseSpec) { spec.Title = "" },
			expectedError: apperrors.ErrValidation,
			errorContains: "title is required",
		},
		{
			name:          "no steps",
			modify:        func(spec *models.CourseSpec) { spec.Steps = []models.StepSpec{} },
			expectedError: apperrors.ErrValidation,
			errorContains: "steps must contain at least 1 item(s)",
		},
		{
			name:          "step without blocks",
			modify:        func(spec *models.CourseSpec) { spec.Steps[0].StepBlocks = nil },
			expectedError: apperrors.ErrValidation,
			errorContains: "steps[0].stepBlocks is required",
		},
		{
			name:          "non positive order",
			modify:        func(spec *models.CourseSpec) { spec.Steps[0].OrderIndex = 0 },
			expectedError: apperrors.ErrValidation,
			errorContains: "steps[0].orderIndex must be at least 1",
		},
		{
			name:          "step order beyond int column",
			modify:        func(spec *models.CourseSpec) { spec.Steps[0].OrderIndex = 2147483648 },
			expectedError: apperrors.ErrValidation,
			errorContains: "steps[0].orderIndex must be at most 2147483647",
		},
		{
			name:          "step-block order beyond int column",
			modify:        func(spec *models.CourseSpec) { spec.Steps[0].StepBlocks[1].OrderIndex = 2147483648 },
			expectedError: apperrors.ErrValidation,
			errorContains: "steps[0].stepBlocks[1].orderIndex must be at most 2147483647",
		},
		{
			name:          "block id beyond int column",
			modify:        func(spec *models.CourseSpec) { spec.Steps[0].StepBlocks[0].ExistingBlockID = intPtr(2147483648) },
			expectedError: apperrors.ErrValidation,
			errorContains: "steps[0].stepBlocks[0].existingBlockId must be at most 2147483647",
		},
		{
			name:          "universe id beyond int column",
			modify:        func(spec *models.CourseSpec) { spec.UniverseIDs = []int{3, 2147483648} },
			expectedError: apperrors.ErrValidation,
			errorContains: "universeIds[1] must be at most 2147483647",
		},
		{
			name:          "blank title",
			modify:        func(spec *models.CourseSpec) { spec.Title = "   " },
			expectedError: apperrors.ErrValidation,
			errorContains: "title must not be empty",
		},
		{
			name:          "blank step title",
			modify:        func(spec *models.CourseSpec) { spec.Steps[0].Title = "\t" },
			expectedError: apperrors.ErrValidation,
			errorContains: "steps[0].title must not be empty",
		},
		{
			name:          "blank cover image",
			modify:        func(spec *models.CourseSpec) { spec.CoverImage = " " },
			expectedError: apperrors.ErrValidation,
			errorContains: "coverImage must not be empty",
		},
		{
			name: "blank inline block headline",
			modify: func(spec *models.CourseSpec) {
				spec.Steps[0].StepBlocks[1].NewBlock.Headline = "  "
			},
			expectedError: apperrors.ErrValidation,
			errorContains: "steps[0].stepBlocks[1].newBlock.headline must not be empty",
		},
		{
			name: "both block references",
			modify: func(spec *models.CourseSpec) {
				spec.Steps[0].StepBlocks[1].ExistingBlockID = intPtr(7)
			},
			expectedError: apperrors.ErrValidation,
			errorContains: "steps[0].stepBlocks[1]: existingBlockId and newBlock are mutually exclusive",
		},
		{
			name: "no block reference",
			modify: func(spec *models.CourseSpec) {
				spec.Steps[0].StepBlocks[0].ExistingBlockID = nil
			},
			expectedError: apperrors.ErrValidation,
			errorContains: "steps[0].stepBlocks[0]: either existingBlockId or newBlock is required",
		},
		{
			name: "inline block with wrong content",
			modify: func(spec *models.CourseSpec) {
				spec.Steps[0].StepBlocks[1].NewBlock.VideoURL = strPtr("https://cdn.example.com/v.mp4")
			},
			expectedError: apperrors.ErrValidation,
			errorContains: "steps[0].stepBlocks[1].newBlock: field videoUrl is not allowed for block type feedback_activity",
		},
		{
			name: "inline block without headline",
			modify: func(spec *models.CourseSpec) {
				spec.Steps[0].StepBlocks[1].NewBlock.Headline = ""
			},
			expectedError: apperrors.ErrValidation,
			errorContains: "steps[0].stepBlocks[1].newBlock.headline is required",
		},
		{
			name: "duplicate step order",
			modify: func(spec *models.CourseSpec) {
				second := spec.Steps[0]
				second.Title = "Outro"
				spec.Steps = append(spec.Steps, second)
			},
			expectedError: apperrors.ErrConflict,
			errorContains: "steps[0] and steps[1] share orderIndex 1",
		},
		{
			name: "duplicate step block order",
			modify: func(spec *models.CourseSpec) {
				spec.Steps[0].StepBlocks[1].OrderIndex = 1
			},
			expectedError: apperrors.ErrConflict,
			errorContains: "steps[0].stepBlocks[0] and steps[0].stepBlocks[1] share orderIndex 1",
		},
		{
			name: "same block twice in a step",
			modify: func(spec *models.CourseSpec) {
				spec.Steps[0].StepBlocks[1] = models.StepBlockSpec{OrderIndex: 2, ExistingBlockID: intPtr(12)}
			},
			expectedError: apperrors.ErrConflict,
			errorContains: "steps[0].stepBlocks[0] and steps[0].stepBlocks[1] both use block 12",
		},
		{
			name: "non positive universe id",
			modify: func(spec *models.CourseSpec) {
				spec.UniverseIDs = []int{0}
			},
			expectedError: apperrors.ErrValidation,
			errorContains: "universeIds[0] must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := safetySpec()
			tt.modify(spec)

			prepared, err := prepareCourse(spec)

			if tt.errorContains != "" {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.Nil(t, prepared)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Safety", prepared.Title)
			assert.Equal(t, []int{3, 4}, prepared.UniverseIDs)
			require.Len(t, prepared.Steps, 1)
			require.Len(t, prepared.Steps[0].Blocks, 2)
			assert.Equal(t, intPtr(12), prepared.Steps[0].Blocks[0].ExistingBlockID)
			assert.Nil(t, prepared.Steps[0].Blocks[0].NewBlock)
			assert.Equal(t, models.FeedbackActivityContent{Question: "Ready?"}, prepared.Steps[0].Blocks[1].NewBlock.Content)
		})
	}
}

func TestPrepareCourse_SameBlockInDifferentSteps(t *testing.T) {
	spec := safetySpec()
	spec.Steps = append(spec.Steps, models.StepSpec{
		Title:      "Recap",
		OrderIndex: 2,
		StepBlocks: []models.StepBlockSpec{{OrderIndex: 1, ExistingBlockID: intPtr(12)}},
	})

	prepared, err := prepareCourse(spec)

	require.NoError(t, err)
	assert.Len(t, prepared.Steps, 2)
}

func TestCourseService_CreateCourse(t *testing.T) {
	tests := []struct {
		name          string
		spec          *models.CourseSpec
		courses       *mockCourseRepository
		expectedError error
		errorContains string
	}{
		{
			name:    "success",
			spec:    safetySpec(),
			courses: &mockCourseRepository{createdID: 42},
		},
		{
			name: "invalid course never reaches repository",
			spec: func() *models.CourseSpec {
				spec := safetySpec()
				spec.CoverImage = ""
				return spec
			}(),
			courses:       &mockCourseRepository{},
			expectedError: apperrors.ErrValidation,
			errorContains: "coverImage is required",
		},
		{
			name:          "missing block",
			spec:          safetySpec(),
			courses:       &mockCourseRepository{writeErr: fmt.Errorf("%w: block 12 not found", apperrors.ErrNotFound)},
			expectedError: apperrors.ErrNotFound,
			errorContains: "block 12 not found",
		},
		{
			name:          "database error",
			spec:          safetySpec(),
			courses:       &mockCourseRepository{writeErr: errors.New("database error")},
			errorContains: "database error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestCourseService(tt.courses, &mockAssignmentRepository{}, &mockUniverseRepository{})

			result, err := svc.CreateCourse(context.Background(), tt.spec)

			if tt.errorContains != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, &models.CourseWriteResult{ID: 42, Message: "E-learning created successfully"}, result)
			require.NotNil(t, tt.courses.written)
			assert.Equal(t, []int{3, 4}, tt.courses.written.UniverseIDs)
		})
	}
}

func TestCourseService_UpdateCourse(t *testing.T) {
	courses := &mockCourseRepository{stats: &models.CourseStructureStats{Steps: 2, StepBlocks: 5, Assignments: 1}}
	svc := newTestCourseService(courses, &mockAssignmentRepository{}, &mockUniverseRepository{})

	result, err := svc.UpdateCourse(context.Background(), 7, safetySpec())

	require.NoError(t, err)
	assert.Equal(t, &models.CourseWriteResult{ID: 7, Message: "E-learning updated successfully"}, result)
	assert.Equal(t, 7, courses.replacedID)

	courses.writeErr = fmt.Errorf("%w: course 7 not found", apperrors.ErrNotFound)
	_, err = svc.UpdateCourse(context.Background(), 7, safetySpec())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCourseService_DeleteCourse(t *testing.T) {
	courses := &mockCourseRepository{stats: &models.CourseStructureStats{Steps: 1, StepBlocks: 2}}
	svc := newTestCourseService(courses, &mockAssignmentRepository{}, &mockUniverseRepository{})

	require.NoError(t, svc.DeleteCourse(context.Background(), 9))
	assert.Equal(t, 9, courses.deletedID)

	courses.writeErr = fmt.Errorf("%w: course 9 not found", apperrors.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCourse(context.Background(), 9), apperrors.ErrNotFound)
}

func TestCourseService_ListCourses(t *testing.T) {
	courses := &mockCourseRepository{courses: []models.Course{{ID: 2, Title: "B"}, {ID: 1, Title: "A"}}}
	assignments := &mockAssignmentRepository{assignments: map[int][]models.UniverseAssignment{
		1: {{ID: 10, CourseID: 1, Universe: models.UniverseShortInfo{ID: 3, Name: "Retail"}}},
	}}
	svc := newTestCourseService(courses, assignments, &mockUniverseRepository{})

	items, err := svc.ListCourses(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []int{2, 1}, assignments.requested)
	assert.NotNil(t, items[0].UniverseAssignments)
	assert.Empty(t, items[0].UniverseAssignments)
	assert.Equal(t, "Retail", items[1].UniverseAssignments[0].Universe.Name)

	assignments.err = errors.New("database error")
	_, err = svc.ListCourses(context.Background())
	assert.Error(t, err)
}

func TestCourseService_ListCoursesByUniverse(t *testing.T) {
	tests := []struct {
		name          string
		universes     *mockUniverseRepository
		expectedError error
		expectedCount int
	}{
		{
			name:          "success",
			universes:     &mockUniverseRepository{universe: &models.Universe{ID: 3, Name: "Retail"}},
			expectedCount: 1,
		},
		{
			name:          "unknown universe",
			universes:     &mockUniverseRepository{err: fmt.Errorf("%w: universe 3 not found", apperrors.ErrNotFound)},
			expectedError: apperrors.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			courses := &mockCourseRepository{courses: []models.Course{{ID: 1, Title: "Safety"}}}
			svc := newTestCourseService(courses, &mockAssignmentRepository{}, tt.universes)

			items, err := svc.ListCoursesByUniverse(context.Background(), 3)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, items)
				assert.Zero(t, courses.universeID)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.expectedCount)
			assert.Equal(t, 3, courses.universeID)
		})
	}
}

func TestCourseService_GetCourseDetail(t *testing.T) {
	tests := []struct {
		name          string
		courses       *mockCourseRepository
		assignments   *mockAssignmentRepository
		expectedError error
		errorContains string
	}{
		{
			name: "success",
			courses: &mockCourseRepository{
				course: &models.Course{ID: 1, Title: "Safety"},
				steps: []models.Step{{
					ID: 4, CourseID: 1, Title: "Intro", OrderIndex: 1,
					StepBlocks: []models.StepBlock{{ID: 8, StepID: 4, OrderIndex: 1, Block: models.Block{ID: 12}}},
				}},
			},
			assignments: &mockAssignmentRepository{assignments: map[int][]models.UniverseAssignment{
				1: {{ID: 10, CourseID: 1, Universe: models.UniverseShortInfo{ID: 3, Name: "Retail"}}},
			}},
		},
		{
			name: "course without structure",
			courses: &mockCourseRepository{
				course: &models.Course{ID: 1, Title: "Safety"},
			},
			assignments: &mockAssignmentRepository{},
		},
		{
			name:          "not found",
			courses:       &mockCourseRepository{err: fmt.Errorf("%w: course 1 not found", apperrors.ErrNotFound)},
			assignments:   &mockAssignmentRepository{},
			expectedError: apperrors.ErrNotFound,
			errorContains: "course 1 not found",
		},
		{
			name: "steps error",
			courses: &mockCourseRepository{
				course:   &models.Course{ID: 1},
				stepsErr: errors.New("database error"),
			},
			assignments:   &mockAssignmentRepository{},
			errorContains: "failed to get steps",
		},
		{
			name:          "assignments error",
			courses:       &mockCourseRepository{course: &models.Course{ID: 1}},
			assignments:   &mockAssignmentRepository{err: errors.New("database error")},
			errorContains: "failed to get universe assignments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestCourseService(tt.courses, tt.assignments, &mockUniverseRepository{})

			detail, err := svc.GetCourseDetail(context.Background(), 1)

			if tt.errorContains != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				assert.Nil(t, detail)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Safety", detail.Title)
			assert.Len(t, detail.Steps, len(tt.courses.steps))
			assert.NotNil(t, detail.Steps)
			assert.NotNil(t, detail.UniverseAssignments)
			assert.Len(t, detail.UniverseAssignments, len(tt.assignments.assignments[1]))
		})
	}
}
