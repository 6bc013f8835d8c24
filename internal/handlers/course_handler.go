package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/coursebuilder/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CourseService is the interface that wraps methods for course business logic.
type CourseService interface {
	// CreateCourse validates the specification and writes the course with its steps, step-blocks,
	// inline blocks and universe links in one transaction.
	//
	// Validation, not found (referenced block or universe) and conflict errors are returned as classified errors.
	CreateCourse(ctx context.Context, spec *models.CourseSpec) (*models.CourseWriteResult, error)
	// UpdateCourse replaces the course with the specification in one transaction.
	//
	// Please reference CreateCourse for the error values. Not found is also returned for an unknown course ID.
	UpdateCourse(ctx context.Context, id int, spec *models.CourseSpec) (*models.CourseWriteResult, error)
	// DeleteCourse deletes the course with its structure. Blocks are kept.
	DeleteCourse(ctx context.Context, id int) error
	// ListCourses retrieves all courses with their universe assignments, newest first.
	ListCourses(ctx context.Context) ([]models.CourseListItem, error)
	// ListCoursesByUniverse retrieves the courses assigned to a universe.
	//
	// Not found is returned for an unknown universe ID.
	ListCoursesByUniverse(ctx context.Context, universeID int) ([]models.CourseListItem, error)
	// GetCourseDetail retrieves the course with ordered steps, step-blocks, full blocks and universe assignments.
	GetCourseDetail(ctx context.Context, id int) (*models.CourseDetail, error)
}

// CourseHandler handles HTTP requests for courses
type CourseHandler struct {
	BaseHandler
	service CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(svc CourseService, logger *zap.Logger) *CourseHandler {
	return &CourseHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all course handler routes
func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Route("/courses", func(r chi.Router) {
		r.Get("/", h.ListCourses)
		r.Post("/", h.CreateCourse)
		r.Get("/{id}", h.GetCourse)
		r.Put("/{id}", h.UpdateCourse)
		r.Delete("/{id}", h.DeleteCourse)
	})
}

// ListCourses handles GET /api/v1/courses
// @Summary List courses
// @Description Get all courses with their universe assignments, newest first. Optionally filtered by universe.
// @Tags courses
// @Accept json
// @Produce json
// @Param universeId query int false "Only courses assigned to this universe"
// @Success 200 {array} models.CourseListItem
// @Failure 400 {object} map[string]string "Invalid universe ID"
// @Failure 404 {object} map[string]string "Universe not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/courses [get]
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	universeParam := r.URL.Query().Get("universeId")

	var (
		courses []models.CourseListItem
		err     error
	)
	if universeParam == "" {
		courses, err = h.service.ListCourses(r.Context())
	} else {
		universeID, convErr := strconv.Atoi(universeParam)
		if convErr != nil || universeID <= 0 {
			h.respondError(w, http.StatusBadRequest, "invalid universe ID")
			return
		}
		courses, err = h.service.ListCoursesByUniverse(r.Context(), universeID)
	}
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, courses)
}

// CreateCourse handles POST /api/v1/courses
// @Summary Create a course
// @Description Create a course with its steps, step-blocks and universe assignments in one transaction.
// @Description Each step-block either references an existing block or carries a new block.
// @Tags courses
// @Accept json
// @Produce json
// @Param request body models.CourseSpec true "Course specification"
// @Success 201 {object} models.CourseWriteResult
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Referenced block or universe not found"
// @Failure 409 {object} map[string]string "Duplicate order index or block in a step"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/courses [post]
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var spec models.CourseSpec
	if !h.decodeJSON(w, r, &spec) {
		return
	}

	result, err := h.service.CreateCourse(r.Context(), &spec)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, result)
}

// GetCourse handles GET /api/v1/courses/{id}
// @Summary Get course detail
// @Description Get a course with ordered steps, step-blocks, blocks and universe assignments
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.CourseDetail
// @Failure 400 {object} map[string]string "Invalid course ID"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/courses/{id} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "course")
	if !ok {
		return
	}

	detail, err := h.service.GetCourseDetail(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, detail)
}

// UpdateCourse handles PUT /api/v1/courses/{id}
// @Summary Replace a course
// @Description Replace a course with the given specification. Steps, step-blocks and universe assignments are rebuilt.
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body models.CourseSpec true "Course specification"
// @Success 200 {object} models.CourseWriteResult
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Course, block or universe not found"
// @Failure 409 {object} map[string]string "Duplicate order index or block in a step"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/courses/{id} [put]
func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "course")
	if !ok {
		return
	}

	var spec models.CourseSpec
	if !h.decodeJSON(w, r, &spec) {
		return
	}

	result, err := h.service.UpdateCourse(r.Context(), id, &spec)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

// DeleteCourse handles DELETE /api/v1/courses/{id}
// @Summary Delete a course
// @Description Delete a course with its steps, step-blocks and universe assignments. Blocks are kept.
// @Tags courses
// @Param id path int true "Course ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid course ID"
// @Failure 404 {object} map[string]string "Course not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "course")
	if !ok {
		return
	}

	if err := h.service.DeleteCourse(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
