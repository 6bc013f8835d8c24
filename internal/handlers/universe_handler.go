package handlers

import (
	"context"
	"net/http"

	"github.com/coursebuilder/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UniverseService is the interface that wraps methods for universe business logic.
type UniverseService interface {
	ListUniverses(ctx context.Context) ([]models.Universe, error)
	GetUniverse(ctx context.Context, id int) (*models.Universe, error)
	CreateUniverse(ctx context.Context, req *models.CreateUniverseRequest) (*models.Universe, error)
	RenameUniverse(ctx context.Context, id int, req *models.UpdateUniverseRequest) (*models.Universe, error)
	// DeleteUniverse deletes a universe. A conflict is returned while courses are assigned to it.
	DeleteUniverse(ctx context.Context, id int) error
}

// UniverseHandler handles HTTP requests for universes
type UniverseHandler struct {
	BaseHandler
	service UniverseService
}

// NewUniverseHandler creates a new universe handler
func NewUniverseHandler(svc UniverseService, logger *zap.Logger) *UniverseHandler {
	return &UniverseHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all universe handler routes
func (h *UniverseHandler) RegisterRoutes(r chi.Router) {
	r.Route("/universes", func(r chi.Router) {
		r.Get("/", h.ListUniverses)
		r.Post("/", h.CreateUniverse)
		r.Get("/{id}", h.GetUniverse)
		r.Put("/{id}", h.RenameUniverse)
		r.Delete("/{id}", h.DeleteUniverse)
	})
}

// ListUniverses handles GET /api/v1/universes
// @Summary List universes
// @Tags universes
// @Produce json
// @Success 200 {array} models.Universe
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/universes [get]
func (h *UniverseHandler) ListUniverses(w http.ResponseWriter, r *http.Request) {
	universes, err := h.service.ListUniverses(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, universes)
}

// CreateUniverse handles POST /api/v1/universes
// @Summary Create a universe
// @Tags universes
// @Accept json
// @Produce json
// @Param request body models.CreateUniverseRequest true "Universe creation request"
// @Success 201 {object} models.Universe
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/universes [post]
func (h *UniverseHandler) CreateUniverse(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUniverseRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	universe, err := h.service.CreateUniverse(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, universe)
}

// GetUniverse handles GET /api/v1/universes/{id}
// @Summary Get a universe
// @Tags universes
// @Produce json
// @Param id path int true "Universe ID"
// @Success 200 {object} models.Universe
// @Failure 400 {object} map[string]string "Invalid universe ID"
// @Failure 404 {object} map[string]string "Universe not found"
// @Router /api/v1/universes/{id} [get]
func (h *UniverseHandler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "universe")
	if !ok {
		return
	}

	universe, err := h.service.GetUniverse(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, universe)
}

// RenameUniverse handles PUT /api/v1/universes/{id}
// @Summary Rename a universe
// @Tags universes
// @Accept json
// @Produce json
// @Param id path int true "Universe ID"
// @Param request body models.UpdateUniverseRequest true "Universe update request"
// @Success 200 {object} models.Universe
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Universe not found"
// @Router /api/v1/universes/{id} [put]
func (h *UniverseHandler) RenameUniverse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "universe")
	if !ok {
		return
	}

	var req models.UpdateUniverseRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	universe, err := h.service.RenameUniverse(r.Context(), id, &req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, universe)
}

// DeleteUniverse handles DELETE /api/v1/universes/{id}
// @Summary Delete a universe
// @Tags universes
// @Param id path int true "Universe ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid universe ID"
// @Failure 404 {object} map[string]string "Universe not found"
// @Failure 409 {object} map[string]string "Courses are still assigned"
// @Router /api/v1/universes/{id} [delete]
func (h *UniverseHandler) DeleteUniverse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "universe")
	if !ok {
		return
	}

	if err := h.service.DeleteUniverse(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
