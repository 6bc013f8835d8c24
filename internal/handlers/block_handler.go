package handlers

import (
	"context"
	"net/http"

	"github.com/coursebuilder/backend/internal/apperrors"
	"github.com/coursebuilder/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BlockService is the interface that wraps methods for block business logic.
type BlockService interface {
	// CreateBlock validates the request, builds the content for its type and stores the block.
	CreateBlock(ctx context.Context, req *models.CreateBlockRequest) (*models.Block, error)
	// GetBlock retrieves a block with its usage count.
	GetBlock(ctx context.Context, id int) (*models.BlockListItem, error)
	// ListBlocks retrieves all blocks with their usage counts.
	ListBlocks(ctx context.Context) ([]models.BlockListItem, error)
	// ListUnusedBlocks retrieves blocks that no step references.
	ListUnusedBlocks(ctx context.Context) ([]models.Block, error)
	// UpdateBlock applies a partial update, the content is rebuilt as a whole when type or a content field is given.
	UpdateBlock(ctx context.Context, id int, req *models.UpdateBlockRequest) (*models.BlockListItem, error)
	// DeleteBlock deletes a block.
	//
	// A conflict is returned while any step references the block.
	DeleteBlock(ctx context.Context, id int) error
}

// BlockHandler handles HTTP requests for blocks
type BlockHandler struct {
	BaseHandler
	service BlockService
}

// NewBlockHandler creates a new block handler
func NewBlockHandler(svc BlockService, logger *zap.Logger) *BlockHandler {
	return &BlockHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all block handler routes
func (h *BlockHandler) RegisterRoutes(r chi.Router) {
	r.Route("/blocks", func(r chi.Router) {
		r.Get("/", h.ListBlocks)
		r.Post("/", h.CreateBlock)
		r.Get("/unused", h.ListUnusedBlocks)
		r.Get("/{id}", h.GetBlock)
		r.Patch("/{id}", h.UpdateBlock)
		r.Delete("/{id}", h.DeleteBlock)
	})
}

// ListBlocks handles GET /api/v1/blocks
// @Summary List blocks
// @Description Get all blocks ordered by ID with the number of steps using each
// @Tags blocks
// @Produce json
// @Success 200 {array} models.BlockListItem
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/blocks [get]
func (h *BlockHandler) ListBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.service.ListBlocks(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, blocks)
}

// ListUnusedBlocks handles GET /api/v1/blocks/unused
// @Summary List unused blocks
// @Description Get blocks that are not referenced by any step
// @Tags blocks
// @Produce json
// @Success 200 {array} models.Block
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/blocks/unused [get]
func (h *BlockHandler) ListUnusedBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.service.ListUnusedBlocks(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, blocks)
}

// CreateBlock handles POST /api/v1/blocks
// @Summary Create a block
// @Description Create a standalone block. Exactly the content field of the given type must be set:
// @Description videoUrl (video), imageUrls (image), tabs (interactive_tabs), cards (flip_cards), question (feedback_activity).
// @Tags blocks
// @Accept json
// @Produce json
// @Param request body models.CreateBlockRequest true "Block creation request"
// @Success 201 {object} models.Block
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/blocks [post]
func (h *BlockHandler) CreateBlock(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBlockRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	block, err := h.service.CreateBlock(r.Context(), &req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, block)
}

// GetBlock handles GET /api/v1/blocks/{id}
// @Summary Get a block
// @Description Get a block with the number of steps using it
// @Tags blocks
// @Produce json
// @Param id path int true "Block ID"
// @Success 200 {object} models.BlockListItem
// @Failure 400 {object} map[string]string "Invalid block ID"
// @Failure 404 {object} map[string]string "Block not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/blocks/{id} [get]
func (h *BlockHandler) GetBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "block")
	if !ok {
		return
	}

	block, err := h.service.GetBlock(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, block)
}

// UpdateBlock handles PATCH /api/v1/blocks/{id}
// @Summary Update a block
// @Description Partial update. If type or any content field is given, the whole content is replaced.
// @Tags blocks
// @Accept json
// @Produce json
// @Param id path int true "Block ID"
// @Param request body models.UpdateBlockRequest true "Block update request"
// @Success 200 {object} models.BlockListItem
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 404 {object} map[string]string "Block not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/blocks/{id} [patch]
func (h *BlockHandler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "block")
	if !ok {
		return
	}

	var req models.UpdateBlockRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	block, err := h.service.UpdateBlock(r.Context(), id, &req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, block)
}

// DeleteBlock handles DELETE /api/v1/blocks/{id}
// @Summary Delete a block
// @Description Delete a block that no step references
// @Tags blocks
// @Param id path int true "Block ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid block ID or block is used in a step"
// @Failure 404 {object} map[string]string "Block not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/blocks/{id} [delete]
func (h *BlockHandler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "block")
	if !ok {
		return
	}

	if err := h.service.DeleteBlock(r.Context(), id); err != nil {
		if apperrors.KindOf(err) == apperrors.KindConflict {
			h.respondError(w, http.StatusBadRequest, apperrors.Message(err))
			return
		}
		h.respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
