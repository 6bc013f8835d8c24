package services

import (
	"context"
	"fmt"
	"time"

	"github.com/coursebuilder/backend/internal/apperrors"
	"github.com/coursebuilder/backend/internal/models"
	"go.uber.org/zap"
)

// BlockRepository is the interface that wraps methods for blocks data access
type BlockRepository interface {
	// GetByID retrieves a block by ID together with its usage count
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the block.
	//
	// Returns the block and an error if any (not found if the block does not exist).
	GetByID(ctx context.Context, id int) (*models.BlockListItem, error)
	// GetAll retrieves all blocks ordered by ID together with their usage counts
	//
	// "ctx" is the context for the request.
	//
	// Returns a list of blocks and an error if any.
	GetAll(ctx context.Context) ([]models.BlockListItem, error)
	// GetUnused retrieves blocks that are not referenced by any step
	//
	// "ctx" is the context for the request.
	//
	// Returns a list of blocks and an error if any.
	GetUnused(ctx context.Context) ([]models.Block, error)
	// Create creates a new block and fills in its ID
	//
	// "ctx" is the context for the request.
	// "block" is the block to create.
	//
	// Returns an error if any.
	Create(ctx context.Context, block *models.Block) error
	// Update overwrites type, headline, description and content of a block
	//
	// "ctx" is the context for the request.
	// "block" is the block to update.
	//
	// Returns an error if any.
	Update(ctx context.Context, block *models.Block) error
	// GetDeleteCheck retrieves the headline and the number of step references of a block
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the block.
	//
	// Returns the check data and an error if any (not found if the block does not exist).
	GetDeleteCheck(ctx context.Context, id int) (*models.DeleteBlockCheck, error)
	// Delete deletes a block
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the block.
	//
	// Returns an error if any (conflict if the block is referenced).
	Delete(ctx context.Context, id int) error
}

type blockService struct {
	repo   BlockRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewBlockService creates a new block service
func NewBlockService(repo BlockRepository, logger *zap.Logger) *blockService {
	return &blockService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateBlock validates the request, builds the content for its type and stores the block
func (s *blockService) CreateBlock(ctx context.Context, req *models.CreateBlockRequest) (*models.Block, error) {
	block, err := s.prepareBlock(req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	block.CreatedAt = now
	block.UpdatedAt = now

	if err := s.repo.Create(ctx, block); err != nil {
		logIfUnexpected(s.logger, "failed to create block", err, zap.String("type", string(req.Type)))
		return nil, err
	}

	s.logger.Info("block created", zap.Int("block_id", block.ID), zap.String("type", string(block.Type)))
	return block, nil
}

// prepareBlock turns a create request into a block without persisting it
func (s *blockService) prepareBlock(req *models.CreateBlockRequest) (*models.Block, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return buildBlock(req)
}

// buildBlock builds a block from an already tag-validated request
func buildBlock(req *models.CreateBlockRequest) (*models.Block, error) {
	content, err := models.BuildBlockContent(req.Type, req.BlockContentFields)
	if err != nil {
		return nil, err
	}

	return &models.Block{
		Type:        req.Type,
		Headline:    req.Headline,
		Description: req.Description,
		Content:     content,
	}, nil
}

// GetBlock retrieves a block with its usage count
func (s *blockService) GetBlock(ctx context.Context, id int) (*models.BlockListItem, error) {
	block, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logIfUnexpected(s.logger, "failed to get block", err, zap.Int("block_id", id))
		return nil, err
	}
	return block, nil
}

// ListBlocks retrieves all blocks with their usage counts
func (s *blockService) ListBlocks(ctx context.Context) ([]models.BlockListItem, error) {
	blocks, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list blocks", zap.Error(err))
		return nil, err
	}
	return blocks, nil
}

// ListUnusedBlocks retrieves blocks that no step references
func (s *blockService) ListUnusedBlocks(ctx context.Context) ([]models.Block, error) {
	blocks, err := s.repo.GetUnused(ctx)
	if err != nil {
		s.logger.Error("failed to list unused blocks", zap.Error(err))
		return nil, err
	}
	return blocks, nil
}

// UpdateBlock applies a partial update.
//
// Headline and description are merged. If the type or any type-specific field is given, the content
// is rebuilt as a whole for the new type (or the stored one when the type is omitted).
func (s *blockService) UpdateBlock(ctx context.Context, id int, req *models.UpdateBlockRequest) (*models.BlockListItem, error) {
	if req.Headline == nil && req.Description == nil && !req.RebuildsContent() {
		return nil, fmt.Errorf("%w: at least one field must be provided", apperrors.ErrValidation)
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logIfUnexpected(s.logger, "failed to get block for update", err, zap.Int("block_id", id))
		return nil, err
	}

	block := current.Block
	if req.Headline != nil {
		block.Headline = *req.Headline
	}
	if req.Description != nil {
		block.Description = req.Description
		if *req.Description == "" {
			block.Description = nil
		}
	}
	if req.RebuildsContent() {
		blockType := block.Type
		if req.Type != nil {
			blockType = *req.Type
		}
		content, err := models.BuildBlockContent(blockType, req.BlockContentFields)
		if err != nil {
			return nil, err
		}
		block.Type = blockType
		block.Content = content
	}
	block.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, &block); err != nil {
		logIfUnexpected(s.logger, "failed to update block", err, zap.Int("block_id", id))
		return nil, err
	}

	current.Block = block
	return current, nil
}

// DeleteBlock deletes a block that no step references.
//
// A referenced block is never deleted, the conflict names the block and its reference count.
func (s *blockService) DeleteBlock(ctx context.Context, id int) error {
	check, err := s.repo.GetDeleteCheck(ctx, id)
	if err != nil {
		logIfUnexpected(s.logger, "failed to check block usage", err, zap.Int("block_id", id))
		return err
	}
	if check.UsageCount > 0 {
		return blockInUseError(check.Headline, check.UsageCount)
	}

	err = s.repo.Delete(ctx, id)
	if apperrors.KindOf(err) == apperrors.KindConflict {
		// referenced between the check and the delete
		if recheck, recheckErr := s.repo.GetDeleteCheck(ctx, id); recheckErr == nil && recheck.UsageCount > 0 {
			return blockInUseError(recheck.Headline, recheck.UsageCount)
		}
		return fmt.Errorf("%w: cannot delete block %q: it is currently used in a step", apperrors.ErrConflict, check.Headline)
	}
	if err != nil {
		logIfUnexpected(s.logger, "failed to delete block", err, zap.Int("block_id", id))
		return err
	}

	s.logger.Info("block deleted", zap.Int("block_id", id))
	return nil
}

func blockInUseError(headline string, count int) error {
	return fmt.Errorf("%w: cannot delete block %q: it is currently used in %d step(s)", apperrors.ErrConflict, headline, count)
}

// logIfUnexpected logs err unless it is one of the classified client errors
func logIfUnexpected(logger *zap.Logger, msg string, err error, fields ...zap.Field) {
	if apperrors.KindOf(err) != apperrors.KindUnexpected {
		return
	}
	logger.Error(msg, append(fields, zap.Error(err))...)
}
