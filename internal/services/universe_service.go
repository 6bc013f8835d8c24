package services

import (
	"context"
	"strings"
	"time"

	"github.com/coursebuilder/backend/internal/models"
	"go.uber.org/zap"
)

// UniverseRepository is the interface that wraps methods for universes data access
type UniverseRepository interface {
	// GetAll retrieves all universes ordered by name
	//
	// "ctx" is the context for the request.
	//
	// Returns a list of universes and an error if any.
	GetAll(ctx context.Context) ([]models.Universe, error)
	// GetByID retrieves a universe by ID
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the universe.
	//
	// Returns the universe and an error if any (not found if the universe does not exist).
	GetByID(ctx context.Context, id int) (*models.Universe, error)
	// Create creates a new universe and fills in its ID
	//
	// "ctx" is the context for the request.
	// "universe" is the universe to create.
	//
	// Returns an error if any.
	Create(ctx context.Context, universe *models.Universe) error
	// Update renames a universe
	//
	// "ctx" is the context for the request.
	// "universe" is the universe to update.
	//
	// Returns an error if any.
	Update(ctx context.Context, universe *models.Universe) error
	// Delete deletes a universe
	//
	// "ctx" is the context for the request.
	// "id" is the ID of the universe.
	//
	// Returns an error if any (conflict if courses are still assigned).
	Delete(ctx context.Context, id int) error
}

type universeService struct {
	repo   UniverseRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewUniverseService creates a new universe service
func NewUniverseService(repo UniverseRepository, logger *zap.Logger) *universeService {
	return &universeService{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ListUniverses retrieves all universes
func (s *universeService) ListUniverses(ctx context.Context) ([]models.Universe, error) {
	universes, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list universes", zap.Error(err))
		return nil, err
	}
	return universes, nil
}

// GetUniverse retrieves a universe by ID
func (s *universeService) GetUniverse(ctx context.Context, id int) (*models.Universe, error) {
	universe, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logIfUnexpected(s.logger, "failed to get universe", err, zap.Int("universe_id", id))
		return nil, err
	}
	return universe, nil
}

// CreateUniverse creates a universe with a trimmed name
func (s *universeService) CreateUniverse(ctx context.Context, req *models.CreateUniverseRequest) (*models.Universe, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	now := s.now()
	universe := &models.Universe{Name: req.Name, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, universe); err != nil {
		s.logger.Error("failed to create universe", zap.Error(err))
		return nil, err
	}

	s.logger.Info("universe created", zap.Int("universe_id", universe.ID))
	return universe, nil
}

// RenameUniverse changes the name of a universe
func (s *universeService) RenameUniverse(ctx context.Context, id int, req *models.UpdateUniverseRequest) (*models.Universe, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	universe, err := s.repo.GetByID(ctx, id)
	if err != nil {
		logIfUnexpected(s.logger, "failed to get universe for rename", err, zap.Int("universe_id", id))
		return nil, err
	}

	universe.Name = req.Name
	universe.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, universe); err != nil {
		s.logger.Error("failed to rename universe", zap.Error(err), zap.Int("universe_id", id))
		return nil, err
	}

	return universe, nil
}

// DeleteUniverse deletes a universe that has no courses assigned
func (s *universeService) DeleteUniverse(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		logIfUnexpected(s.logger, "failed to delete universe", err, zap.Int("universe_id", id))
		return err
	}

	s.logger.Info("universe deleted", zap.Int("universe_id", id))
	return nil
}
