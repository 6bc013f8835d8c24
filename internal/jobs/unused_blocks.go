// Package jobs holds background jobs run on a cron schedule
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/coursebuilder/backend/internal/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const reportTimeout = time.Minute

// UnusedBlockLister lists blocks that no step references
type UnusedBlockLister interface {
	ListUnusedBlocks(ctx context.Context) ([]models.Block, error)
}

// UnusedBlockReport periodically logs the blocks that are not used by any course
type UnusedBlockReport struct {
	blocks UnusedBlockLister
	logger *zap.Logger
}

// NewUnusedBlockReport creates a new unused block report job
func NewUnusedBlockReport(blocks UnusedBlockLister, logger *zap.Logger) *UnusedBlockReport {
	return &UnusedBlockReport{
		blocks: blocks,
		logger: logger,
	}
}

// Run lists the unused blocks once and logs the result
func (j *UnusedBlockReport) Run(ctx context.Context) {
	blocks, err := j.blocks.ListUnusedBlocks(ctx)
	if err != nil {
		j.logger.Error("unused block report failed", zap.Error(err))
		return
	}
	if len(blocks) == 0 {
		j.logger.Info("unused block report: no unused blocks")
		return
	}

	ids := make([]int, len(blocks))
	for i, block := range blocks {
		ids[i] = block.ID
	}
	j.logger.Info("unused block report",
		zap.Int("count", len(blocks)),
		zap.Ints("block_ids", ids),
	)
}

// Schedule registers the report on a new cron scheduler.
//
// The caller starts the returned scheduler and stops it on shutdown.
func Schedule(spec string, job *UnusedBlockReport) (*cron.Cron, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
		defer cancel()
		job.Run(ctx)
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule unused block report: %w", err)
	}
	return c, nil
}
