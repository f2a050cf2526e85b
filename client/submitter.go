package client

import (
	"context"
	"fmt"

	"laundromat/models"

	"go.uber.org/zap"
)

// Poster sends one batch to the back office.
type Poster interface {
	Sync(ctx context.Context, batch models.SyncRequest) (models.SyncResult, error)
}

// Submitter drains the stage into the back office.
type Submitter struct {
	stage  *Stage
	poster Poster
}

func NewSubmitter(stage *Stage, poster Poster) *Submitter {
	return &Submitter{stage: stage, poster: poster}
}

// Submit posts one batch without touching the stage.
func (s *Submitter) Submit(ctx context.Context, batch models.SyncRequest) (models.SyncResult, error) {
	return s.poster.Sync(ctx, batch)
}

// Sync sends everything pending and acknowledges what the server accepted. A failed
// request leaves the stage untouched, so the next call resends the same rows.
func (s *Submitter) Sync(ctx context.Context) (models.SyncResult, error) {
	batch, err := s.stage.Pending(ctx)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("read stage: %w", err)
	}
	if batch.Request.Empty() {
		return models.SyncResult{Message: "Nothing to sync"}, nil
	}

	result, err := s.Submit(ctx, batch.Request)
	if err != nil {
		return models.SyncResult{}, err
	}
	if err := s.stage.Ack(ctx, batch, result); err != nil {
		return result, fmt.Errorf("acknowledge batch: %w", err)
	}

	if len(result.Errors) > 0 {
		zap.L().Warn("sync completed with item errors",
			zap.Int("errors", len(result.Errors)),
			zap.Int("sales", result.SavedSalesCount),
			zap.Int("timesheets", result.SavedTimesheetsCount))
	} else {
		zap.L().Info("sync completed",
			zap.Int("sales", result.SavedSalesCount),
			zap.Int("timesheets", result.SavedTimesheetsCount),
			zap.Int("inventory", result.SavedInventoryCount),
			zap.Int("logs", result.SavedLogsCount),
			zap.Int("deleted", result.DeletedItemsCount))
	}
	return result, nil
}
