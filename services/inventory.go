package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"laundromat/apperror"
	"laundromat/models"
	"laundromat/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InventoryService struct {
	items store.InventoryStore
	logs  store.InventoryLogStore
	now   func() time.Time
}

func NewInventoryService(items store.InventoryStore, logs store.InventoryLogStore) *InventoryService {
	return &InventoryService{items: items, logs: logs, now: time.Now}
}

func (s *InventoryService) List(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "Error fetching inventory")
	}
	return items, nil
}

func (s *InventoryService) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := s.items.LowStock(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "Error fetching low stock items")
	}
	return items, nil
}

func validateLevels(item models.InventoryItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return apperror.RequiredField("name")
	}
	if item.CurrentStock < 0 || item.MinStock < 0 || item.MaxStock < 0 {
		return apperror.StockOutOfRange("stock levels cannot be negative")
	}
	if item.MaxStock > 0 && item.CurrentStock > item.MaxStock {
		return apperror.StockOutOfRange("currentStock cannot exceed maxStock")
	}
	return nil
}

func (s *InventoryService) Create(ctx context.Context, item models.InventoryItem) (*models.InventoryItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := validateLevels(item); err != nil {
		return nil, err
	}
	item.ID = primitive.NilObjectID
	item.LastUpdated = s.now()
	if err := s.items.Insert(ctx, &item); err != nil {
		return nil, apperror.Internal(err, "Error creating inventory item")
	}
	return &item, nil
}

func (s *InventoryService) find(ctx context.Context, id string) (*models.InventoryItem, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperror.NotFound("Item not found")
	}
	item, err := s.items.FindByID(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Item not found")
	}
	if err != nil {
		return nil, apperror.Internal(err, "Error fetching inventory item")
	}
	return item, nil
}

func (s *InventoryService) Update(ctx context.Context, id string, upd models.InventoryItem) (*models.InventoryItem, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Name = strings.TrimSpace(upd.Name)
	if err := validateLevels(upd); err != nil {
		return nil, err
	}

	upd.ID = item.ID
	upd.LastUpdated = s.now()
	if upd.Name != item.Name {
		if err := s.items.Rename(ctx, item.ID, upd.Name); err != nil {
			return nil, apperror.Internal(err, "Error updating inventory item")
		}
	}
	if err := s.items.UpdateLevels(ctx, item.ID, store.LevelsOf(upd)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("Item not found")
		}
		return nil, apperror.Internal(err, "Error updating inventory item")
	}
	return &upd, nil
}

func (s *InventoryService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return apperror.NotFound("Item not found")
	}
	err = s.items.Delete(ctx, oid)
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NotFound("Item not found")
	}
	if err != nil {
		return apperror.Internal(err, "Error deleting inventory item")
	}
	return nil
}

// Adjust sets the stock of an item and appends the matching audit log.
func (s *InventoryService) Adjust(ctx context.Context, id string, adj models.StockAdjustment) (*models.InventoryItem, *models.InventoryLog, error) {
	if adj.NewStock == nil {
		return nil, nil, apperror.RequiredField("newStock")
	}
	if !models.ValidUpdateType(adj.UpdateType) {
		return nil, nil, apperror.InvalidField("updateType")
	}
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	newStock := *adj.NewStock
	if newStock < 0 {
		return nil, nil, apperror.StockOutOfRange("newStock cannot be negative")
	}
	if item.MaxStock > 0 && newStock > item.MaxStock {
		return nil, nil, apperror.StockOutOfRange(fmt.Sprintf("newStock cannot exceed maxStock (%g)", item.MaxStock))
	}

	now := s.now()
	if err := s.items.SetStock(ctx, item.ID, newStock, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, apperror.NotFound("Item not found")
		}
		return nil, nil, apperror.Internal(err, "Error updating stock")
	}

	log := models.InventoryLog{
		ItemID:        item.ID.Hex(),
		PreviousStock: item.CurrentStock,
		NewStock:      newStock,
		UpdateType:    adj.UpdateType,
		Timestamp:     now,
		UpdatedBy:     adj.UpdatedBy,
		Notes:         adj.Notes,
	}
	if err := s.logs.Insert(ctx, &log); err != nil {
		return nil, nil, apperror.Internal(err, "Error writing inventory log")
	}

	item.CurrentStock = newStock
	item.LastUpdated = now
	return item, &log, nil
}

func (s *InventoryService) Logs(ctx context.Context, itemID string) ([]models.InventoryLog, error) {
	logs, err := s.logs.List(ctx, itemID)
	if err != nil {
		return nil, apperror.Internal(err, "Error fetching inventory logs")
	}
	return logs, nil
}
