package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"laundromat/models"
	"laundromat/store"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// LowStockCheck looks for items at or below their reorder level and mails a summary.
type LowStockCheck struct {
	Inventory store.InventoryStore
	Notifier  Notifier // nil only logs
	To        string
}

// Run is the scheduler entrypoint.
func (j *LowStockCheck) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := j.Check(ctx); err != nil {
		zap.L().Error("low stock check failed", zap.Error(err))
	}
}

// Check returns the low items it found.
func (j *LowStockCheck) Check(ctx context.Context) ([]models.InventoryItem, error) {
	items, err := j.Inventory.LowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("load low stock items: %w", err)
	}
	zap.L().Info("low stock check", zap.Int("items", len(items)))
	if len(items) == 0 || j.Notifier == nil || j.To == "" {
		return items, nil
	}

	if err := j.Notifier.Send(j.To, "Low stock alert", LowStockReport(items)); err != nil {
		return items, fmt.Errorf("send low stock alert: %w", err)
	}
	return items, nil
}

func LowStockReport(items []models.InventoryItem) string {
	var b strings.Builder
	b.WriteString("The following items need restocking:\n\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- %s: %g %s (minimum %g, maximum %g)\n",
			it.Name, it.CurrentStock, it.Unit, it.MinStock, it.MaxStock)
	}
	return b.String()
}

// ScheduleLowStockCheck registers the check once a day at the given "HH:MM".
func ScheduleLowStockCheck(s *gocron.Scheduler, at string, job *LowStockCheck) error {
	_, err := s.Every(1).Day().At(at).Do(job.Run)
	return err
}
