// Package services holds the business rules between the HTTP controllers and the stores.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"laundromat/models"
	"laundromat/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const duplicateKeyCode = 11000

// Reconciler applies a batch of records staged offline by a POS client. Phases run
// in a fixed order (deletions, inventory, logs, sales, timesheets) and one failing
// item never aborts the batch; failures are reported back per item.
type Reconciler struct {
	sales      store.SalesStore
	timesheets store.TimesheetStore
	inventory  store.InventoryStore
	logs       store.InventoryLogStore

	// nameFallback matches inventory by name when the client has no usable id.
	nameFallback bool
	now          func() time.Time
}

func NewReconciler(sales store.SalesStore, timesheets store.TimesheetStore, inventory store.InventoryStore,
	logs store.InventoryLogStore, nameFallback bool) *Reconciler {
	return &Reconciler{
		sales:        sales,
		timesheets:   timesheets,
		inventory:    inventory,
		logs:         logs,
		nameFallback: nameFallback,
		now:          time.Now,
	}
}

// syncRun carries the state of one Sync call across phases.
type syncRun struct {
	req     models.SyncRequest
	result  models.SyncResult
	deleted map[string]bool   // wire ids requested for deletion
	names   map[string]string // wire id -> name, from the inventory list
}

func (run *syncRun) fail(errType string, index int, id string, err string) {
	e := models.ItemError{Type: errType, Error: err, ID: id}
	if index >= 0 {
		i := index
		e.Index = &i
	}
	run.result.Errors = append(run.result.Errors, e)
	zap.L().Warn("sync item failed",
		zap.String("type", errType),
		zap.Int("index", index),
		zap.String("id", id),
		zap.String("error", err),
	)
}

// Sync applies req. Every failure is folded into the result, including a context that
// ends mid-batch: the phases that did not run get one unindexed error each so the
// counts already applied still reach the caller.
func (r *Reconciler) Sync(ctx context.Context, req models.SyncRequest) models.SyncResult {
	run := &syncRun{
		req:     req,
		deleted: make(map[string]bool, len(req.DeletedInventoryIDs)),
		names:   make(map[string]string, len(req.Inventory)),
	}
	for _, id := range req.DeletedInventoryIDs {
		run.deleted[id] = true
	}
	for _, item := range req.Inventory {
		if item.ID != "" && strings.TrimSpace(item.Name) != "" {
			run.names[item.ID] = strings.TrimSpace(item.Name)
		}
	}

	phases := []struct {
		name    string
		errType string
		fn      func(context.Context, *syncRun)
	}{
		{"inventory_delete", models.ErrTypeInventoryDelete, r.applyDeletions},
		{"inventory_upsert", models.ErrTypeInventoryUpdate, r.applyInventory},
		{"inventory_logs", models.ErrTypeInventoryLog, r.applyLogs},
		{"sales", models.ErrTypeSales, r.applySales},
		{"timesheet", models.ErrTypeTimesheet, r.applyTimesheets},
	}
	aborted := false
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			aborted = true
			run.fail(p.errType, -1, "", fmt.Sprintf("sync deadline reached before %s: %v", p.name, err))
			continue
		}
		p.fn(ctx, run)
	}

	res := &run.result
	switch {
	case aborted:
		res.Message = "Sync completed with errors"
		SyncBatchesTotal.WithLabelValues("aborted").Inc()
	case len(res.Errors) == 0:
		res.Message = "Sync completed successfully"
		SyncBatchesTotal.WithLabelValues("ok").Inc()
	default:
		res.Message = "Sync completed with errors"
		SyncBatchesTotal.WithLabelValues("partial").Inc()
	}

	zap.L().Info("sync completed",
		zap.Int("sales", res.SavedSalesCount),
		zap.Int("timesheets", res.SavedTimesheetsCount),
		zap.Int("inventory", res.SavedInventoryCount),
		zap.Int("logs", res.SavedLogsCount),
		zap.Int("deleted", res.DeletedItemsCount),
		zap.Int("skipped", res.SkippedDuplicates),
		zap.Int("errors", len(res.Errors)),
		zap.Bool("aborted", aborted),
	)
	return run.result
}

func (r *Reconciler) applyDeletions(ctx context.Context, run *syncRun) {
	for _, rawID := range run.req.DeletedInventoryIDs {
		ref, err := models.ParseItemRef(rawID)
		if err == nil {
			if p, ok := ref.(models.PersistedRef); ok {
				err = r.inventory.Delete(ctx, p.ID)
				if err == nil {
					run.result.DeletedItemsCount++
					SyncItemsTotal.WithLabelValues("inventory_delete", "saved").Inc()
					continue
				}
				if !errors.Is(err, store.ErrNotFound) {
					run.fail(models.ErrTypeInventoryDelete, -1, rawID, err.Error())
					continue
				}
			}
		}

		if name := run.names[rawID]; r.nameFallback && name != "" {
			n, err := r.inventory.DeleteByName(ctx, name, primitive.NilObjectID)
			if err != nil {
				run.fail(models.ErrTypeInventoryDelete, -1, rawID, err.Error())
				continue
			}
			if n > 0 {
				zap.L().Warn("inventory deleted by name fallback",
					zap.String("id", rawID), zap.String("name", name), zap.Int64("count", n))
				run.result.DeletedItemsCount += int(n)
				SyncItemsTotal.WithLabelValues("inventory_delete", "saved").Add(float64(n))
				continue
			}
		}

		SyncItemsTotal.WithLabelValues("inventory_delete", "failed").Inc()
		run.fail(models.ErrTypeInventoryDelete, -1, rawID, models.ItemNotFoundPrefix+rawID)
	}
}

func (r *Reconciler) applyInventory(ctx context.Context, run *syncRun) {
	for i, item := range run.req.Inventory {
		if run.deleted[item.ID] {
			continue
		}

		levels := store.StockLevels{
			CurrentStock: item.CurrentStock,
			MaxStock:     item.MaxStock,
			MinStock:     item.MinStock,
			Unit:         item.Unit,
			LastUpdated:  r.now(),
		}
		if item.LastUpdated != nil && !item.LastUpdated.IsZero() {
			levels.LastUpdated = *item.LastUpdated
		}

		ref, err := models.ParseItemRef(item.ID)
		if err != nil {
			run.fail(models.ErrTypeInventoryUpdate, i, item.ID, err.Error())
			continue
		}

		switch ref := ref.(type) {
		case models.PersistedRef:
			err = r.inventory.UpdateLevels(ctx, ref.ID, levels)
			if errors.Is(err, store.ErrNotFound) {
				run.fail(models.ErrTypeInventoryUpdate, i, item.ID, models.ItemNotFoundPrefix+item.ID)
				continue
			}
		case models.PendingRef:
			var id primitive.ObjectID
			id, err = r.upsertPending(ctx, strings.TrimSpace(item.Name), levels)
			if err == nil && ref.TempID != "" {
				if run.result.ResolvedIDs == nil {
					run.result.ResolvedIDs = make(map[string]string)
				}
				run.result.ResolvedIDs[ref.TempID] = id.Hex()
			}
		}
		if err != nil {
			SyncItemsTotal.WithLabelValues("inventory", "failed").Inc()
			run.fail(models.ErrTypeInventoryUpdate, i, item.ID, err.Error())
			continue
		}
		run.result.SavedInventoryCount++
		SyncItemsTotal.WithLabelValues("inventory", "saved").Inc()
	}
}

// upsertPending stores an item the client created offline. With name fallback on, an
// existing same-named item is updated instead and its duplicates are purged.
func (r *Reconciler) upsertPending(ctx context.Context, name string, levels store.StockLevels) (primitive.ObjectID, error) {
	if name == "" {
		return primitive.NilObjectID, errors.New("name is required for new items")
	}

	if r.nameFallback {
		existing, err := r.inventory.FindByName(ctx, name)
		if err != nil {
			return primitive.NilObjectID, err
		}
		if len(existing) > 0 {
			keep := existing[0].ID
			if err := r.inventory.UpdateLevels(ctx, keep, levels); err != nil {
				return primitive.NilObjectID, err
			}
			if len(existing) > 1 {
				n, err := r.inventory.DeleteByName(ctx, name, keep)
				if err != nil {
					return primitive.NilObjectID, err
				}
				zap.L().Warn("purged duplicate inventory items",
					zap.String("name", name), zap.Int64("count", n))
			}
			return keep, nil
		}
	}

	item := models.InventoryItem{
		Name:         name,
		CurrentStock: levels.CurrentStock,
		MaxStock:     levels.MaxStock,
		MinStock:     levels.MinStock,
		Unit:         levels.Unit,
		LastUpdated:  levels.LastUpdated,
	}
	if err := r.inventory.Insert(ctx, &item); err != nil {
		return primitive.NilObjectID, err
	}
	return item.ID, nil
}

func (r *Reconciler) applyLogs(ctx context.Context, run *syncRun) {
	for i, l := range run.req.InventoryLogs {
		itemID := l.ItemID
		if resolved, ok := run.result.ResolvedIDs[itemID]; ok {
			itemID = resolved
		}
		if !models.ValidUpdateType(l.UpdateType) {
			run.fail(models.ErrTypeInventoryLog, i, l.ItemID, fmt.Sprintf("invalid updateType %q", l.UpdateType))
			continue
		}

		log := models.InventoryLog{
			ItemID:        itemID,
			PreviousStock: l.PreviousStock,
			NewStock:      l.NewStock,
			UpdateType:    l.UpdateType,
			Timestamp:     r.now(),
			UpdatedBy:     l.UpdatedBy,
			Notes:         l.Notes,
		}
		if l.Timestamp != nil && !l.Timestamp.IsZero() {
			log.Timestamp = *l.Timestamp
		}

		if err := r.logs.Insert(ctx, &log); err != nil {
			SyncItemsTotal.WithLabelValues("inventory_log", "failed").Inc()
			run.fail(models.ErrTypeInventoryLog, i, l.ItemID, err.Error())
			continue
		}
		run.result.SavedLogsCount++
		SyncItemsTotal.WithLabelValues("inventory_log", "saved").Inc()
	}
}

func (r *Reconciler) applySales(ctx context.Context, run *syncRun) {
	keys := make([]string, len(run.req.Sales))
	for i, s := range run.req.Sales {
		keys[i] = s.ClientKey
	}
	skip := r.knownKeys(ctx, "sales", keys, r.sales.ExistingClientKeys)

	now := r.now()
	var batch []models.SaleEntry
	var origin []int
	for i, s := range run.req.Sales {
		if skip[i] {
			run.result.SkippedDuplicates++
			continue
		}
		if s.Date.IsZero() {
			run.fail(models.ErrTypeSales, i, "", "date is required")
			continue
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		s.ID = primitive.NilObjectID
		batch = append(batch, s)
		origin = append(origin, i)
	}
	if len(batch) == 0 {
		return
	}

	res, err := r.sales.InsertMany(ctx, batch)
	run.result.SavedSalesCount += res.Inserted
	r.foldBulk(run, models.ErrTypeSales, "sales", res, err, origin, keys)
}

func (r *Reconciler) applyTimesheets(ctx context.Context, run *syncRun) {
	keys := make([]string, len(run.req.Timesheet))
	for i, t := range run.req.Timesheet {
		keys[i] = t.ClientKey
	}
	skip := r.knownKeys(ctx, "timesheet", keys, r.timesheets.ExistingClientKeys)

	now := r.now()
	var batch []models.TimesheetEntry
	var origin []int
	for i, t := range run.req.Timesheet {
		if skip[i] {
			run.result.SkippedDuplicates++
			continue
		}
		entry := t.Entry(now)
		if entry.TimeIn.IsZero() {
			run.fail(models.ErrTypeTimesheet, i, "", "timeIn is required")
			continue
		}
		if entry.EmployeeID == "" && entry.EmployeeName == "" {
			run.fail(models.ErrTypeTimesheet, i, "", "employeeId or employeeName is required")
			continue
		}
		batch = append(batch, entry)
		origin = append(origin, i)
	}
	if len(batch) == 0 {
		return
	}

	res, err := r.timesheets.InsertMany(ctx, batch)
	run.result.SavedTimesheetsCount += res.Inserted
	r.foldBulk(run, models.ErrTypeTimesheet, "timesheet", res, err, origin, keys)
}

// knownKeys flags records whose clientKey is already stored or repeats an earlier
// record of the same batch. A failed lookup only logs; the unique index still
// rejects replays.
func (r *Reconciler) knownKeys(ctx context.Context, category string, keys []string,
	lookup func(context.Context, []string) (map[string]bool, error)) []bool {
	skip := make([]bool, len(keys))
	var present []string
	for _, k := range keys {
		if k != "" {
			present = append(present, k)
		}
	}
	if len(present) == 0 {
		return skip
	}

	stored, err := lookup(ctx, present)
	if err != nil {
		zap.L().Warn("client key lookup failed", zap.String("category", category), zap.Error(err))
		stored = map[string]bool{}
	}
	seen := make(map[string]bool, len(present))
	for i, k := range keys {
		if k == "" {
			continue
		}
		if stored[k] || seen[k] {
			skip[i] = true
			SyncItemsTotal.WithLabelValues(category, "skipped").Inc()
		}
		seen[k] = true
	}
	return skip
}

// foldBulk records the outcome of an unordered bulk insert. Duplicate-key rejections
// of keyed records are replays and count as skipped.
func (r *Reconciler) foldBulk(run *syncRun, errType, category string, res store.BulkInsertResult, err error,
	origin []int, keys []string) {
	SyncItemsTotal.WithLabelValues(category, "saved").Add(float64(res.Inserted))
	if err != nil {
		SyncItemsTotal.WithLabelValues(category, "failed").Add(float64(res.Attempted))
		run.fail(errType, -1, "", err.Error())
		return
	}
	for _, f := range res.Failures {
		idx := -1
		if f.Index >= 0 && f.Index < len(origin) {
			idx = origin[f.Index]
		}
		if f.Code == duplicateKeyCode && idx >= 0 && keys[idx] != "" {
			run.result.SkippedDuplicates++
			SyncItemsTotal.WithLabelValues(category, "skipped").Inc()
			continue
		}
		SyncItemsTotal.WithLabelValues(category, "failed").Inc()
		run.fail(errType, idx, "", f.Err)
	}
}
