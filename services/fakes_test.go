package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"laundromat/models"
	"laundromat/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memInventory struct {
	items []models.InventoryItem
	err   error
}

func (m *memInventory) indexOf(id primitive.ObjectID) int {
	for i, it := range m.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (m *memInventory) List(ctx context.Context) ([]models.InventoryItem, error) {
	return append([]models.InventoryItem{}, m.items...), m.err
}

func (m *memInventory) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	var out []models.InventoryItem
	for _, it := range m.items {
		if it.LowStock() {
			out = append(out, it)
		}
	}
	return out, m.err
}

func (m *memInventory) FindByID(ctx context.Context, id primitive.ObjectID) (*models.InventoryItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := m.indexOf(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	it := m.items[i]
	return &it, nil
}

func (m *memInventory) FindByName(ctx context.Context, name string) ([]models.InventoryItem, error) {
	var out []models.InventoryItem
	for _, it := range m.items {
		if it.Name == name {
			out = append(out, it)
		}
	}
	return out, m.err
}

func (m *memInventory) Insert(ctx context.Context, item *models.InventoryItem) error {
	if m.err != nil {
		return m.err
	}
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	m.items = append(m.items, *item)
	return nil
}

func (m *memInventory) UpdateLevels(ctx context.Context, id primitive.ObjectID, l store.StockLevels) error {
	i := m.indexOf(id)
	if i < 0 {
		return store.ErrNotFound
	}
	it := &m.items[i]
	it.CurrentStock, it.MaxStock, it.MinStock, it.Unit, it.LastUpdated = l.CurrentStock, l.MaxStock, l.MinStock, l.Unit, l.LastUpdated
	return nil
}

func (m *memInventory) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	i := m.indexOf(id)
	if i < 0 {
		return store.ErrNotFound
	}
	m.items[i].Name = name
	return nil
}

func (m *memInventory) SetStock(ctx context.Context, id primitive.ObjectID, stock float64, at time.Time) error {
	i := m.indexOf(id)
	if i < 0 {
		return store.ErrNotFound
	}
	m.items[i].CurrentStock = stock
	m.items[i].LastUpdated = at
	return nil
}

func (m *memInventory) Delete(ctx context.Context, id primitive.ObjectID) error {
	i := m.indexOf(id)
	if i < 0 {
		return store.ErrNotFound
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return nil
}

func (m *memInventory) DeleteByName(ctx context.Context, name string, keep primitive.ObjectID) (int64, error) {
	var kept []models.InventoryItem
	var n int64
	for _, it := range m.items {
		if it.Name == name && it.ID != keep {
			n++
			continue
		}
		kept = append(kept, it)
	}
	m.items = kept
	return n, nil
}

type memLogs struct {
	logs []models.InventoryLog
	err  error
}

func (m *memLogs) Insert(ctx context.Context, log *models.InventoryLog) error {
	if m.err != nil {
		return m.err
	}
	log.ID = primitive.NewObjectID()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memLogs) List(ctx context.Context, itemID string) ([]models.InventoryLog, error) {
	var out []models.InventoryLog
	for _, l := range m.logs {
		if itemID == "" || l.ItemID == itemID {
			out = append(out, l)
		}
	}
	return out, m.err
}

// fakeSales only implements what a test wires; other calls panic on the nil interface.
type fakeSales struct {
	store.SalesStore
	inserted     [][]models.SaleEntry
	keys         map[string]bool
	insertManyFn func(sales []models.SaleEntry) (store.BulkInsertResult, error)
	listFn       func(from, to *time.Time) ([]models.SaleEntry, error)
}

func (f *fakeSales) InsertMany(ctx context.Context, sales []models.SaleEntry) (store.BulkInsertResult, error) {
	f.inserted = append(f.inserted, sales)
	if f.insertManyFn != nil {
		return f.insertManyFn(sales)
	}
	return store.BulkInsertResult{Attempted: len(sales), Inserted: len(sales)}, nil
}

func (f *fakeSales) ExistingClientKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	found := map[string]bool{}
	for _, k := range keys {
		if f.keys[k] {
			found[k] = true
		}
	}
	return found, nil
}

func (f *fakeSales) List(ctx context.Context, from, to *time.Time) ([]models.SaleEntry, error) {
	return f.listFn(from, to)
}

type memTimesheets struct {
	entries []models.TimesheetEntry
	keys    map[string]bool
}

func (m *memTimesheets) Find(ctx context.Context, f store.TimesheetFilter) ([]models.TimesheetEntry, error) {
	var out []models.TimesheetEntry
	for _, e := range m.entries {
		if f.EmployeeID != "" && e.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.From != nil && e.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && !e.Date.Before(models.EndOfDay(*f.To)) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memTimesheets) FindOpen(ctx context.Context, employeeID string, after, before time.Time) (*models.TimesheetEntry, error) {
	var open []models.TimesheetEntry
	for _, e := range m.entries {
		if e.EmployeeID != employeeID || e.Status != models.TimesheetPending {
			continue
		}
		if !after.IsZero() && e.TimeIn.Before(after) {
			continue
		}
		if !before.IsZero() && e.TimeIn.After(before) {
			continue
		}
		open = append(open, e)
	}
	if len(open) == 0 {
		return nil, store.ErrNotFound
	}
	sort.Slice(open, func(a, b int) bool { return open[a].TimeIn.After(open[b].TimeIn) })
	e := open[0]
	return &e, nil
}

func (m *memTimesheets) Insert(ctx context.Context, entry *models.TimesheetEntry) error {
	entry.ID = primitive.NewObjectID()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memTimesheets) InsertMany(ctx context.Context, entries []models.TimesheetEntry) (store.BulkInsertResult, error) {
	for i := range entries {
		entries[i].ID = primitive.NewObjectID()
		m.entries = append(m.entries, entries[i])
	}
	return store.BulkInsertResult{Attempted: len(entries), Inserted: len(entries)}, nil
}

func (m *memTimesheets) Close(ctx context.Context, id primitive.ObjectID, out time.Time, duration int) error {
	for i := range m.entries {
		e := &m.entries[i]
		if e.ID == id && e.Status == models.TimesheetPending {
			e.Close(out)
			e.Duration = duration
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memTimesheets) ExistingClientKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	found := map[string]bool{}
	for _, k := range keys {
		if m.keys[k] {
			found[k] = true
		}
	}
	return found, nil
}

type memEmployees struct {
	emps []models.Employee
}

func (m *memEmployees) List(ctx context.Context, status string) ([]models.Employee, error) {
	var out []models.Employee
	for _, e := range m.emps {
		if status == "" || e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEmployees) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Employee, error) {
	for _, e := range m.emps {
		if e.ID == id {
			emp := e
			return &emp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memEmployees) FindByName(ctx context.Context, name string) (*models.Employee, error) {
	for _, e := range m.emps {
		if strings.EqualFold(e.Name, name) {
			emp := e
			return &emp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memEmployees) Insert(ctx context.Context, emp *models.Employee) error {
	emp.ID = primitive.NewObjectID()
	m.emps = append(m.emps, *emp)
	return nil
}

func (m *memEmployees) Update(ctx context.Context, id primitive.ObjectID, upd models.UpdateEmployee, at time.Time) error {
	for i := range m.emps {
		if m.emps[i].ID == id {
			if upd.Name != "" {
				m.emps[i].Name = upd.Name
			}
			if upd.Status != "" {
				m.emps[i].Status = upd.Status
			}
			if upd.Role != "" {
				m.emps[i].Role = upd.Role
			}
			m.emps[i].UpdatedAt = at
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memEmployees) SetStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) error {
	return m.Update(ctx, id, models.UpdateEmployee{Status: status}, at)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
