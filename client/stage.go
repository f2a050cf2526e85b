// Package client is the POS side of offline sync: a local staging store that queues
// records while the back office is unreachable, and a submitter that pushes them.
package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"laundromat/models"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNoOpenShift   = errors.New("no open shift for this employee")
	ErrAlreadyIn     = errors.New("employee already has an open shift")
	ErrUnknownItem   = errors.New("inventory item is not staged")
	ErrInvalidUpdate = errors.New("invalid update type")
)

const schema = `
CREATE TABLE IF NOT EXISTS staged_sales (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	client_key TEXT NOT NULL UNIQUE,
	payload    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS staged_timesheets (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	client_key    TEXT NOT NULL UNIQUE,
	employee_id   TEXT NOT NULL,
	employee_name TEXT NOT NULL DEFAULT '',
	time_in       TEXT NOT NULL,
	time_out      TEXT
);
CREATE TABLE IF NOT EXISTS staged_inventory (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id       TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	current_stock REAL NOT NULL,
	max_stock     REAL NOT NULL,
	min_stock     REAL NOT NULL,
	unit          TEXT NOT NULL DEFAULT '',
	last_updated  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS staged_inventory_logs (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id TEXT NOT NULL,
	payload TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS staged_deletions (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	item_id TEXT NOT NULL UNIQUE
);`

// Stage is the local SQLite queue. Rows stay until the server acknowledges them.
type Stage struct {
	db *sql.DB
	// loc is the zone of the counter; shifts are dated by its calendar
	loc *time.Location
	now func() time.Time
}

func OpenStage(path string) (*Stage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create stage directory: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open stage: %w", err)
	}
	// one writer; the CLI never needs more
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create stage schema: %w", err)
	}
	return &Stage{db: db, loc: time.Local, now: time.Now}, nil
}

func (s *Stage) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// AddSale queues a sale and returns its idempotency key.
func (s *Stage) AddSale(ctx context.Context, sale models.SaleEntry) (string, error) {
	if sale.Date.IsZero() {
		return "", errors.New("sale date is required")
	}
	if sale.ClientKey == "" {
		sale.ClientKey = uuid.NewString()
	}
	sale.ID = primitive.NilObjectID

	payload, err := json.Marshal(sale)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO staged_sales (client_key, payload) VALUES (?, ?)`, sale.ClientKey, string(payload))
	if err != nil {
		return "", fmt.Errorf("stage sale: %w", err)
	}
	return sale.ClientKey, nil
}

// AddClockEvent opens a shift on "in" and closes the newest open shift on "out".
func (s *Stage) AddClockEvent(ctx context.Context, employeeID, employeeName, kind string, at time.Time) error {
	if at.IsZero() {
		at = s.now()
	}
	switch kind {
	case "in":
		var open int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM staged_timesheets WHERE employee_id = ? AND time_out IS NULL`, employeeID).Scan(&open)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrAlreadyIn
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO staged_timesheets (client_key, employee_id, employee_name, time_in) VALUES (?, ?, ?, ?)`,
			uuid.NewString(), employeeID, employeeName, formatTime(at))
		return err

	case "out":
		res, err := s.db.ExecContext(ctx, `
			UPDATE staged_timesheets SET time_out = ?
			WHERE seq = (SELECT seq FROM staged_timesheets
			             WHERE employee_id = ? AND time_out IS NULL
			             ORDER BY time_in DESC LIMIT 1)`,
			formatTime(at), employeeID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNoOpenShift
		}
		return nil
	}
	return fmt.Errorf("clock event type must be in or out, got %q", kind)
}

// UpsertInventory stages the levels of an item. Items without an id get a local one,
// which is returned.
func (s *Stage) UpsertInventory(ctx context.Context, item models.SyncInventoryItem) (string, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return "", errors.New("item name is required")
	}
	if item.ID == "" {
		item.ID = models.LocalIDPrefix + uuid.NewString()
	}
	updated := s.now()
	if item.LastUpdated != nil {
		updated = *item.LastUpdated
	}

	// REPLACE gives the row a fresh seq, so an edit made after a snapshot survives its ack.
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO staged_inventory (item_id, name, current_stock, max_stock, min_stock, unit, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.CurrentStock, item.MaxStock, item.MinStock, item.Unit, formatTime(updated))
	if err != nil {
		return "", fmt.Errorf("stage inventory: %w", err)
	}
	return item.ID, nil
}

// DeleteInventory drops the staged copy of an item. Items the server already knows
// are queued for deletion there too; local-only items simply disappear with their logs.
func (s *Stage) DeleteInventory(ctx context.Context, itemID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM staged_inventory WHERE item_id = ?`, itemID); err != nil {
		return err
	}
	if strings.HasPrefix(itemID, models.LocalIDPrefix) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM staged_inventory_logs WHERE item_id = ?`, itemID); err != nil {
			return err
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO staged_deletions (item_id) VALUES (?) ON CONFLICT(item_id) DO NOTHING`, itemID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Stage) AddInventoryLog(ctx context.Context, log models.SyncInventoryLog) error {
	if log.ItemID == "" {
		return ErrUnknownItem
	}
	if !models.ValidUpdateType(log.UpdateType) {
		return ErrInvalidUpdate
	}
	if log.Timestamp == nil {
		now := s.now()
		log.Timestamp = &now
	}
	payload, err := json.Marshal(log)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO staged_inventory_logs (item_id, payload) VALUES (?, ?)`, log.ItemID, string(payload))
	return err
}

// Batch is a snapshot of staged rows. Each category keeps the seqs of the rows it
// sent, in request order, so Ack can clear exactly the records the server applied and
// leave anything staged after the snapshot alone.
type Batch struct {
	Request models.SyncRequest

	salesSeqs     []int64
	inventorySeqs []int64
	logSeqs       []int64
	deletionSeqs  []int64
	// shifts close out of seq order, so sent ones are tracked by key
	timesheetKeys []string
}

// Pending snapshots everything ready to send. Open shifts wait for their clock-out.
func (s *Stage) Pending(ctx context.Context) (Batch, error) {
	var b Batch
	var err error

	if b.Request.Sales, b.salesSeqs, err = s.pendingSales(ctx); err != nil {
		return Batch{}, err
	}
	if b.Request.Timesheet, err = s.pendingTimesheets(ctx); err != nil {
		return Batch{}, err
	}
	for _, ts := range b.Request.Timesheet {
		b.timesheetKeys = append(b.timesheetKeys, ts.ClientKey)
	}
	if b.Request.Inventory, b.inventorySeqs, err = s.pendingInventory(ctx); err != nil {
		return Batch{}, err
	}
	if b.Request.InventoryLogs, b.logSeqs, err = s.pendingLogs(ctx); err != nil {
		return Batch{}, err
	}
	if b.Request.DeletedInventoryIDs, b.deletionSeqs, err = s.pendingDeletions(ctx); err != nil {
		return Batch{}, err
	}
	return b, nil
}

func (s *Stage) pendingSales(ctx context.Context) ([]models.SaleEntry, []int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, payload FROM staged_sales ORDER BY seq`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var out []models.SaleEntry
	var seqs []int64
	for rows.Next() {
		var seq int64
		var payload string
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, nil, err
		}
		var sale models.SaleEntry
		if err := json.Unmarshal([]byte(payload), &sale); err != nil {
			return nil, nil, fmt.Errorf("staged sale %d: %w", seq, err)
		}
		out = append(out, sale)
		seqs = append(seqs, seq)
	}
	return out, seqs, rows.Err()
}

func (s *Stage) pendingTimesheets(ctx context.Context) ([]models.SyncTimesheet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT client_key, employee_id, employee_name, time_in, time_out
		FROM staged_timesheets WHERE time_out IS NOT NULL ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SyncTimesheet
	for rows.Next() {
		var key, empID, empName, in, outAt string
		if err := rows.Scan(&key, &empID, &empName, &in, &outAt); err != nil {
			return nil, err
		}
		timeIn, err := parseTime(in)
		if err != nil {
			return nil, err
		}
		timeOut, err := parseTime(outAt)
		if err != nil {
			return nil, err
		}
		out = append(out, models.SyncTimesheet{
			EmployeeID:   empID,
			EmployeeName: empName,
			Date:         models.CalendarDay(timeIn, s.loc),
			TimeIn:       &timeIn,
			TimeOut:      &timeOut,
			Duration:     models.DurationMinutes(timeIn, timeOut),
			ClientKey:    key,
		})
	}
	return out, rows.Err()
}

func (s *Stage) pendingInventory(ctx context.Context) ([]models.SyncInventoryItem, []int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, item_id, name, current_stock, max_stock, min_stock, unit, last_updated
		FROM staged_inventory ORDER BY seq`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var out []models.SyncInventoryItem
	var seqs []int64
	for rows.Next() {
		var seq int64
		var item models.SyncInventoryItem
		var updated string
		if err := rows.Scan(&seq, &item.ID, &item.Name, &item.CurrentStock, &item.MaxStock,
			&item.MinStock, &item.Unit, &updated); err != nil {
			return nil, nil, err
		}
		t, err := parseTime(updated)
		if err != nil {
			return nil, nil, err
		}
		item.LastUpdated = &t
		out = append(out, item)
		seqs = append(seqs, seq)
	}
	return out, seqs, rows.Err()
}

func (s *Stage) pendingLogs(ctx context.Context) ([]models.SyncInventoryLog, []int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, payload FROM staged_inventory_logs ORDER BY seq`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var out []models.SyncInventoryLog
	var seqs []int64
	for rows.Next() {
		var seq int64
		var payload string
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, nil, err
		}
		var log models.SyncInventoryLog
		if err := json.Unmarshal([]byte(payload), &log); err != nil {
			return nil, nil, fmt.Errorf("staged log %d: %w", seq, err)
		}
		out = append(out, log)
		seqs = append(seqs, seq)
	}
	return out, seqs, rows.Err()
}

func (s *Stage) pendingDeletions(ctx context.Context) ([]string, []int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT seq, item_id FROM staged_deletions ORDER BY seq`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var out []string
	var seqs []int64
	for rows.Next() {
		var seq int64
		var id string
		if err := rows.Scan(&seq, &id); err != nil {
			return nil, nil, err
		}
		out = append(out, id)
		seqs = append(seqs, seq)
	}
	return out, seqs, rows.Err()
}

// applied marks, per request index, whether the server applied that record. Errors
// point at a record by index, or for deletions by id; an error that points at
// neither failed the whole category.
func applied(result models.SyncResult, errType string, n int, ids []string) []bool {
	ok := make([]bool, n)
	for i := range ok {
		ok[i] = true
	}
	for _, e := range result.Errors {
		if e.Type != errType {
			continue
		}
		switch {
		case e.Index != nil && *e.Index >= 0 && *e.Index < n:
			ok[*e.Index] = false
		case e.ID != "" && ids != nil:
			for i, id := range ids {
				if id == e.ID {
					ok[i] = false
				}
			}
		default:
			for i := range ok {
				ok[i] = false
			}
		}
	}
	return ok
}

// Ack applies the server's answer to a submitted batch. Every record the server
// applied is cleared; failed ones stay staged and are resent next time. Deletions of
// items the server no longer has count as done. Local item ids the server resolved are
// rewritten so a retry updates instead of inserting again.
func (s *Stage) Ack(ctx context.Context, b Batch, result models.SyncResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := rewriteResolved(ctx, tx, result.ResolvedIDs); err != nil {
		return err
	}

	deletions := result
	deletions.Errors = nil
	for _, e := range result.Errors {
		if e.Type == models.ErrTypeInventoryDelete && e.ItemNotFound() {
			continue
		}
		deletions.Errors = append(deletions.Errors, e)
	}

	categories := []struct {
		query string
		seqs  []int64
		ok    []bool
	}{
		{`DELETE FROM staged_sales WHERE seq = ?`, b.salesSeqs,
			applied(result, models.ErrTypeSales, len(b.salesSeqs), nil)},
		{`DELETE FROM staged_inventory WHERE seq = ?`, b.inventorySeqs,
			applied(result, models.ErrTypeInventoryUpdate, len(b.inventorySeqs), nil)},
		{`DELETE FROM staged_inventory_logs WHERE seq = ?`, b.logSeqs,
			applied(result, models.ErrTypeInventoryLog, len(b.logSeqs), nil)},
		{`DELETE FROM staged_deletions WHERE seq = ?`, b.deletionSeqs,
			applied(deletions, models.ErrTypeInventoryDelete, len(b.deletionSeqs), b.Request.DeletedInventoryIDs)},
	}
	for _, c := range categories {
		for i, seq := range c.seqs {
			if !c.ok[i] {
				continue
			}
			if _, err := tx.ExecContext(ctx, c.query, seq); err != nil {
				return err
			}
		}
	}

	shifts := applied(result, models.ErrTypeTimesheet, len(b.timesheetKeys), nil)
	for i, key := range b.timesheetKeys {
		if !shifts[i] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM staged_timesheets WHERE client_key = ?`, key); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func rewriteResolved(ctx context.Context, tx *sql.Tx, resolved map[string]string) error {
	for local, persisted := range resolved {
		if _, err := tx.ExecContext(ctx, `UPDATE OR REPLACE staged_inventory SET item_id = ? WHERE item_id = ?`, persisted, local); err != nil {
			return err
		}
		rows, err := tx.QueryContext(ctx, `SELECT seq, payload FROM staged_inventory_logs WHERE item_id = ?`, local)
		if err != nil {
			return err
		}
		type staged struct {
			seq     int64
			payload string
		}
		var logs []staged
		for rows.Next() {
			var st staged
			if err := rows.Scan(&st.seq, &st.payload); err != nil {
				rows.Close()
				return err
			}
			logs = append(logs, st)
		}
		rows.Close()
		for _, st := range logs {
			var log models.SyncInventoryLog
			if err := json.Unmarshal([]byte(st.payload), &log); err != nil {
				return err
			}
			log.ItemID = persisted
			payload, _ := json.Marshal(log)
			if _, err := tx.ExecContext(ctx,
				`UPDATE staged_inventory_logs SET item_id = ?, payload = ? WHERE seq = ?`, persisted, string(payload), st.seq); err != nil {
				return err
			}
		}
	}
	return nil
}

type Counts struct {
	Sales      int `json:"sales"`
	Timesheets int `json:"timesheets"`
	OpenShifts int `json:"openShifts"`
	Inventory  int `json:"inventory"`
	Logs       int `json:"inventoryLogs"`
	Deletions  int `json:"deletions"`
}

func (s *Stage) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	queries := []struct {
		dst   *int
		query string
	}{
		{&c.Sales, `SELECT COUNT(*) FROM staged_sales`},
		{&c.Timesheets, `SELECT COUNT(*) FROM staged_timesheets WHERE time_out IS NOT NULL`},
		{&c.OpenShifts, `SELECT COUNT(*) FROM staged_timesheets WHERE time_out IS NULL`},
		{&c.Inventory, `SELECT COUNT(*) FROM staged_inventory`},
		{&c.Logs, `SELECT COUNT(*) FROM staged_inventory_logs`},
		{&c.Deletions, `SELECT COUNT(*) FROM staged_deletions`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return Counts{}, err
		}
	}
	return c, nil
}
