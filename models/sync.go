package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocalIDPrefix marks ids minted by the client for records it has not synced yet.
const LocalIDPrefix = "local-"

// ItemRef identifies an inventory item coming from the client: either a record the
// server has never seen (PendingRef) or one it already stores (PersistedRef).
type ItemRef interface {
	isItemRef()
	String() string
}

type PendingRef struct {
	TempID string
}

type PersistedRef struct {
	ID primitive.ObjectID
}

func (PendingRef) isItemRef()   {}
func (PersistedRef) isItemRef() {}

func (r PendingRef) String() string   { return r.TempID }
func (r PersistedRef) String() string { return r.ID.Hex() }

// ParseItemRef resolves a wire id. Blank and "local-" ids are pending; anything else
// must be an ObjectID hex.
func ParseItemRef(raw string) (ItemRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, LocalIDPrefix) {
		return PendingRef{TempID: raw}, nil
	}
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid item id %q", raw)
	}
	return PersistedRef{ID: oid}, nil
}

// SyncRequest is the batch a POS client pushes after working offline.
type SyncRequest struct {
	Sales               []SaleEntry         `json:"sales"`
	Timesheet           []SyncTimesheet     `json:"timesheet"`
	Inventory           []SyncInventoryItem `json:"inventory"`
	InventoryLogs       []SyncInventoryLog  `json:"inventoryLogs"`
	DeletedInventoryIDs []string            `json:"deletedInventoryIds"`
}

// Empty reports whether the request carries nothing to apply.
func (r SyncRequest) Empty() bool {
	return len(r.Sales) == 0 && len(r.Timesheet) == 0 && len(r.Inventory) == 0 &&
		len(r.InventoryLogs) == 0 && len(r.DeletedInventoryIDs) == 0
}

// Error types reported by the reconciler, one per phase.
const (
	ErrTypeInventoryDelete = "inventory_delete"
	ErrTypeInventoryUpdate = "inventory_update"
	ErrTypeInventoryLog    = "inventory_log"
	ErrTypeSales           = "sales"
	ErrTypeTimesheet       = "timesheet"
)

// ItemNotFoundPrefix starts the message of an item the server does not have.
const ItemNotFoundPrefix = "Item not found: "

// ItemError is a per-item failure that did not abort the batch.
type ItemError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Index *int   `json:"index,omitempty"`
	ID    string `json:"id,omitempty"`
}

// ItemNotFound reports whether the server had no such item.
func (e ItemError) ItemNotFound() bool {
	return strings.HasPrefix(e.Error, ItemNotFoundPrefix)
}

type SyncResult struct {
	Message              string            `json:"message"`
	SavedSalesCount      int               `json:"savedSalesCount"`
	SavedTimesheetsCount int               `json:"savedTimesheetsCount"`
	SavedInventoryCount  int               `json:"savedInventoryCount"`
	SavedLogsCount       int               `json:"savedLogsCount"`
	DeletedItemsCount    int               `json:"deletedItemsCount"`
	SkippedDuplicates    int               `json:"skippedDuplicates"`
	ResolvedIDs          map[string]string `json:"resolvedIds,omitempty"`
	Errors               []ItemError       `json:"errors,omitempty"`
}

// HasErrors reports whether any item of the given phase failed.
func (r SyncResult) HasErrors(errType string) bool {
	for _, e := range r.Errors {
		if e.Type == errType {
			return true
		}
	}
	return false
}
