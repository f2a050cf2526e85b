package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	UpdateRestock    = "restock"
	UpdateUsage      = "usage"
	UpdateAdjustment = "adjustment"
)

// InventoryItem is a consumable stocked at the shop (soap, softener, bags...).
// Name doubles as a natural key when the client has no server id.
type InventoryItem struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name" binding:"required"`
	CurrentStock float64            `bson:"currentStock" json:"currentStock"`
	MaxStock     float64            `bson:"maxStock" json:"maxStock"`
	MinStock     float64            `bson:"minStock" json:"minStock"`
	Unit         string             `bson:"unit" json:"unit"`
	LastUpdated  time.Time          `bson:"lastUpdated" json:"lastUpdated"`
}

// LowStock reports whether the item is at or below its reorder level.
func (i InventoryItem) LowStock() bool {
	return i.CurrentStock <= i.MinStock
}

// InventoryLog is an append-only audit row for a stock change.
type InventoryLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ItemID        string             `bson:"itemId" json:"itemId"`
	PreviousStock float64            `bson:"previousStock" json:"previousStock"`
	NewStock      float64            `bson:"newStock" json:"newStock"`
	UpdateType    string             `bson:"updateType" json:"updateType"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	UpdatedBy     string             `bson:"updatedBy" json:"updatedBy"`
	Notes         string             `bson:"notes" json:"notes"`
}

func ValidUpdateType(t string) bool {
	switch t {
	case UpdateRestock, UpdateUsage, UpdateAdjustment:
		return true
	}
	return false
}

// StockAdjustment is the body of POST /api/inventory/:id/adjust.
type StockAdjustment struct {
	NewStock   *float64 `json:"newStock" binding:"required"`
	UpdateType string   `json:"updateType" binding:"required,oneof=restock usage adjustment"`
	UpdatedBy  string   `json:"updatedBy"`
	Notes      string   `json:"notes"`
}

// SyncInventoryItem is an inventory record as queued by the client. ID is either a
// server ObjectID hex or a client temp id ("local-...").
type SyncInventoryItem struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	CurrentStock float64    `json:"currentStock"`
	MaxStock     float64    `json:"maxStock"`
	MinStock     float64    `json:"minStock"`
	Unit         string     `json:"unit"`
	LastUpdated  *time.Time `json:"lastUpdated"`
}

// SyncInventoryLog is a queued log row; ItemID may still be a temp id.
type SyncInventoryLog struct {
	ItemID        string     `json:"itemId"`
	PreviousStock float64    `json:"previousStock"`
	NewStock      float64    `json:"newStock"`
	UpdateType    string     `json:"updateType"`
	Timestamp     *time.Time `json:"timestamp"`
	UpdatedBy     string     `json:"updatedBy"`
	Notes         string     `json:"notes"`
}
