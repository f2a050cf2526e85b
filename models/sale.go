package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SaleEntry is one day's takings recorded on the POS form.
type SaleEntry struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Date           Date               `bson:"date" json:"date"`
	Coin           Amount             `bson:"coin" json:"coin"`
	Hopper         Amount             `bson:"hopper" json:"hopper"`
	Soap           Amount             `bson:"soap" json:"soap"`
	Vending        Amount             `bson:"vending" json:"vending"`
	DropOffAmount1 Amount             `bson:"dropOffAmount1" json:"dropOffAmount1"`
	DropOffCode    string             `bson:"dropOffCode" json:"dropOffCode"`
	DropOffAmount2 Amount             `bson:"dropOffAmount2" json:"dropOffAmount2"`
	RecordedBy     string             `bson:"recordedBy,omitempty" json:"recordedBy,omitempty"`
	ClientKey      string             `bson:"clientKey,omitempty" json:"clientKey,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// SalesSummary holds the rounded per-field totals for a date range.
type SalesSummary struct {
	Coin           float64 `bson:"coin" json:"coin"`
	Hopper         float64 `bson:"hopper" json:"hopper"`
	Soap           float64 `bson:"soap" json:"soap"`
	Vending        float64 `bson:"vending" json:"vending"`
	DropOffAmount1 float64 `bson:"dropOffAmount1" json:"dropOffAmount1"`
	DropOffAmount2 float64 `bson:"dropOffAmount2" json:"dropOffAmount2"`
}

// Total is the sum of all six totals.
func (s SalesSummary) Total() float64 {
	return s.Coin + s.Hopper + s.Soap + s.Vending + s.DropOffAmount1 + s.DropOffAmount2
}

type BulkSalesRequest struct {
	Entries []SaleEntry `json:"entries" binding:"required"`
}

type BulkSalesResult struct {
	Message        string      `json:"message"`
	NInserted      int         `json:"nInserted"`
	TotalAttempted int         `json:"totalAttempted"`
	Errors         []ItemError `json:"errors,omitempty"`
}
