package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemLevel is one item's derived position as of a date.
type ItemLevel struct {
	Item             string    `json:"item"`
	AsOf             time.Time `json:"as_of"`
	Stock            int       `json:"stock"`
	Available        int       `json:"available"`
	ReorderThreshold int       `json:"reorder_threshold"`
	NeedsRestock     bool      `json:"needs_restock"`
}

// ItemValuation values one item's stock at cost.
type ItemValuation struct {
	Item     string          `json:"item"`
	Stock    int             `json:"stock"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Value    decimal.Decimal `json:"value"`
}

// SalesSummary aggregates an item's sales.
type SalesSummary struct {
	Item    string          `json:"item"`
	Units   int             `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Report is the financial position as of a date.
type Report struct {
	AsOf           time.Time       `json:"as_of"`
	Cash           decimal.Decimal `json:"cash"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	TotalAssets    decimal.Decimal `json:"total_assets"`
	Items          []ItemValuation `json:"items"`
	TopSellers     []SalesSummary  `json:"top_sellers"`
}

// AdjustmentRequest is a compensating stock correction (count differences,
// damaged goods). It never edits earlier entries.
type AdjustmentRequest struct {
	Item      string `json:"item" validate:"required"`
	Delta     int    `json:"delta" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Rationale string `json:"rationale" validate:"required"`
}
