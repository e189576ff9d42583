package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeadTime is one step of a supplier lead-time schedule: orders of at least
// MinQuantity units arrive Days after they are placed.
type LeadTime struct {
	MinQuantity int `json:"min_quantity" yaml:"min_quantity"`
	Days        int `json:"days" yaml:"days"`
}

// Item is a sellable paper product. Stock is not stored here; it is derived
// from the ledger.
type Item struct {
	Name             string          `json:"name" yaml:"name"`
	Category         string          `json:"category,omitempty" yaml:"category"`
	UnitCost         decimal.Decimal `json:"unit_cost" yaml:"unit_cost"`
	UnitPrice        decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	InitialStock     int             `json:"initial_stock" yaml:"initial_stock"`
	ReorderThreshold int             `json:"reorder_threshold" yaml:"reorder_threshold"`
	ReorderQuantity  int             `json:"reorder_quantity" yaml:"reorder_quantity"`
	FulfillmentUnit  int             `json:"fulfillment_unit" yaml:"fulfillment_unit"`
	LeadTimes        []LeadTime      `json:"lead_times,omitempty" yaml:"lead_times"`
	CreatedAt        time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt        time.Time       `json:"updated_at" yaml:"-"`
}

// Unit returns the minimum fulfillment unit, at least 1.
func (i *Item) Unit() int {
	if i.FulfillmentUnit < 1 {
		return 1
	}
	return i.FulfillmentUnit
}
