package restock

import (
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/modules/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is derived from the evaluation date, never stored.
type OrderStatus string

const (
	StatusPlaced    OrderStatus = "PLACED"
	StatusDelivered OrderStatus = "DELIVERED"
)

// SupplierOrder is a replenishment order. Its stock arrives through a
// deferred PURCHASE dated at DeliveryDate.
type SupplierOrder struct {
	ID            uuid.UUID       `json:"id"`
	Item          string          `json:"item"`
	Quantity      int             `json:"quantity"`
	OrderDate     time.Time       `json:"order_date"`
	DeliveryDate  time.Time       `json:"delivery_date"`
	Cost          decimal.Decimal `json:"cost"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StatusAt reports whether the order has been delivered by asOf.
func (o *SupplierOrder) StatusAt(asOf time.Time) OrderStatus {
	if asOf.Before(o.DeliveryDate) {
		return StatusPlaced
	}
	return StatusDelivered
}

// OpenAt reports whether the order was placed on or before asOf and is
// still awaiting delivery.
func (o *SupplierOrder) OpenAt(asOf time.Time) bool {
	return !o.OrderDate.After(asOf) && o.StatusAt(asOf) == StatusPlaced
}

// Policy is the restocking configuration.
type Policy struct {
	// LeadTimes is the default schedule; an item's own schedule replaces it.
	LeadTimes []catalog.LeadTime `json:"lead_times" yaml:"lead_times"`

	// RequireFunds skips orders the cash balance cannot cover.
	RequireFunds bool `json:"require_funds" yaml:"require_funds"`

	// MinorUnits is the currency precision order costs are rounded to. It
	// follows the pricing policy rather than the policy file.
	MinorUnits int32 `json:"minor_units" yaml:"-"`
}

// DefaultPolicy ships same-day delivery for small lots and up to a week for
// lots above 1000 units.
func DefaultPolicy() Policy {
	return Policy{
		MinorUnits: 2,
		LeadTimes: []catalog.LeadTime{
			{MinQuantity: 0, Days: 0},
			{MinQuantity: 11, Days: 1},
			{MinQuantity: 101, Days: 4},
			{MinQuantity: 1001, Days: 7},
		},
	}
}

// EvaluateRequest is the payload of a manual restock evaluation.
type EvaluateRequest struct {
	Item string `json:"item" validate:"required"`
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}
