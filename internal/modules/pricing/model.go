package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the fulfillment outcome of a quote.
type Status string

const (
	StatusFulfilled Status = "FULFILLED"
	StatusPartial   Status = "PARTIAL"
	StatusDenied    Status = "DENIED"
)

// ReasonCode explains one part of a quote decision.
type ReasonCode string

const (
	ReasonOutOfStock           ReasonCode = "OUT_OF_STOCK"
	ReasonInsufficientStock    ReasonCode = "INSUFFICIENT_STOCK"
	ReasonBelowFulfillmentUnit ReasonCode = "BELOW_FULFILLMENT_UNIT"
	ReasonBulkDiscount         ReasonCode = "BULK_DISCOUNT"
	ReasonPriceOverride        ReasonCode = "PRICE_OVERRIDE_CATALOG" // internal: mentions historical prices
	ReasonInventoryConflict    ReasonCode = "INVENTORY_CONFLICT"
)

// Reason is a coded explanation. Only Public reasons may leave the engine.
type Reason struct {
	Code    ReasonCode `json:"code"`
	Message string     `json:"message"`
	Public  bool       `json:"public"`
}

// Request asks for a price on a quantity of one item as of a date.
type Request struct {
	Item     string
	Quantity int
	Date     time.Time
}

// QuoteInput is the JSON payload of a dry-run quote.
type QuoteInput struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
	Date     string `json:"date"`
}

// Quote is an immutable pricing decision.
type Quote struct {
	ID                uuid.UUID       `json:"id"`
	Item              string          `json:"item"`
	Date              time.Time       `json:"date"`
	RequestedQuantity int             `json:"requested_quantity"`
	Quantity          int             `json:"quantity"`
	DeniedQuantity    int             `json:"denied_quantity"`
	AvailableQuantity int             `json:"available_quantity"`
	Currency          string          `json:"currency"`
	BasePrice         decimal.Decimal `json:"base_price"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	DiscountTier      string          `json:"discount_tier,omitempty"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	Status            Status          `json:"status"`
	Reasons           []Reason        `json:"reasons"`
	CreatedAt         time.Time       `json:"created_at"`
}

// PublicQuote is the part of a quote eligible for customer disclosure.
type PublicQuote struct {
	Item              string          `json:"item"`
	Date              string          `json:"date"`
	RequestedQuantity int             `json:"requested_quantity"`
	Quantity          int             `json:"quantity"`
	AvailableQuantity int             `json:"available_quantity"`
	Currency          string          `json:"currency"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	DiscountPercent   decimal.Decimal `json:"discount_percent"`
	Status            Status          `json:"status"`
	Reasons           []string        `json:"reasons"`
}

// HasReason reports whether the quote carries code.
func (q *Quote) HasReason(code ReasonCode) bool {
	for _, r := range q.Reasons {
		if r.Code == code {
			return true
		}
	}
	return false
}

// Deny derives a new DENIED quote from q. q itself is left untouched.
func (q *Quote) Deny(code ReasonCode, message string) *Quote {
	denied := *q
	denied.ID = uuid.New()
	denied.Quantity = 0
	denied.DeniedQuantity = q.RequestedQuantity
	denied.TotalPrice = decimal.Zero
	denied.UnitPrice = q.BasePrice
	denied.DiscountTier = ""
	denied.DiscountPercent = decimal.Zero
	denied.Status = StatusDenied
	denied.Reasons = []Reason{{Code: code, Message: message, Public: true}}
	denied.CreatedAt = time.Now().UTC()
	return &denied
}

// Public strips internal reasons and pricing inputs.
func (q *Quote) Public() PublicQuote {
	pub := PublicQuote{
		Item:              q.Item,
		Date:              q.Date.Format("2006-01-02"),
		RequestedQuantity: q.RequestedQuantity,
		Quantity:          q.Quantity,
		AvailableQuantity: q.AvailableQuantity,
		Currency:          q.Currency,
		UnitPrice:         q.UnitPrice,
		TotalPrice:        q.TotalPrice,
		DiscountPercent:   q.DiscountPercent,
		Status:            q.Status,
		Reasons:           []string{},
	}
	for _, r := range q.Reasons {
		if r.Public {
			pub.Reasons = append(pub.Reasons, r.Message)
		}
	}
	return pub
}
