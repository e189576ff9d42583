package order

import (
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/pricing"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/restock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// State is a step of request processing.
type State string

const (
	StateReceived         State = "RECEIVED"
	StatePriced           State = "PRICED"
	StateFulfilled        State = "FULFILLED"
	StatePartial          State = "PARTIAL"
	StateDenied           State = "DENIED"
	StateRestockTriggered State = "RESTOCK_TRIGGERED"
	StateCommitted        State = "COMMITTED"
	StateRejected         State = "REJECTED"
)

// QuoteRequest is one dated customer request for a quantity of an item.
type QuoteRequest struct {
	Item     string `json:"item" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Customer string `json:"customer,omitempty" validate:"max=200"`
	Notes    string `json:"notes,omitempty" validate:"max=2000"`
}

// ItemSnapshot is the item's stock and the cash balance after commit, as of
// the request date.
type ItemSnapshot struct {
	Item  string          `json:"item"`
	AsOf  time.Time       `json:"as_of"`
	Stock int             `json:"stock"`
	Cash  decimal.Decimal `json:"cash"`
}

// Result is the explained outcome of one request.
type Result struct {
	ID              uuid.UUID              `json:"id"`
	Request         QuoteRequest           `json:"request"`
	State           State                  `json:"state"`
	Trail           []State                `json:"trail"`
	Quote           *pricing.Quote         `json:"quote,omitempty"`
	Sale            *ledger.Transaction    `json:"sale,omitempty"`
	SupplierOrder   *restock.SupplierOrder `json:"supplier_order,omitempty"`
	ExpectedRestock *time.Time             `json:"expected_restock,omitempty"`
	Snapshot        *ItemSnapshot          `json:"snapshot,omitempty"`
	Error           *apperr.Error          `json:"error,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// ListFilter narrows result listings. Zero fields match everything.
type ListFilter struct {
	Item   string
	State  State
	Status pricing.Status
	Limit  int
}

// Disclosure is the customer-safe view of a result: no costs, no internal
// reason codes, no ledger detail.
type Disclosure struct {
	RequestID       uuid.UUID            `json:"request_id"`
	Item            string               `json:"item"`
	Date            string               `json:"date"`
	Outcome         string               `json:"outcome"`
	Quote           *pricing.PublicQuote `json:"quote,omitempty"`
	ExpectedRestock string               `json:"expected_restock,omitempty"`
	Message         string               `json:"message,omitempty"`
}

// Disclosure builds the public view of r.
func (r *Result) Disclosure() Disclosure {
	d := Disclosure{
		RequestID: r.ID,
		Item:      r.Request.Item,
		Date:      r.Request.Date,
		Outcome:   string(r.State),
	}
	if r.State == StateRejected {
		switch {
		case r.Error == nil:
		case r.Error.Kind == apperr.KindInternal:
			d.Message = "the request could not be processed"
		default:
			d.Message = r.Error.Message
		}
		return d
	}
	if r.Quote != nil {
		pub := r.Quote.Public()
		d.Quote = &pub
		d.Outcome = string(r.Quote.Status)
	}
	if r.ExpectedRestock != nil {
		d.ExpectedRestock = r.ExpectedRestock.Format(ledger.DateLayout)
	}
	return d
}
