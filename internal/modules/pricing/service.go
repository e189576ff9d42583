package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/catalog"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/inventory"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service defines the quoting engine. Quoting reads state and never writes it.
type Service interface {
	// Quote prices req against the stock available at req.Date.
	Quote(ctx context.Context, req Request) (*Quote, error)

	Policy() Policy
}

type service struct {
	catalog   catalog.Service
	inventory inventory.Service
	ledger    ledger.Service
	policy    Policy
	logger    *logrus.Logger
}

// NewService creates the quoting engine. policy must come from NewPolicy.
func NewService(catalogSvc catalog.Service, inventorySvc inventory.Service, ledgerSvc ledger.Service, policy Policy, logger *logrus.Logger) Service {
	return &service{
		catalog:   catalogSvc,
		inventory: inventorySvc,
		ledger:    ledgerSvc,
		policy:    policy,
		logger:    logger,
	}
}

func (s *service) Policy() Policy { return s.policy }

// Quote works in three stages:
//  1. Find how much of the request the stock can cover at the request date
//  2. Price the fulfillable quantity with the highest qualifying tier
//  3. Compare the catalog price with recent sale prices and flag drift
func (s *service) Quote(ctx context.Context, req Request) (*Quote, error) {
	if req.Quantity <= 0 {
		return nil, apperr.InvalidRequest("quantity must be positive, got %d", req.Quantity)
	}
	if req.Date.IsZero() {
		return nil, apperr.InvalidRequest("request date is required")
	}
	item, err := s.catalog.Get(ctx, req.Item)
	if err != nil {
		return nil, err
	}
	date := ledger.Day(req.Date)

	// Stage 1: fulfillable quantity
	available, err := s.inventory.Available(ctx, item.Name, date)
	if err != nil {
		return nil, err
	}
	q := &Quote{
		ID:                uuid.New(),
		Item:              item.Name,
		Date:              date,
		RequestedQuantity: req.Quantity,
		AvailableQuantity: available,
		Currency:          s.policy.Currency,
		BasePrice:         item.UnitPrice,
		UnitPrice:         item.UnitPrice,
		TotalPrice:        decimal.Zero,
		DiscountPercent:   decimal.Zero,
		Reasons:           []Reason{},
		CreatedAt:         time.Now().UTC(),
	}
	s.decideQuantity(q, item.Unit())

	// Stage 2: tier pricing
	if q.Quantity > 0 {
		unit, tier := s.policy.UnitPrice(item.UnitPrice, q.Quantity)
		q.UnitPrice = unit
		if tier != nil {
			q.DiscountTier = tier.Name
			q.DiscountPercent = tier.DiscountPercent
			q.Reasons = append(q.Reasons, Reason{
				Code:    ReasonBulkDiscount,
				Message: fmt.Sprintf("%s%% %s discount applied to orders of %d units or more", tier.DiscountPercent, tier.Name, tier.MinQuantity),
				Public:  true,
			})
		}
		q.TotalPrice = s.policy.Total(unit, q.Quantity)
	}

	// Stage 3: historical drift
	if err := s.checkDrift(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *service) decideQuantity(q *Quote, unit int) {
	fulfillable := q.RequestedQuantity
	if q.AvailableQuantity < fulfillable {
		fulfillable = q.AvailableQuantity
	}
	rounded := fulfillable - fulfillable%unit

	switch {
	case q.AvailableQuantity == 0:
		q.Status = StatusDenied
		q.Reasons = append(q.Reasons, Reason{
			Code:    ReasonOutOfStock,
			Message: fmt.Sprintf("%s is out of stock", q.Item),
			Public:  true,
		})
	case rounded == 0:
		q.Status = StatusDenied
		q.Reasons = append(q.Reasons, Reason{
			Code:    ReasonBelowFulfillmentUnit,
			Message: fmt.Sprintf("%s is sold in lots of %d units; %d can be supplied", q.Item, unit, fulfillable),
			Public:  true,
		})
	case rounded < q.RequestedQuantity:
		q.Status = StatusPartial
		if fulfillable < q.RequestedQuantity {
			q.Reasons = append(q.Reasons, Reason{
				Code:    ReasonInsufficientStock,
				Message: fmt.Sprintf("only %d of %d units of %s are available", q.AvailableQuantity, q.RequestedQuantity, q.Item),
				Public:  true,
			})
		}
		if rounded < fulfillable {
			q.Reasons = append(q.Reasons, Reason{
				Code:    ReasonBelowFulfillmentUnit,
				Message: fmt.Sprintf("%s is sold in lots of %d units", q.Item, unit),
				Public:  true,
			})
		}
	default:
		q.Status = StatusFulfilled
	}
	q.Quantity = rounded
	q.DeniedQuantity = q.RequestedQuantity - rounded
}

// checkDrift compares the catalog price with list prices of earlier sales.
// The catalog price always wins; drift only adds an internal reason.
func (s *service) checkDrift(ctx context.Context, q *Quote) error {
	history, err := s.ledger.History(ctx, q.Item)
	if err != nil {
		return apperr.Internal("load price history", err)
	}
	var prices []decimal.Decimal
	for _, tx := range history {
		if tx.Kind != ledger.KindSale || tx.Date.After(q.Date) {
			continue
		}
		price := tx.ListPrice
		if price.IsZero() {
			price = tx.UnitPrice
		}
		prices = append(prices, price)
	}
	if w := s.policy.HistoryWindow; w > 0 && len(prices) > w {
		prices = prices[len(prices)-w:]
	}
	if len(prices) == 0 {
		return nil
	}

	var reference decimal.Decimal
	switch s.policy.HistoryMode {
	case HistoryLatest:
		reference = prices[len(prices)-1]
	default:
		reference = decimal.Avg(prices[0], prices[1:]...)
	}
	drift := reference.Sub(q.BasePrice).Abs().Div(q.BasePrice)
	if drift.LessThanOrEqual(s.policy.DriftTolerance) {
		return nil
	}
	msg := fmt.Sprintf("historical %s price %s differs from catalog price %s by %s%%; catalog price applied",
		s.policy.HistoryMode, reference.StringFixed(4), q.BasePrice, drift.Mul(decimal.NewFromInt(100)).StringFixed(1))
	q.Reasons = append(q.Reasons, Reason{Code: ReasonPriceOverride, Message: msg, Public: false})
	s.logger.WithFields(logrus.Fields{
		"module":    "pricing",
		"item":      q.Item,
		"reference": reference.String(),
		"catalog":   q.BasePrice.String(),
	}).Warn("price drift detected")
	return nil
}
