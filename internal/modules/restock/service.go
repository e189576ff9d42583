package restock

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/lock"
	"github.com/georgemunganga/printa-fulfillment/internal/logging"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/catalog"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/inventory"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service defines the restocking engine.
type Service interface {
	// Evaluate places a supplier order when the item is at or below its
	// reorder threshold at asOf and no earlier order is still in transit.
	// It returns nil when nothing was ordered.
	Evaluate(ctx context.Context, item string, asOf time.Time) (*SupplierOrder, error)

	// LeadTime is a pure function of the item's schedule and the quantity.
	LeadTime(item *catalog.Item, quantity int) int

	DeliveryDate(item *catalog.Item, quantity int, orderDate time.Time) time.Time

	// OpenOrder returns the order for item still in transit at asOf, if any.
	OpenOrder(ctx context.Context, item string, asOf time.Time) (*SupplierOrder, error)

	// Orders lists orders, optionally for one item, with status as of asOf.
	Orders(ctx context.Context, item string, asOf time.Time) ([]*SupplierOrder, error)
}

type service struct {
	repo      Repository
	catalog   catalog.Service
	inventory inventory.Service
	ledger    ledger.Service
	policy    Policy
	locks     *lock.Keyed
	logger    *logrus.Logger
}

// NewService creates the restocking engine. The policy's lead-time schedule
// must pass catalog.ValidateLeadTimes.
func NewService(repo Repository, catalogSvc catalog.Service, inventorySvc inventory.Service, ledgerSvc ledger.Service, policy Policy, logger *logrus.Logger) Service {
	return &service{
		repo:      repo,
		catalog:   catalogSvc,
		inventory: inventorySvc,
		ledger:    ledgerSvc,
		policy:    policy,
		locks:     lock.NewKeyed(),
		logger:    logger,
	}
}

func (s *service) Evaluate(ctx context.Context, name string, asOf time.Time) (*SupplierOrder, error) {
	item, err := s.catalog.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	asOf = ledger.Day(asOf)

	unlock, err := s.locks.Lock(ctx, item.Name)
	if err != nil {
		return nil, apperr.Internal("lock restock item", err)
	}
	defer unlock()

	needed, err := s.inventory.NeedsRestock(ctx, item.Name, asOf)
	if err != nil || !needed {
		return nil, err
	}
	log := s.logger.WithFields(logrus.Fields{
		"module": "restock",
		"item":   item.Name,
		"as_of":  asOf.Format(ledger.DateLayout),
	})
	if item.ReorderQuantity <= 0 {
		log.Warn("item needs restock but has no reorder quantity")
		return nil, nil
	}
	open, err := s.OpenOrder(ctx, item.Name, asOf)
	if err != nil {
		return nil, err
	}
	if open != nil {
		log.WithField("open_order", open.ID).Debug("supplier order already in transit")
		return nil, nil
	}

	qty := item.ReorderQuantity
	cost := item.UnitCost.Mul(decimal.NewFromInt(int64(qty))).RoundBank(s.policy.MinorUnits)
	if s.policy.RequireFunds {
		cash, err := s.inventory.CashBalance(ctx, asOf)
		if err != nil {
			return nil, err
		}
		if cost.GreaterThan(cash) {
			log.WithFields(logrus.Fields{"cost": cost.String(), "cash": cash.String()}).
				Warn("restock skipped: insufficient funds")
			return nil, nil
		}
	}

	order := &SupplierOrder{
		ID:           uuid.New(),
		Item:         item.Name,
		Quantity:     qty,
		OrderDate:    asOf,
		DeliveryDate: s.DeliveryDate(item, qty, asOf),
		Cost:         cost,
	}
	txID, err := s.ledger.Append(ctx, ledger.Transaction{
		Kind:      ledger.KindPurchase,
		Item:      item.Name,
		Quantity:  qty,
		UnitPrice: item.UnitCost,
		CashDelta: cost.Neg(),
		Date:      order.DeliveryDate,
		Deferred:  true,
		Rationale: fmt.Sprintf("supplier order %s placed %s", order.ID, asOf.Format(ledger.DateLayout)),
	})
	if err != nil {
		return nil, err
	}
	order.TransactionID = txID
	if err := s.repo.Insert(ctx, order); err != nil {
		// The delivery is already booked; OpenOrder finds it in the ledger,
		// so the next evaluation does not order again.
		logging.LogError(s.logger, "restock", "Evaluate", "order recorded in ledger but not stored", order, err)
		return nil, apperr.Internal("store supplier order", err)
	}
	order.Status = order.StatusAt(asOf)

	log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"quantity": qty,
		"delivery": order.DeliveryDate.Format(ledger.DateLayout),
		"cost":     cost.String(),
	}).Info("supplier order placed")
	return order, nil
}

func (s *service) LeadTime(item *catalog.Item, quantity int) int {
	schedule := s.policy.LeadTimes
	if item != nil && len(item.LeadTimes) > 0 {
		schedule = item.LeadTimes
	}
	steps := append([]catalog.LeadTime(nil), schedule...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].MinQuantity < steps[j].MinQuantity })

	days := 0
	for _, step := range steps {
		if step.MinQuantity > quantity {
			break
		}
		days = step.Days
	}
	return days
}

func (s *service) DeliveryDate(item *catalog.Item, quantity int, orderDate time.Time) time.Time {
	return ledger.Day(orderDate).AddDate(0, 0, s.LeadTime(item, quantity))
}

func (s *service) OpenOrder(ctx context.Context, item string, asOf time.Time) (*SupplierOrder, error) {
	orders, err := s.all(ctx, item)
	if err != nil {
		return nil, err
	}
	asOf = ledger.Day(asOf)
	for _, o := range orders {
		if o.OpenAt(asOf) {
			o.Status = StatusPlaced
			return o, nil
		}
	}
	return nil, nil
}

func (s *service) Orders(ctx context.Context, item string, asOf time.Time) ([]*SupplierOrder, error) {
	orders, err := s.all(ctx, item)
	if err != nil {
		return nil, err
	}
	asOf = ledger.Day(asOf)
	for _, o := range orders {
		o.Status = o.StatusAt(asOf)
	}
	return orders, nil
}

// all returns the stored orders followed by deferred purchases the ledger
// holds without an order record. The ledger is authoritative for what was
// ordered.
func (s *service) all(ctx context.Context, item string) ([]*SupplierOrder, error) {
	orders, err := s.repo.List(ctx, item)
	if err != nil {
		return nil, apperr.Internal("list supplier orders", err)
	}
	var txs []*ledger.Transaction
	if item == "" {
		txs, err = s.ledger.Transactions(ctx)
	} else {
		txs, err = s.ledger.History(ctx, item)
	}
	if err != nil {
		return nil, apperr.Internal("load supplier deliveries", err)
	}

	recorded := make(map[uuid.UUID]bool, len(orders))
	for _, o := range orders {
		recorded[o.TransactionID] = true
	}
	for _, tx := range txs {
		if tx.Kind != ledger.KindPurchase || !tx.Deferred || recorded[tx.ID] {
			continue
		}
		// order date unknown: treated as placed before any evaluation date
		orders = append(orders, &SupplierOrder{
			ID:            tx.ID,
			Item:          tx.Item,
			Quantity:      tx.Quantity,
			DeliveryDate:  tx.Date,
			Cost:          tx.CashDelta.Neg(),
			TransactionID: tx.ID,
			CreatedAt:     tx.CreatedAt,
		})
	}
	return orders, nil
}
