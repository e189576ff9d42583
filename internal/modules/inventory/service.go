package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/catalog"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// topSellerCount bounds Report.TopSellers.
const topSellerCount = 5

// Service answers stock questions from the ledger. It never holds its own
// copy of stock.
type Service interface {
	// StockLevel is the item's stock after every transaction dated on or before asOf.
	StockLevel(ctx context.Context, item string, asOf time.Time) (int, error)

	// Available is how many units a sale dated asOf may withdraw without any
	// later point of the item's history going negative.
	Available(ctx context.Context, item string, asOf time.Time) (int, error)

	// NeedsRestock reports stock <= reorder threshold.
	NeedsRestock(ctx context.Context, item string, asOf time.Time) (bool, error)

	// Reserve reports whether quantity units could be sold at asOf. It commits nothing.
	Reserve(ctx context.Context, item string, quantity int, asOf time.Time) (bool, error)

	// Level bundles stock, availability and the restock flag for one item.
	Level(ctx context.Context, item string, asOf time.Time) (*ItemLevel, error)

	CashBalance(ctx context.Context, asOf time.Time) (decimal.Decimal, error)

	// Seed writes opening stock for catalog items that have no history yet.
	Seed(ctx context.Context, date time.Time) error

	// Adjust appends a compensating RESTOCK entry.
	Adjust(ctx context.Context, req AdjustmentRequest) (*ledger.Transaction, error)

	// Report values the inventory at cost and lists the top sellers.
	Report(ctx context.Context, asOf time.Time) (*Report, error)
}

type service struct {
	ledger     ledger.Service
	catalog    catalog.Service
	minorUnits int32
	validate   *validator.Validate
	logger     *logrus.Logger
}

// Option configures the inventory service.
type Option func(*service)

// WithMinorUnits sets the currency precision used to value stock. The
// default is 2.
func WithMinorUnits(units int32) Option {
	return func(s *service) { s.minorUnits = units }
}

// NewService creates the inventory state manager.
func NewService(ledgerSvc ledger.Service, catalogSvc catalog.Service, logger *logrus.Logger, opts ...Option) Service {
	s := &service{
		ledger:     ledgerSvc,
		catalog:    catalogSvc,
		minorUnits: 2,
		validate:   validator.New(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) history(ctx context.Context, name string) (*catalog.Item, []*ledger.Transaction, error) {
	item, err := s.catalog.Get(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	txs, err := s.ledger.History(ctx, name)
	if err != nil {
		return nil, nil, apperr.Internal("load item history", err)
	}
	return item, txs, nil
}

func (s *service) StockLevel(ctx context.Context, name string, asOf time.Time) (int, error) {
	_, txs, err := s.history(ctx, name)
	if err != nil {
		return 0, err
	}
	return ledger.Fold(txs, decimal.Zero, asOf).Stock[name], nil
}

func (s *service) Available(ctx context.Context, name string, asOf time.Time) (int, error) {
	_, txs, err := s.history(ctx, name)
	if err != nil {
		return 0, err
	}
	return ledger.Headroom(txs, asOf), nil
}

func (s *service) NeedsRestock(ctx context.Context, name string, asOf time.Time) (bool, error) {
	item, txs, err := s.history(ctx, name)
	if err != nil {
		return false, err
	}
	return ledger.Fold(txs, decimal.Zero, asOf).Stock[name] <= item.ReorderThreshold, nil
}

func (s *service) Reserve(ctx context.Context, name string, quantity int, asOf time.Time) (bool, error) {
	if quantity <= 0 {
		return false, apperr.InvalidRequest("quantity must be positive, got %d", quantity)
	}
	available, err := s.Available(ctx, name, asOf)
	if err != nil {
		return false, err
	}
	return quantity <= available, nil
}

func (s *service) Level(ctx context.Context, name string, asOf time.Time) (*ItemLevel, error) {
	item, txs, err := s.history(ctx, name)
	if err != nil {
		return nil, err
	}
	asOf = ledger.Day(asOf)
	stock := ledger.Fold(txs, decimal.Zero, asOf).Stock[name]
	return &ItemLevel{
		Item:             name,
		AsOf:             asOf,
		Stock:            stock,
		Available:        ledger.Headroom(txs, asOf),
		ReorderThreshold: item.ReorderThreshold,
		NeedsRestock:     stock <= item.ReorderThreshold,
	}, nil
}

func (s *service) CashBalance(ctx context.Context, asOf time.Time) (decimal.Decimal, error) {
	snap, err := s.ledger.Snapshot(ctx, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.Cash, nil
}

func (s *service) Seed(ctx context.Context, date time.Time) error {
	items, err := s.catalog.List(ctx, "")
	if err != nil {
		return fmt.Errorf("list catalog: %w", err)
	}
	for _, item := range items {
		if item.InitialStock == 0 {
			continue
		}
		txs, err := s.ledger.History(ctx, item.Name)
		if err != nil {
			return fmt.Errorf("load history of %q: %w", item.Name, err)
		}
		if len(txs) > 0 {
			continue
		}
		if _, err := s.ledger.Append(ctx, ledger.Transaction{
			Kind:      ledger.KindRestock,
			Item:      item.Name,
			Quantity:  item.InitialStock,
			UnitPrice: item.UnitCost,
			Date:      date,
			Rationale: "opening stock",
		}); err != nil {
			return fmt.Errorf("seed %q: %w", item.Name, err)
		}
	}
	return nil
}

func (s *service) Adjust(ctx context.Context, req AdjustmentRequest) (*ledger.Transaction, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.InvalidRequest("invalid adjustment: %v", err)
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		return nil, apperr.InvalidRequest("invalid date %q: expected YYYY-MM-DD", req.Date)
	}
	item, err := s.catalog.Get(ctx, req.Item)
	if err != nil {
		return nil, err
	}
	tx := ledger.Transaction{
		Kind:      ledger.KindRestock,
		Item:      item.Name,
		Quantity:  req.Delta,
		UnitPrice: item.UnitCost,
		Date:      date,
		Rationale: req.Rationale,
	}
	id, err := s.ledger.Append(ctx, tx)
	if err != nil {
		return nil, err
	}
	tx.ID = id
	s.logger.WithFields(logrus.Fields{
		"module": "inventory",
		"item":   item.Name,
		"delta":  req.Delta,
		"date":   req.Date,
	}).Info("stock adjusted")
	return &tx, nil
}

func (s *service) Report(ctx context.Context, asOf time.Time) (*Report, error) {
	asOf = ledger.Day(asOf)
	txs, err := s.ledger.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	items, err := s.catalog.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	snap := ledger.Fold(txs, s.ledger.InitialCash(), asOf)

	report := &Report{AsOf: asOf, Cash: snap.Cash, InventoryValue: decimal.Zero}
	for _, item := range items {
		stock := snap.Stock[item.Name]
		value := item.UnitCost.Mul(decimal.NewFromInt(int64(stock))).RoundBank(s.minorUnits)
		report.Items = append(report.Items, ItemValuation{
			Item:     item.Name,
			Stock:    stock,
			UnitCost: item.UnitCost,
			Value:    value,
		})
		report.InventoryValue = report.InventoryValue.Add(value)
	}
	report.TotalAssets = report.Cash.Add(report.InventoryValue)
	report.TopSellers = topSellers(txs, asOf, topSellerCount)
	return report, nil
}

func topSellers(txs []*ledger.Transaction, asOf time.Time, n int) []SalesSummary {
	byItem := map[string]*SalesSummary{}
	for _, tx := range txs {
		if tx.Kind != ledger.KindSale || tx.Date.After(asOf) {
			continue
		}
		sum := byItem[tx.Item]
		if sum == nil {
			sum = &SalesSummary{Item: tx.Item, Revenue: decimal.Zero}
			byItem[tx.Item] = sum
		}
		sum.Units += -tx.Quantity
		sum.Revenue = sum.Revenue.Add(tx.CashDelta)
	}
	out := make([]SalesSummary, 0, len(byItem))
	for _, sum := range byItem {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Item < out[j].Item
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
