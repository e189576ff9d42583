package order

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/logging"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/catalog"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/inventory"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/pricing"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/restock"
	"github.com/shopspring/decimal"
)

const openingDate = "2025-04-01"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := ledger.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// testEngine wires every component over in-memory repositories.
type testEngine struct {
	catalog   catalog.Service
	ledger    ledger.Service
	inventory inventory.Service
	pricing   pricing.Service
	restock   restock.Service
	service   Service
}

func testItems(glossyStock int) []catalog.Item {
	return []catalog.Item{
		{
			Name:             "Glossy paper",
			Category:         "paper",
			UnitCost:         dec("0.05"),
			UnitPrice:        dec("0.20"),
			InitialStock:     glossyStock,
			ReorderThreshold: 100,
			ReorderQuantity:  500,
		},
		{
			Name:             "Cardstock",
			Category:         "paper",
			UnitCost:         dec("0.10"),
			UnitPrice:        dec("0.15"),
			InitialStock:     300,
			ReorderThreshold: 50,
			ReorderQuantity:  200,
		},
		{
			Name:            "Poster paper",
			Category:        "large format",
			UnitCost:        dec("0.25"),
			UnitPrice:       dec("0.60"),
			ReorderQuantity: 100,
		},
	}
}

func newTestEngine(t testing.TB, items []catalog.Item, workers int) *testEngine {
	t.Helper()
	e, err := buildEngine(items, workers)
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	return e
}

func buildEngine(items []catalog.Item, workers int) (*testEngine, error) {
	ctx := context.Background()
	logger := logging.Discard()

	cat := catalog.NewService(catalog.NewMemoryRepository())
	if err := cat.Load(ctx, items); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	led := ledger.NewService(ledger.NewMemoryRepository(), decimal.NewFromInt(1000), logger)
	inv := inventory.NewService(led, cat, logger)
	if err := inv.Seed(ctx, day(openingDate)); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	policy, err := pricing.NewPolicy(pricing.DefaultPolicy())
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	prc := pricing.NewService(cat, inv, led, policy, logger)
	rst := restock.NewService(restock.NewMemoryRepository(), cat, inv, led, restock.DefaultPolicy(), logger)

	svc := NewService(NewMemoryRepository(), Engine{
		Catalog:   cat,
		Inventory: inv,
		Ledger:    led,
		Pricing:   prc,
		Restock:   rst,
	}, workers, logger)
	return &testEngine{catalog: cat, ledger: led, inventory: inv, pricing: prc, restock: rst, service: svc}, nil
}

// engine returns the components for building a processor around stubs.
func (e *testEngine) engine() Engine {
	return Engine{
		Catalog:   e.catalog,
		Inventory: e.inventory,
		Ledger:    e.ledger,
		Pricing:   e.pricing,
		Restock:   e.restock,
	}
}

func (e *testEngine) process(t testing.TB, item string, qty int, date string) *Result {
	t.Helper()
	res, err := e.service.Process(context.Background(), QuoteRequest{Item: item, Quantity: qty, Date: date})
	if err != nil {
		t.Fatalf("process %s x%d: %v", item, qty, err)
	}
	return res
}
