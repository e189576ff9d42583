package restock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/logging"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/catalog"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/inventory"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := ledger.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

type fixture struct {
	ledger    ledger.Service
	catalog   catalog.Service
	inventory inventory.Service
	service   Service
}

func newFixture(t *testing.T, policy Policy, initialCash int64) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, policy, initialCash, NewMemoryRepository())
}

func newFixtureWithRepo(t *testing.T, policy Policy, initialCash int64, repo Repository) *fixture {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewService(catalog.NewMemoryRepository())
	err := cat.Load(ctx, []catalog.Item{
		{
			Name:             "Glossy paper",
			UnitCost:         decimal.RequireFromString("0.05"),
			UnitPrice:        decimal.RequireFromString("0.20"),
			InitialStock:     50,
			ReorderThreshold: 100,
			ReorderQuantity:  500,
		},
		{
			Name:             "Cardstock",
			UnitCost:         decimal.RequireFromString("0.10"),
			UnitPrice:        decimal.RequireFromString("0.15"),
			InitialStock:     400,
			ReorderThreshold: 100,
			ReorderQuantity:  50,
			LeadTimes:        []catalog.LeadTime{{MinQuantity: 0, Days: 2}},
		},
	})
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	led := ledger.NewService(ledger.NewMemoryRepository(), decimal.NewFromInt(initialCash), logging.Discard())
	inv := inventory.NewService(led, cat, logging.Discard())
	if err := inv.Seed(ctx, day("2025-04-01")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return &fixture{
		ledger:    led,
		catalog:   cat,
		inventory: inv,
		service:   NewService(repo, cat, inv, led, policy, logging.Discard()),
	}
}

func TestLeadTimeSchedule(t *testing.T) {
	f := newFixture(t, DefaultPolicy(), 1000)
	glossy, _ := f.catalog.Get(context.Background(), "Glossy paper")
	cardstock, _ := f.catalog.Get(context.Background(), "Cardstock")

	cases := []struct {
		item *catalog.Item
		qty  int
		want int
	}{
		{glossy, 5, 0},
		{glossy, 10, 0},
		{glossy, 11, 1},
		{glossy, 100, 1},
		{glossy, 101, 4},
		{glossy, 1000, 4},
		{glossy, 1001, 7},
		{cardstock, 5000, 2},
	}
	for _, c := range cases {
		if got := f.service.LeadTime(c.item, c.qty); got != c.want {
			t.Errorf("LeadTime(%s, %d) = %d, want %d", c.item.Name, c.qty, got, c.want)
		}
	}
	if got := f.service.DeliveryDate(glossy, 500, day("2025-04-29")); !got.Equal(day("2025-05-03")) {
		t.Fatalf("delivery = %s, want 2025-05-03", got.Format(ledger.DateLayout))
	}
}

func TestEvaluatePlacesDeferredPurchase(t *testing.T) {
	f := newFixture(t, DefaultPolicy(), 1000)
	ctx := context.Background()

	order, err := f.service.Evaluate(ctx, "Glossy paper", day("2025-04-02"))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if order == nil {
		t.Fatal("expected a supplier order for stock 50 under threshold 100")
	}
	if order.Quantity != 500 || !order.DeliveryDate.Equal(day("2025-04-06")) || order.Status != StatusPlaced {
		t.Fatalf("order = %+v", order)
	}
	if !order.Cost.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("cost = %s, want 25", order.Cost)
	}

	// stock and cash move only on delivery
	before, _ := f.ledger.Snapshot(ctx, day("2025-04-05"))
	after, _ := f.ledger.Snapshot(ctx, day("2025-04-06"))
	if before.Stock["Glossy paper"] != 50 || after.Stock["Glossy paper"] != 550 {
		t.Fatalf("stock = %d then %d, want 50 then 550", before.Stock["Glossy paper"], after.Stock["Glossy paper"])
	}
	if !before.Cash.Equal(decimal.NewFromInt(1000)) || !after.Cash.Equal(decimal.NewFromInt(975)) {
		t.Fatalf("cash = %s then %s, want 1000 then 975", before.Cash, after.Cash)
	}
}

func TestEvaluateDoesNotDuplicateOpenOrder(t *testing.T) {
	f := newFixture(t, DefaultPolicy(), 1000)
	ctx := context.Background()

	if first, _ := f.service.Evaluate(ctx, "Glossy paper", day("2025-04-02")); first == nil {
		t.Fatal("first evaluation placed nothing")
	}
	second, err := f.service.Evaluate(ctx, "Glossy paper", day("2025-04-03"))
	if err != nil || second != nil {
		t.Fatalf("second evaluation = %+v, %v; want nothing while in transit", second, err)
	}

	orders, _ := f.service.Orders(ctx, "Glossy paper", day("2025-04-06"))
	if len(orders) != 1 || orders[0].Status != StatusDelivered {
		t.Fatalf("orders = %+v, want one DELIVERED", orders)
	}
}

func TestEvaluateSkipsWhenStockIsHealthy(t *testing.T) {
	f := newFixture(t, DefaultPolicy(), 1000)
	order, err := f.service.Evaluate(context.Background(), "Cardstock", day("2025-04-02"))
	if err != nil || order != nil {
		t.Fatalf("evaluate = %+v, %v; want nothing", order, err)
	}
}

func TestEvaluateRequiresFunds(t *testing.T) {
	policy := DefaultPolicy()
	policy.RequireFunds = true
	f := newFixture(t, policy, 10)

	order, err := f.service.Evaluate(context.Background(), "Glossy paper", day("2025-04-02"))
	if err != nil || order != nil {
		t.Fatalf("evaluate = %+v, %v; want skipped for cost 25 over cash 10", order, err)
	}
}

func TestEvaluateUnknownItem(t *testing.T) {
	f := newFixture(t, DefaultPolicy(), 1000)
	_, err := f.service.Evaluate(context.Background(), "Vellum", day("2025-04-02"))
	if !apperr.Is(err, apperr.KindUnknownItem) {
		t.Fatalf("err = %v, want UnknownItem", err)
	}
}

type brokenStore struct{ Repository }

func (brokenStore) Insert(context.Context, *SupplierOrder) error {
	return errors.New("supplier store down")
}

func TestEvaluateDoesNotReorderWhenOrderRecordIsLost(t *testing.T) {
	f := newFixtureWithRepo(t, DefaultPolicy(), 1000, brokenStore{NewMemoryRepository()})
	ctx := context.Background()

	_, err := f.service.Evaluate(ctx, "Glossy paper", day("2025-04-02"))
	if !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("first evaluation err = %v, want Internal", err)
	}
	for i := 0; i < 2; i++ {
		order, err := f.service.Evaluate(ctx, "Glossy paper", day("2025-04-02"))
		if err != nil || order != nil {
			t.Fatalf("evaluation %d = %+v, %v; want nothing while the booked delivery is pending", i+2, order, err)
		}
	}

	history, _ := f.ledger.History(ctx, "Glossy paper")
	purchases := 0
	for _, tx := range history {
		if tx.Kind == ledger.KindPurchase {
			purchases++
		}
	}
	if purchases != 1 {
		t.Fatalf("purchases = %d, want 1", purchases)
	}
	snap, _ := f.ledger.Snapshot(ctx, day("2025-04-06"))
	if snap.Stock["Glossy paper"] != 550 || !snap.Cash.Equal(decimal.NewFromInt(975)) {
		t.Fatalf("stock = %d cash = %s, want 550 and 975", snap.Stock["Glossy paper"], snap.Cash)
	}

	open, err := f.service.OpenOrder(ctx, "Glossy paper", day("2025-04-03"))
	if err != nil || open == nil || !open.DeliveryDate.Equal(day("2025-04-06")) || open.Quantity != 500 {
		t.Fatalf("open order = %+v, %v; want the booked delivery on 2025-04-06", open, err)
	}
	orders, _ := f.service.Orders(ctx, "", day("2025-04-06"))
	if len(orders) != 1 || orders[0].Status != StatusDelivered {
		t.Fatalf("orders = %+v, want one DELIVERED", orders)
	}
}

func TestOrderCostUsesCurrencyPrecision(t *testing.T) {
	cases := []struct {
		minorUnits int32
		want       string
	}{
		{0, "1"},
		{2, "0.62"},
		{3, "0.625"},
	}
	for _, c := range cases {
		policy := DefaultPolicy()
		policy.MinorUnits = c.minorUnits
		f := newFixture(t, policy, 1000)
		ctx := context.Background()
		err := f.catalog.Load(ctx, []catalog.Item{{
			Name:             "Tissue paper",
			UnitCost:         decimal.RequireFromString("0.125"),
			UnitPrice:        decimal.RequireFromString("0.30"),
			ReorderThreshold: 10,
			ReorderQuantity:  5,
		}})
		if err != nil {
			t.Fatalf("load: %v", err)
		}

		order, err := f.service.Evaluate(ctx, "Tissue paper", day("2025-04-02"))
		if err != nil || order == nil {
			t.Fatalf("minor units %d: evaluate = %+v, %v", c.minorUnits, order, err)
		}
		if !order.Cost.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("minor units %d: cost = %s, want %s", c.minorUnits, order.Cost, c.want)
		}
	}
}
