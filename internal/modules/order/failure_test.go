package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/logging"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/restock"
)

var errStoreDown = errors.New("supplier store down")

// downRestock fails every evaluation for one item.
type downRestock struct {
	restock.Service
	item string
}

func (d downRestock) Evaluate(ctx context.Context, item string, asOf time.Time) (*restock.SupplierOrder, error) {
	if item == d.item {
		return nil, errStoreDown
	}
	return d.Service.Evaluate(ctx, item, asOf)
}

// downLocker refuses the lock for one item.
type downLocker struct{ item string }

func (d downLocker) Lock(_ context.Context, key string) (func(), error) {
	if key == d.item {
		return nil, errors.New("lock service unavailable")
	}
	return func() {}, nil
}

type brokenResults struct{ Repository }

func (brokenResults) Save(context.Context, *Result) error {
	return errors.New("results table unavailable")
}

func countKind(t *testing.T, l ledger.Service, item string, kind ledger.Kind) int {
	t.Helper()
	history, err := l.History(context.Background(), item)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	n := 0
	for _, tx := range history {
		if tx.Kind == kind {
			n++
		}
	}
	return n
}

func TestRestockFailureKeepsCommittedSale(t *testing.T) {
	for _, workers := range []int{1, 4} {
		e := newTestEngine(t, testItems(500), 1)
		engine := e.engine()
		engine.Restock = downRestock{Service: e.restock, item: "Glossy paper"}
		repo := NewMemoryRepository()
		svc := NewService(repo, engine, workers, logging.Discard())
		ctx := context.Background()

		results, err := svc.ProcessBatch(ctx, []QuoteRequest{
			{Item: "Glossy paper", Quantity: 450, Date: "2025-04-02"},
			{Item: "Cardstock", Quantity: 10, Date: "2025-04-02"},
		})
		if err != nil {
			t.Fatalf("workers %d: batch: %v", workers, err)
		}
		if len(results) != 2 {
			t.Fatalf("workers %d: results = %d, want 2", workers, len(results))
		}

		glossy := results[0]
		if glossy.State != StateCommitted || glossy.Sale == nil || glossy.Quote.Quantity != 450 {
			t.Fatalf("workers %d: glossy = %s sale %v, want COMMITTED with its sale", workers, glossy.State, glossy.Sale)
		}
		if glossy.Error == nil || glossy.Error.Kind != apperr.KindInternal || !errors.Is(glossy.Error, errStoreDown) {
			t.Fatalf("workers %d: glossy error = %v, want the restock failure", workers, glossy.Error)
		}
		if glossy.Snapshot == nil || glossy.Snapshot.Stock != 50 {
			t.Fatalf("workers %d: glossy snapshot = %+v, want stock 50", workers, glossy.Snapshot)
		}
		if cardstock := results[1]; cardstock.State != StateCommitted || cardstock.Sale == nil || cardstock.Error != nil {
			t.Fatalf("workers %d: cardstock = %+v, want an unaffected commit", workers, cardstock)
		}

		stored, _ := repo.List(ctx, ListFilter{})
		if len(stored) != 2 {
			t.Fatalf("workers %d: stored results = %d, want 2", workers, len(stored))
		}
		if got, _ := svc.Get(ctx, glossy.ID.String()); got == nil || got.Sale == nil {
			t.Fatalf("workers %d: stored glossy result lost its sale", workers)
		}
	}
}

func TestResultStoreFailureKeepsOutcome(t *testing.T) {
	e := newTestEngine(t, testItems(500), 1)
	svc := NewService(brokenResults{NewMemoryRepository()}, e.engine(), 1, logging.Discard())

	res, err := svc.Process(context.Background(), QuoteRequest{Item: "Glossy paper", Quantity: 100, Date: "2025-04-02"})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.State != StateCommitted || res.Sale == nil {
		t.Fatalf("result = %s sale %v, want COMMITTED with a sale", res.State, res.Sale)
	}
	if res.Error == nil || res.Error.Kind != apperr.KindInternal {
		t.Fatalf("error = %v, want Internal store failure", res.Error)
	}
	if n := countKind(t, e.ledger, "Glossy paper", ledger.KindSale); n != 1 {
		t.Fatalf("sales = %d, want 1", n)
	}
}

func TestBatchRecordsFailedRequestAndContinues(t *testing.T) {
	e := newTestEngine(t, testItems(500), 1)
	engine := e.engine()
	engine.Locker = downLocker{item: "Cardstock"}
	svc := NewService(NewMemoryRepository(), engine, 1, logging.Discard())

	results, err := svc.ProcessBatch(context.Background(), []QuoteRequest{
		{Item: "Cardstock", Quantity: 10, Date: "2025-04-02"},
		{Item: "Glossy paper", Quantity: 10, Date: "2025-04-02"},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	failed := results[0]
	if failed.State != StateRejected || failed.Error == nil || failed.Error.Kind != apperr.KindInternal {
		t.Fatalf("failed request = %+v, want REJECTED with an Internal error", failed)
	}
	if d := failed.Disclosure(); d.Message != "the request could not be processed" {
		t.Fatalf("disclosure message = %q", d.Message)
	}
	if n := countKind(t, e.ledger, "Cardstock", ledger.KindSale); n != 0 {
		t.Fatalf("cardstock sales = %d, want 0", n)
	}
	if results[1].State != StateCommitted || results[1].Sale == nil {
		t.Fatalf("glossy = %+v, want COMMITTED", results[1])
	}
}
