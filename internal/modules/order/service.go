package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/lock"
	"github.com/georgemunganga/printa-fulfillment/internal/logging"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/catalog"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/inventory"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/pricing"
	"github.com/georgemunganga/printa-fulfillment/internal/modules/restock"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Service is the request processor.
type Service interface {
	// Process takes one request to a terminal state. Business outcomes,
	// rejections included, are reported in the Result. The error is reserved
	// for infrastructure failures that struck before anything was written;
	// failures after the sale is committed are carried on Result.Error.
	Process(ctx context.Context, req QuoteRequest) (*Result, error)

	// ProcessBatch returns one result per request, in presented order.
	// Requests for the same item are always processed in presented order.
	// A request that fails is recorded as REJECTED and the batch goes on.
	ProcessBatch(ctx context.Context, reqs []QuoteRequest) ([]*Result, error)

	Get(ctx context.Context, id string) (*Result, error)
	List(ctx context.Context, f ListFilter) ([]*Result, error)
}

// Engine bundles the components the processor sequences.
type Engine struct {
	Catalog   catalog.Service
	Inventory inventory.Service
	Ledger    ledger.Service
	Pricing   pricing.Service
	Restock   restock.Service
	Locker    lock.Locker
}

type service struct {
	repo     Repository
	engine   Engine
	workers  int
	validate *validator.Validate
	logger   *logrus.Logger
}

// NewService creates the request processor. workers > 1 lets batches run
// distinct items in parallel.
func NewService(repo Repository, engine Engine, workers int, logger *logrus.Logger) Service {
	if engine.Locker == nil {
		engine.Locker = lock.NewKeyed()
	}
	if workers < 1 {
		workers = 1
	}
	return &service{
		repo:     repo,
		engine:   engine,
		workers:  workers,
		validate: validator.New(),
		logger:   logger,
	}
}

// validTransitions defines the processing state machine. FULFILLED and
// PARTIAL may fall back to DENIED when the commit conflicts.
var validTransitions = map[State][]State{
	StateReceived:         {StatePriced, StateRejected},
	StatePriced:           {StateFulfilled, StatePartial, StateDenied},
	StateFulfilled:        {StateRestockTriggered, StateCommitted, StateDenied},
	StatePartial:          {StateRestockTriggered, StateCommitted, StateDenied},
	StateDenied:           {StateRestockTriggered, StateCommitted},
	StateRestockTriggered: {StateCommitted},
	StateCommitted:        {},
	StateRejected:         {},
}

func advance(r *Result, next State) error {
	for _, s := range validTransitions[r.State] {
		if s == next {
			r.State = next
			r.Trail = append(r.Trail, next)
			return nil
		}
	}
	return apperr.Internal("advance request state", fmt.Errorf("cannot transition from %s to %s", r.State, next))
}

func (s *service) Process(ctx context.Context, req QuoteRequest) (*Result, error) {
	res := &Result{
		ID:        uuid.New(),
		Request:   req,
		State:     StateReceived,
		Trail:     []State{StateReceived},
		CreatedAt: time.Now().UTC(),
	}
	log := s.logger.WithFields(logrus.Fields{
		"module":     "order",
		"request_id": res.ID,
		"item":       req.Item,
		"quantity":   req.Quantity,
		"date":       req.Date,
	})

	item, date, err := s.check(ctx, req)
	if err != nil {
		appErr, ok := apperr.As(err)
		if !ok || appErr.Kind == apperr.KindInternal {
			return nil, err
		}
		res.Error = appErr
		if err := advance(res, StateRejected); err != nil {
			return nil, err
		}
		log.WithField("error", appErr.Message).Info("request rejected")
		s.save(ctx, res)
		return res, nil
	}

	unlock, err := s.engine.Locker.Lock(ctx, item.Name)
	if err != nil {
		return nil, apperr.Internal("lock item", err)
	}
	defer unlock()

	if err := s.run(ctx, res, item, date); err != nil {
		logging.LogError(s.logger, "order", "Process", "request aborted", req, err)
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"status":  res.Quote.Status,
		"trail":   res.Trail,
		"restock": res.SupplierOrder != nil,
	}).Info("request committed")
	s.save(ctx, res)
	return res, nil
}

// check validates the request shape and resolves the item by exact name.
func (s *service) check(ctx context.Context, req QuoteRequest) (*catalog.Item, time.Time, error) {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, time.Time{}, apperr.InvalidRequest("invalid request: field %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return nil, time.Time{}, apperr.InvalidRequest("invalid request: %v", err)
	}
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		return nil, time.Time{}, apperr.InvalidRequest("invalid date %q: expected YYYY-MM-DD", req.Date)
	}
	item, err := s.engine.Catalog.Get(ctx, req.Item)
	if err != nil {
		return nil, time.Time{}, err
	}
	return item, date, nil
}

// run prices, commits and restocks while the item lock is held.
func (s *service) run(ctx context.Context, res *Result, item *catalog.Item, date time.Time) error {
	q, err := s.engine.Pricing.Quote(ctx, pricing.Request{Item: item.Name, Quantity: res.Request.Quantity, Date: date})
	if err != nil {
		return err
	}
	res.Quote = q
	if err := advance(res, StatePriced); err != nil {
		return err
	}
	if err := advance(res, State(q.Status)); err != nil {
		return err
	}

	conflict := false
	if q.Status != pricing.StatusDenied {
		sale := ledger.Transaction{
			Kind:      ledger.KindSale,
			Item:      item.Name,
			Quantity:  -q.Quantity,
			UnitPrice: q.UnitPrice,
			ListPrice: q.BasePrice,
			CashDelta: q.TotalPrice,
			Date:      date,
			Rationale: fmt.Sprintf("quote %s %s", q.ID, q.Status),
		}
		id, err := s.engine.Ledger.Append(ctx, sale)
		switch {
		case apperr.Is(err, apperr.KindInvariantViolation):
			conflict = true
			res.Error, _ = apperr.As(err)
			res.Quote = q.Deny(pricing.ReasonInventoryConflict, "the order could not be committed against current stock")
			if err := advance(res, StateDenied); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			sale.ID = id
			res.Sale = &sale
		}
	}

	// From here on the outcome stands: later failures are recorded on the
	// result and the request still ends COMMITTED.

	// A conflict means the item's history moved under this request; its
	// demand signal is stale, so restocking is left to the next request.
	if !conflict {
		order, err := s.engine.Restock.Evaluate(ctx, item.Name, date)
		if err != nil {
			s.degrade(res, "evaluate restock", err)
		}
		if order != nil {
			res.SupplierOrder = order
			if err := advance(res, StateRestockTriggered); err != nil {
				return err
			}
		}
		if res.Quote.Status != pricing.StatusFulfilled {
			if err := s.expectRestock(ctx, res, item.Name, date); err != nil {
				s.degrade(res, "look up open supplier order", err)
			}
		}
	}

	if err := s.snapshot(ctx, res, item.Name, date); err != nil {
		s.degrade(res, "snapshot item", err)
	}
	return advance(res, StateCommitted)
}

func (s *service) snapshot(ctx context.Context, res *Result, item string, date time.Time) error {
	stock, err := s.engine.Inventory.StockLevel(ctx, item, date)
	if err != nil {
		return err
	}
	cash, err := s.engine.Inventory.CashBalance(ctx, date)
	if err != nil {
		return err
	}
	res.Snapshot = &ItemSnapshot{Item: item, AsOf: date, Stock: stock, Cash: cash}
	return nil
}

// degrade records a failure that cannot undo the request's outcome. The
// first error is kept on the result; every one is logged with the record.
func (s *service) degrade(res *Result, step string, err error) {
	logging.LogError(s.logger, "order", "Process", step, res, err)
	if res.Error != nil {
		return
	}
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal(step, err)
	}
	res.Error = appErr
}

// expectRestock records when short stock is due back, from the order just
// placed or one already in transit.
func (s *service) expectRestock(ctx context.Context, res *Result, item string, date time.Time) error {
	order := res.SupplierOrder
	if order == nil {
		open, err := s.engine.Restock.OpenOrder(ctx, item, date)
		if err != nil {
			return err
		}
		order = open
	}
	if order != nil {
		eta := order.DeliveryDate
		res.ExpectedRestock = &eta
	}
	return nil
}

// save stores the result. A storage failure does not change the outcome; it
// is carried on the result and the full record goes to the error log.
func (s *service) save(ctx context.Context, res *Result) {
	if err := s.repo.Save(ctx, res); err != nil {
		s.degrade(res, "store result", err)
	}
}

// failed records a request that Process gave up on before writing anything.
func (s *service) failed(ctx context.Context, req QuoteRequest, cause error) *Result {
	appErr, ok := apperr.As(cause)
	if !ok {
		appErr = apperr.Internal("process request", cause)
	}
	res := &Result{
		ID:        uuid.New(),
		Request:   req,
		State:     StateRejected,
		Trail:     []State{StateReceived, StateRejected},
		Error:     appErr,
		CreatedAt: time.Now().UTC(),
	}
	s.save(ctx, res)
	return res
}

// processOne never fails the batch for a single request. Only cancellation
// stops it.
func (s *service) processOne(ctx context.Context, req QuoteRequest) (*Result, error) {
	res, err := s.Process(ctx, req)
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return s.failed(ctx, req, err), nil
}

func (s *service) ProcessBatch(ctx context.Context, reqs []QuoteRequest) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	if s.workers == 1 {
		for i, req := range reqs {
			res, err := s.processOne(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("request %d: %w", i, err)
			}
			results[i] = res
		}
		return results, nil
	}

	// Group by item, keeping presented order inside each group.
	var keys []string
	groups := map[string][]int{}
	for i, req := range reqs {
		if _, ok := groups[req.Item]; !ok {
			keys = append(keys, req.Item)
		}
		groups[req.Item] = append(groups[req.Item], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, key := range keys {
		idxs := groups[key]
		g.Go(func() error {
			for _, i := range idxs {
				res, err := s.processOne(gctx, reqs[i])
				if err != nil {
					return fmt.Errorf("request %d: %w", i, err)
				}
				results[i] = res
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *service) Get(ctx context.Context, id string) (*Result, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.InvalidRequest("invalid result id %q", id)
	}
	res, err := s.repo.Get(ctx, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("result %s not found", id)
	}
	if err != nil {
		return nil, apperr.Internal("load result", err)
	}
	return res, nil
}

func (s *service) List(ctx context.Context, f ListFilter) ([]*Result, error) {
	results, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("list results", err)
	}
	return results, nil
}
