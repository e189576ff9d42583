package ledger

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/georgemunganga/printa-fulfillment/internal/apperr"
	"github.com/georgemunganga/printa-fulfillment/internal/lock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service is the ledger store: the only write path for stock and cash.
type Service interface {
	// Append validates tx against the item's history and persists it.
	// Violations return an apperr.KindInvariantViolation error and write nothing.
	Append(ctx context.Context, tx Transaction) (uuid.UUID, error)

	// Snapshot replays every transaction dated on or before asOf.
	Snapshot(ctx context.Context, asOf time.Time) (*Snapshot, error)

	// History returns the item's transactions in causal order.
	History(ctx context.Context, item string) ([]*Transaction, error)

	// Transactions returns the whole log in causal order.
	Transactions(ctx context.Context) ([]*Transaction, error)

	// InitialCash is the balance the cash fold starts from.
	InitialCash() decimal.Decimal
}

type service struct {
	repo        Repository
	initialCash decimal.Decimal
	locks       *lock.Keyed
	logger      *logrus.Logger
}

// NewService creates a ledger over repo starting from initialCash.
func NewService(repo Repository, initialCash decimal.Decimal, logger *logrus.Logger) Service {
	return &service{
		repo:        repo,
		initialCash: initialCash,
		locks:       lock.NewKeyed(),
		logger:      logger,
	}
}

func (s *service) InitialCash() decimal.Decimal { return s.initialCash }

func (s *service) Append(ctx context.Context, tx Transaction) (uuid.UUID, error) {
	if err := checkShape(&tx); err != nil {
		return uuid.Nil, err
	}
	tx.Date = Day(tx.Date)

	unlock, err := s.locks.Lock(ctx, tx.Item)
	if err != nil {
		return uuid.Nil, apperr.Internal("lock ledger item", err)
	}
	defer unlock()

	history, err := s.repo.ListByItem(ctx, tx.Item)
	if err != nil {
		return uuid.Nil, apperr.Internal("load item history", err)
	}
	if err := checkInvariants(history, &tx); err != nil {
		s.logger.WithFields(logrus.Fields{
			"module": "ledger",
			"item":   tx.Item,
			"kind":   tx.Kind,
			"date":   tx.Date.Format(DateLayout),
			"qty":    tx.Quantity,
		}).Warn(err.Error())
		return uuid.Nil, err
	}

	tx.ID = uuid.New()
	tx.CreatedAt = time.Now().UTC()
	if err := s.repo.Insert(ctx, &tx); err != nil {
		return uuid.Nil, apperr.Internal("append transaction", err)
	}
	s.logger.WithFields(logrus.Fields{
		"module":     "ledger",
		"id":         tx.ID,
		"item":       tx.Item,
		"kind":       tx.Kind,
		"date":       tx.Date.Format(DateLayout),
		"qty":        tx.Quantity,
		"cash_delta": tx.CashDelta.String(),
	}).Info("transaction appended")
	return tx.ID, nil
}

func (s *service) Snapshot(ctx context.Context, asOf time.Time) (*Snapshot, error) {
	txs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return Fold(txs, s.initialCash, asOf), nil
}

func (s *service) History(ctx context.Context, item string) ([]*Transaction, error) {
	return s.repo.ListByItem(ctx, item)
}

func (s *service) Transactions(ctx context.Context) ([]*Transaction, error) {
	return s.repo.List(ctx)
}

// ── validation ───────────────────────────────────────────────────────────────

func checkShape(tx *Transaction) error {
	if strings.TrimSpace(tx.Item) == "" {
		return apperr.InvalidRequest("transaction item is required")
	}
	if tx.Date.IsZero() {
		return apperr.InvalidRequest("transaction date is required")
	}
	if tx.Quantity == 0 {
		return apperr.InvalidRequest("transaction quantity must not be zero")
	}
	switch tx.Kind {
	case KindSale:
		if tx.Quantity > 0 {
			return apperr.InvalidRequest("sale quantity must be negative, got %d", tx.Quantity)
		}
		if tx.CashDelta.IsNegative() {
			return apperr.InvalidRequest("sale cash delta must not be negative")
		}
	case KindPurchase:
		if tx.Quantity < 0 {
			return apperr.InvalidRequest("purchase quantity must be positive, got %d", tx.Quantity)
		}
		if tx.CashDelta.IsPositive() {
			return apperr.InvalidRequest("purchase cash delta must not be positive")
		}
	case KindRestock:
		if !tx.CashDelta.IsZero() {
			return apperr.InvalidRequest("restock entries carry no cash")
		}
	default:
		return apperr.InvalidRequest("unknown transaction kind %q", tx.Kind)
	}
	if tx.Deferred && tx.Kind != KindPurchase {
		return apperr.InvalidRequest("only purchases may be deferred")
	}
	return nil
}

// checkInvariants rejects retroactive entries and any insertion that would
// make the item's running stock negative somewhere in its causal history.
// Deferred deliveries are future-dated by nature and do not move the
// retroactivity watermark.
func checkInvariants(history []*Transaction, tx *Transaction) error {
	if !tx.Deferred {
		for _, h := range history {
			if !h.Deferred && h.Date.After(tx.Date) {
				return apperr.InvariantViolation(
					"%s for %q dated %s precedes committed transaction dated %s",
					tx.Kind, tx.Item, tx.Date.Format(DateLayout), h.Date.Format(DateLayout))
			}
		}
	}

	candidate := *tx
	candidate.Seq = math.MaxInt64
	merged := append(append([]*Transaction(nil), history...), &candidate)
	SortCausal(merged)

	running := 0
	for _, h := range merged {
		running += h.Quantity
		if running < 0 {
			return apperr.InvariantViolation(
				"stock of %q would drop to %d on %s",
				tx.Item, running, h.Date.Format(DateLayout))
		}
	}
	return nil
}
