package ledger

import "context"

// Repository defines append-only storage for ledger transactions.
type Repository interface {
	// Insert persists tx and assigns its insertion sequence. It never updates.
	Insert(ctx context.Context, tx *Transaction) error

	// List returns every transaction in causal order.
	List(ctx context.Context) ([]*Transaction, error)

	// ListByItem returns the item's transactions in causal order.
	ListByItem(ctx context.Context, item string) ([]*Transaction, error)
}
