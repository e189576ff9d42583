package ledger

import (
	"context"
	"sync"
	"time"
)

type memoryRepo struct {
	mu     sync.RWMutex
	seq    int64
	txs    []*Transaction
	byItem map[string][]*Transaction
}

// NewMemoryRepository creates an in-process append-only log.
func NewMemoryRepository() Repository {
	return &memoryRepo{byItem: map[string][]*Transaction{}}
}

func (r *memoryRepo) Insert(_ context.Context, tx *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	tx.Seq = r.seq
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	stored := *tx
	r.txs = append(r.txs, &stored)
	r.byItem[tx.Item] = append(r.byItem[tx.Item], &stored)
	return nil
}

func (r *memoryRepo) List(_ context.Context) ([]*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyCausal(r.txs), nil
}

func (r *memoryRepo) ListByItem(_ context.Context, item string) ([]*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyCausal(r.byItem[item]), nil
}

// copyCausal hands out copies so callers cannot edit stored entries.
func copyCausal(src []*Transaction) []*Transaction {
	out := make([]*Transaction, len(src))
	for i, tx := range src {
		c := *tx
		out[i] = &c
	}
	SortCausal(out)
	return out
}
