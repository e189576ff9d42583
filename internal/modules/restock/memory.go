package restock

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepo struct {
	mu     sync.RWMutex
	orders []*SupplierOrder
}

// NewMemoryRepository creates an in-process supplier order store.
func NewMemoryRepository() Repository { return &memoryRepo{} }

func (r *memoryRepo) Insert(_ context.Context, order *SupplierOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	stored := *order
	r.orders = append(r.orders, &stored)
	return nil
}

func (r *memoryRepo) List(_ context.Context, item string) ([]*SupplierOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*SupplierOrder
	for _, o := range r.orders {
		if item != "" && o.Item != item {
			continue
		}
		c := *o
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderDate.Before(out[j].OrderDate) })
	return out, nil
}
