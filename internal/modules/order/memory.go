package order

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"
)

type memoryRepo struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*Result
	order []uuid.UUID
}

// NewMemoryRepository creates an in-process result store.
func NewMemoryRepository() Repository {
	return &memoryRepo{byID: map[uuid.UUID]*Result{}}
}

func (r *memoryRepo) Save(_ context.Context, res *Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[res.ID]; !ok {
		r.order = append(r.order, res.ID)
	}
	stored := *res
	r.byID[res.ID] = &stored
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (*Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *res
	return &c, nil
}

func (r *memoryRepo) List(_ context.Context, f ListFilter) ([]*Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Result
	for _, id := range r.order {
		res := r.byID[id]
		if !f.matches(res) {
			continue
		}
		c := *res
		out = append(out, &c)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (f ListFilter) matches(r *Result) bool {
	if f.Item != "" && r.Request.Item != f.Item {
		return false
	}
	if f.State != "" && r.State != f.State {
		return false
	}
	if f.Status != "" && (r.Quote == nil || r.Quote.Status != f.Status) {
		return false
	}
	return true
}
