package catalog

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"
)

type memoryRepo struct {
	mu    sync.RWMutex
	items map[string]*Item
}

// NewMemoryRepository creates an in-process catalog.
func NewMemoryRepository() Repository {
	return &memoryRepo{items: map[string]*Item{}}
}

func (r *memoryRepo) Upsert(_ context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	stored := *item
	if prev, ok := r.items[item.Name]; ok {
		stored.CreatedAt = prev.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.items[item.Name] = &stored
	return nil
}

func (r *memoryRepo) GetByName(_ context.Context, name string) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	c := *item
	return &c, nil
}

func (r *memoryRepo) List(_ context.Context, category string) ([]*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []*Item
	for _, item := range r.items {
		if category != "" && item.Category != category {
			continue
		}
		c := *item
		items = append(items, &c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}
