package catalog

import "context"

// Repository defines the interface for catalog item storage.
type Repository interface {
	Upsert(ctx context.Context, item *Item) error
	GetByName(ctx context.Context, name string) (*Item, error)
	List(ctx context.Context, category string) ([]*Item, error)
}
