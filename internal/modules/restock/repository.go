package restock

import "context"

// Repository stores supplier orders.
type Repository interface {
	Insert(ctx context.Context, order *SupplierOrder) error
	// List returns orders by order date then creation, optionally for one item.
	List(ctx context.Context, item string) ([]*SupplierOrder, error)
}
