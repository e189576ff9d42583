package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores result records.
type Repository interface {
	Save(ctx context.Context, r *Result) error
	// Get returns sql.ErrNoRows when id is unknown.
	Get(ctx context.Context, id uuid.UUID) (*Result, error)
	// List returns matching results oldest first.
	List(ctx context.Context, f ListFilter) ([]*Result, error)
}
