package restock

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Insert(ctx context.Context, o *SupplierOrder) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO supplier_orders (id, item, quantity, order_date, delivery_date, cost, transaction_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		o.ID, o.Item, o.Quantity, o.OrderDate, o.DeliveryDate, o.Cost, o.TransactionID).
		Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert supplier order: %w", err)
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context, item string) ([]*SupplierOrder, error) {
	query := `
		SELECT id, item, quantity, order_date, delivery_date, cost, transaction_id, created_at
		FROM supplier_orders
		WHERE ($1 = '' OR item = $1)
		ORDER BY order_date, created_at`
	rows, err := r.db.QueryContext(ctx, query, item)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*SupplierOrder
	for rows.Next() {
		o := &SupplierOrder{}
		if err := rows.Scan(&o.ID, &o.Item, &o.Quantity, &o.OrderDate, &o.DeliveryDate,
			&o.Cost, &o.TransactionID, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.OrderDate = ledger.Day(o.OrderDate)
		o.DeliveryDate = ledger.Day(o.DeliveryDate)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
