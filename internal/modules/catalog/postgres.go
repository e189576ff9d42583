package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Upsert(ctx context.Context, item *Item) error {
	var leadTimes interface{}
	if len(item.LeadTimes) > 0 {
		raw, err := json.Marshal(item.LeadTimes)
		if err != nil {
			return fmt.Errorf("encode lead times: %w", err)
		}
		leadTimes = raw
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO catalog_items
		  (name, category, unit_cost, unit_price, initial_stock, reorder_threshold,
		   reorder_quantity, fulfillment_unit, lead_times)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (name) DO UPDATE
		SET category=EXCLUDED.category, unit_cost=EXCLUDED.unit_cost, unit_price=EXCLUDED.unit_price,
		    initial_stock=EXCLUDED.initial_stock, reorder_threshold=EXCLUDED.reorder_threshold,
		    reorder_quantity=EXCLUDED.reorder_quantity, fulfillment_unit=EXCLUDED.fulfillment_unit,
		    lead_times=EXCLUDED.lead_times, updated_at=NOW()`,
		item.Name, item.Category, item.UnitCost, item.UnitPrice, item.InitialStock,
		item.ReorderThreshold, item.ReorderQuantity, item.FulfillmentUnit, leadTimes)
	return err
}

const selectItems = `
	SELECT name, category, unit_cost, unit_price, initial_stock, reorder_threshold,
	       reorder_quantity, fulfillment_unit, lead_times, created_at, updated_at
	FROM catalog_items`

func scanItem(scan func(...interface{}) error) (*Item, error) {
	item := &Item{}
	var leadTimes []byte
	err := scan(&item.Name, &item.Category, &item.UnitCost, &item.UnitPrice,
		&item.InitialStock, &item.ReorderThreshold, &item.ReorderQuantity,
		&item.FulfillmentUnit, &leadTimes, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if leadTimes != nil {
		if err := json.Unmarshal(leadTimes, &item.LeadTimes); err != nil {
			return nil, fmt.Errorf("decode lead times of %q: %w", item.Name, err)
		}
	}
	return item, nil
}

func (r *postgresRepo) GetByName(ctx context.Context, name string) (*Item, error) {
	row := r.db.QueryRowContext(ctx, selectItems+` WHERE name=$1`, name)
	return scanItem(row.Scan)
}

func (r *postgresRepo) List(ctx context.Context, category string) ([]*Item, error) {
	query := selectItems + ` WHERE 1=1`
	args := []interface{}{}
	if category != "" {
		query += ` AND category=$1`
		args = append(args, category)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
