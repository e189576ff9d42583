package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectTransactions = `
	SELECT id, seq, kind, item, quantity, unit_price, list_price, cash_delta,
	       tx_date, deferred, rationale, created_at
	FROM ledger_transactions`

// Insert appends a row; seq comes from the BIGSERIAL column so insertion
// order survives restarts.
func (r *postgresRepo) Insert(ctx context.Context, tx *Transaction) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ledger_transactions
		  (id, kind, item, quantity, unit_price, list_price, cash_delta, tx_date, deferred, rationale)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING seq, created_at`,
		tx.ID, tx.Kind, tx.Item, tx.Quantity, tx.UnitPrice, tx.ListPrice,
		tx.CashDelta, tx.Date, tx.Deferred, tx.Rationale).
		Scan(&tx.Seq, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert ledger transaction: %w", err)
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context) ([]*Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransactions+` ORDER BY tx_date, seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *postgresRepo) ListByItem(ctx context.Context, item string) ([]*Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransactions+` WHERE item=$1 ORDER BY tx_date, seq`, item)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*Transaction, error) {
	var txs []*Transaction
	for rows.Next() {
		tx := &Transaction{}
		if err := rows.Scan(&tx.ID, &tx.Seq, &tx.Kind, &tx.Item, &tx.Quantity,
			&tx.UnitPrice, &tx.ListPrice, &tx.CashDelta, &tx.Date, &tx.Deferred,
			&tx.Rationale, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.Date = Day(tx.Date)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
