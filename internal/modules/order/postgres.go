package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/georgemunganga/printa-fulfillment/internal/modules/ledger"
	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository stores results as JSONB with a few indexed columns
// for filtering.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Save(ctx context.Context, res *Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	var requestDate sql.NullTime
	if d, err := ledger.ParseDate(res.Request.Date); err == nil {
		requestDate = sql.NullTime{Time: d, Valid: true}
	}
	var status string
	if res.Quote != nil {
		status = string(res.Quote.Status)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO request_results (id, item, request_date, state, status, payload, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state, status = EXCLUDED.status, payload = EXCLUDED.payload`,
		res.ID, res.Request.Item, requestDate, res.State, status, payload, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, id uuid.UUID) (*Result, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM request_results WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	if err := json.Unmarshal(payload, res); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return res, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]*Result, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM request_results
		WHERE ($1 = '' OR item = $1)
		  AND ($2 = '' OR state = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at, id
		LIMIT NULLIF($4, 0)`,
		f.Item, string(f.State), string(f.Status), f.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Result
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		res := &Result{}
		if err := json.Unmarshal(payload, res); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
