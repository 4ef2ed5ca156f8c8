package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const orderColumns = `id, user_email, product_id, quantity, phone, address, paid, transaction_id, product, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		o        Order
		snapshot []byte
	)
	err := row.Scan(&o.ID, &o.User, &o.ProductID, &o.Quantity, &o.Phone, &o.Address,
		&o.Paid, &o.TransactionID, &snapshot, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &o.Product); err != nil {
			return Order{}, fmt.Errorf("order %s snapshot: %w", o.ID, err)
		}
	}
	return o, nil
}

func (r *Repo) Insert(ctx context.Context, o Order) (Order, error) {
	snapshot, err := json.Marshal(o.Product)
	if err != nil {
		return Order{}, err
	}
	return scanOrder(r.DB.QueryRow(ctx, `
		INSERT INTO orders(id, user_email, product_id, quantity, phone, address, paid, transaction_id, product)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+orderColumns,
		o.ID, o.User, o.ProductID, o.Quantity, o.Phone, o.Address, o.Paid, o.TransactionID, snapshot))
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
}

func (r *Repo) ListByUser(ctx context.Context, user string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_email=$1 ORDER BY created_at, id`, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, id string) (Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, `DELETE FROM orders WHERE id=$1 RETURNING `+orderColumns, id))
}

func (r *Repo) MarkPaid(ctx context.Context, id, transactionID string) (Order, error) {
	return scanOrder(r.DB.QueryRow(ctx, `
		UPDATE orders SET paid = TRUE, transaction_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+orderColumns, id, transactionID))
}
