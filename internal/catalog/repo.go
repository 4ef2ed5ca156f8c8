package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repo is the Postgres product store. Prices travel as text so NUMERIC
// values round-trip into decimal.Decimal exactly.
type Repo struct{ DB *pgxpool.Pool }

const productColumns = `id, name, description, image, price::text, stock, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p     Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Image, &price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return Product{}, fmt.Errorf("product %s price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return p, nil
}

func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

// GetMany returns the products that still exist, keyed by id.
func (r *Repo) GetMany(ctx context.Context, ids []string) (map[string]Product, error) {
	out := make(map[string]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repo) Insert(ctx context.Context, p Product) (Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, description, image, price, stock)
		VALUES ($1, $2, $3, $4, $5::text::numeric, $6)
		RETURNING `+productColumns,
		p.ID, p.Name, p.Description, p.Image, p.Price.String(), p.Stock))
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Reserve decrements stock by qty in one conditional statement. ok is false
// when the product is missing or holds fewer than qty units; stock is then
// left untouched. The returned product reflects the post-decrement row.
func (r *Repo) Reserve(ctx context.Context, id string, qty int) (p Product, ok bool, err error) {
	p, err = scanProduct(r.DB.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING `+productColumns, id, qty))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

// Release adds qty back. ok is false when the product no longer exists.
func (r *Repo) Release(ctx context.Context, id string, qty int) (bool, error) {
	ct, err := r.DB.Exec(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id=$1`, id, qty)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
