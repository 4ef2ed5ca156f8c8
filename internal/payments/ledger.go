package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LedgerRepo struct{ DB *pgxpool.Pool }

func (r *LedgerRepo) Record(ctx context.Context, p Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO payments(id, order_id, transaction_id, email, amount)
		VALUES ($1, $2, $3, $4, $5::text::numeric)`,
		p.ID, p.OrderID, p.TransactionID, p.Email, p.Amount.String())
	return err
}
