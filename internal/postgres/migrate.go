package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// orders.product_id deliberately has no foreign key: a product can be
// deleted while orders still reference it.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		email      TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		role       TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image       TEXT NOT NULL DEFAULT '',
		price       NUMERIC(12,2) NOT NULL,
		stock       INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id             TEXT PRIMARY KEY,
		user_email     TEXT NOT NULL,
		product_id     TEXT NOT NULL,
		quantity       INTEGER NOT NULL CHECK (quantity > 0),
		phone          TEXT NOT NULL DEFAULT '',
		address        TEXT NOT NULL DEFAULT '',
		paid           BOOLEAN NOT NULL DEFAULT FALSE,
		transaction_id TEXT NOT NULL DEFAULT '',
		product        JSONB,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_email ON orders(user_email)`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		rating     INTEGER NOT NULL DEFAULT 0,
		comment    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id             TEXT PRIMARY KEY,
		order_id       TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		email          TEXT NOT NULL DEFAULT '',
		amount         NUMERIC(12,2) NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments(order_id)`,

	`CREATE TABLE IF NOT EXISTS order_events (
		event_id    TEXT PRIMARY KEY,
		event_type  TEXT NOT NULL,
		order_id    TEXT NOT NULL,
		producer    TEXT NOT NULL DEFAULT '',
		occurred_at TIMESTAMPTZ NOT NULL,
		payload     JSONB NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_events_order_id ON order_events(order_id)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := db.Exec(ctx, m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
