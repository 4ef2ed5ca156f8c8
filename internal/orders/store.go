package orders

import (
	"context"

	"github.com/ariefcatur/go-warehouse-orders/internal/catalog"
	"github.com/ariefcatur/go-warehouse-orders/internal/payments"
	kafkago "github.com/segmentio/kafka-go"
)

// OrderStore persists orders. Lookups by id return ErrNotFound when no
// row matches.
type OrderStore interface {
	Insert(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	ListByUser(ctx context.Context, user string) ([]Order, error)
	// Delete removes the order and returns the removed row.
	Delete(ctx context.Context, id string) (Order, error)
	MarkPaid(ctx context.Context, id, transactionID string) (Order, error)
}

// StockStore adjusts product stock. Reserve must be a single conditional
// decrement: it either takes qty units or changes nothing.
type StockStore interface {
	Reserve(ctx context.Context, productID string, qty int) (catalog.Product, bool, error)
	Release(ctx context.Context, productID string, qty int) (bool, error)
	GetMany(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

type PaymentLedger interface {
	Record(ctx context.Context, p payments.Payment) error
}

type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}
