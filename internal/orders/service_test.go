package orders_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ariefcatur/go-warehouse-orders/internal/catalog"
	"github.com/ariefcatur/go-warehouse-orders/internal/memstore"
	"github.com/ariefcatur/go-warehouse-orders/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	manager  *orders.Manager
	products *memstore.Products
	orders   *memstore.Orders
	ledger   *memstore.Ledger
	events   *memstore.Publisher
	cache    *memstore.Cache
	catalog  *catalog.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		products: memstore.NewProducts(),
		orders:   memstore.NewOrders(),
		ledger:   &memstore.Ledger{},
		events:   &memstore.Publisher{},
		cache:    memstore.NewCache(),
	}
	f.catalog = catalog.NewService(f.products, f.cache)
	f.manager = &orders.Manager{
		Orders:  f.orders,
		Stock:   f.catalog,
		Ledger:  f.ledger,
		Events:  f.events,
		Cache:   f.cache,
		Service: "test",
	}
	return f
}

func (f *fixture) product(t *testing.T, stock int, price string) catalog.Product {
	t.Helper()
	p, err := f.catalog.Create(context.Background(), catalog.ProductInput{
		Name:  "widget",
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

var alice = orders.Requester{Email: "alice@example.com"}

func place(productID string, qty int) orders.PlaceRequest {
	return orders.PlaceRequest{User: alice.Email, ProductID: productID, Quantity: qty, Phone: "555", Address: "1 Main St"}
}

func TestPlaceThenCancel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 5, "4.25")

	o, err := f.manager.PlaceOrder(ctx, place(p.ID, 3))
	require.NoError(t, err)
	assert.Equal(t, 2, f.stock(t, p.ID))
	assert.False(t, o.Paid)
	assert.Empty(t, o.TransactionID)
	assert.Equal(t, p.ID, o.Product.ID)
	assert.True(t, o.Product.Price.Equal(decimal.RequireFromString("4.25")))

	removed, err := f.manager.CancelOrDeleteOrder(ctx, o.ID, orders.ModeCancel, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, removed.Quantity)
	assert.Equal(t, 5, f.stock(t, p.ID))

	_, err = f.manager.CancelOrDeleteOrder(ctx, o.ID, orders.ModeCancel, alice)
	assert.ErrorIs(t, err, orders.ErrNotFound)
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestPlaceOrder_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 5, "1")

	tests := []struct {
		name string
		req  orders.PlaceRequest
		err  error
	}{
		{"more than stock", place(p.ID, 10), orders.ErrInsufficientStock},
		{"unknown product", place("missing", 1), orders.ErrInsufficientStock},
		{"zero quantity", place(p.ID, 0), orders.ErrInvalidQuantity},
		{"negative quantity", place(p.ID, -2), orders.ErrInvalidQuantity},
		{"no user", orders.PlaceRequest{ProductID: p.ID, Quantity: 1}, orders.ErrInvalidOrder},
		{"no product", orders.PlaceRequest{User: alice.Email, Quantity: 1}, orders.ErrInvalidOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.manager.PlaceOrder(ctx, tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}
	assert.Equal(t, 5, f.stock(t, p.ID))
	assert.Empty(t, f.events.Messages())
}

func TestPlaceOrder_InsertFailureIsDistinct(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, 5, "1")
	f.orders.FailInsert = errors.New("disk full")

	_, err := f.manager.PlaceOrder(context.Background(), place(p.ID, 2))
	assert.ErrorIs(t, err, orders.ErrInsertFailed)
	assert.NotErrorIs(t, err, orders.ErrInsufficientStock)
	// no compensation: the reservation stands
	assert.Equal(t, 3, f.stock(t, p.ID))
}

func TestDeleteModeLeavesStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 5, "1")

	o, err := f.manager.PlaceOrder(ctx, place(p.ID, 2))
	require.NoError(t, err)

	_, err = f.manager.CancelOrDeleteOrder(ctx, o.ID, orders.RemoveMode("archive"), alice)
	assert.ErrorIs(t, err, orders.ErrInvalidMode)

	_, err = f.manager.CancelOrDeleteOrder(ctx, o.ID, orders.ModeDelete, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, p.ID))

	_, err = f.manager.GetOrder(ctx, o.ID, alice)
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestCancelAfterProductDeleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 5, "1")

	o, err := f.manager.PlaceOrder(ctx, place(p.ID, 2))
	require.NoError(t, err)
	require.NoError(t, f.catalog.Delete(ctx, p.ID))

	_, err = f.manager.CancelOrDeleteOrder(ctx, o.ID, orders.ModeCancel, alice)
	require.NoError(t, err)

	msgs := f.events.Messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, orders.TopicOrderCancelled, last.Topic)
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(last.Value, &env))
	var payload orders.OrderRemovedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.False(t, payload.StockRestored)
}

func TestOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 5, "1")
	bob := orders.Requester{Email: "bob@example.com"}
	admin := orders.Requester{Email: "root@example.com", Admin: true}

	o, err := f.manager.PlaceOrder(ctx, place(p.ID, 1))
	require.NoError(t, err)

	_, err = f.manager.GetOrder(ctx, o.ID, bob)
	assert.ErrorIs(t, err, orders.ErrForbidden)
	_, err = f.manager.GetOrder(ctx, o.ID, admin)
	assert.NoError(t, err)

	_, err = f.manager.GetOrdersForUser(ctx, alice.Email, bob)
	assert.ErrorIs(t, err, orders.ErrForbidden)
	_, err = f.manager.GetOrdersForUser(ctx, alice.Email, admin)
	assert.ErrorIs(t, err, orders.ErrForbidden)

	_, err = f.manager.RecordPayment(ctx, o.ID, "tx", bob)
	assert.ErrorIs(t, err, orders.ErrForbidden)

	_, err = f.manager.CancelOrDeleteOrder(ctx, o.ID, orders.ModeCancel, bob)
	assert.ErrorIs(t, err, orders.ErrForbidden)
	assert.Equal(t, 4, f.stock(t, p.ID))

	_, err = f.manager.CancelOrDeleteOrder(ctx, o.ID, orders.ModeCancel, admin)
	assert.NoError(t, err)
	assert.Equal(t, 5, f.stock(t, p.ID))
}

func TestGetOrdersForUserJoin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	kept := f.product(t, 5, "1")
	gone := f.product(t, 5, "2")

	_, err := f.manager.PlaceOrder(ctx, place(kept.ID, 1))
	require.NoError(t, err)
	_, err = f.manager.PlaceOrder(ctx, place(gone.ID, 2))
	require.NoError(t, err)
	_, err = f.manager.PlaceOrder(ctx, orders.PlaceRequest{User: "bob@example.com", ProductID: kept.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, f.catalog.Delete(ctx, gone.ID))

	views, err := f.manager.GetOrdersForUser(ctx, alice.Email, alice)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byProduct := map[string]orders.OrderView{}
	for _, v := range views {
		byProduct[v.ProductID] = v
	}
	require.NotNil(t, byProduct[kept.ID].Current)
	assert.Equal(t, 3, byProduct[kept.ID].Current.Stock)
	assert.Nil(t, byProduct[gone.ID].Current)
	assert.Equal(t, "widget", byProduct[gone.ID].Product.Name)

	empty, err := f.manager.GetOrdersForUser(ctx, "carol@example.com", orders.Requester{Email: "carol@example.com"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 5, "2.50")

	o, err := f.manager.PlaceOrder(ctx, place(p.ID, 3))
	require.NoError(t, err)

	// warm the cache so the update has to evict it
	_, err = f.manager.GetOrder(ctx, o.ID, alice)
	require.NoError(t, err)

	_, err = f.manager.RecordPayment(ctx, o.ID, " ", alice)
	assert.ErrorIs(t, err, orders.ErrInvalidPayment)

	paid, err := f.manager.RecordPayment(ctx, o.ID, "tx_42", alice)
	require.NoError(t, err)
	assert.True(t, paid.Paid)

	got, err := f.manager.GetOrder(ctx, o.ID, alice)
	require.NoError(t, err)
	assert.True(t, got.Paid)
	assert.Equal(t, "tx_42", got.TransactionID)

	ledger := f.ledger.Payments()
	require.Len(t, ledger, 1)
	assert.Equal(t, o.ID, ledger[0].OrderID)
	assert.True(t, ledger[0].Amount.Equal(decimal.RequireFromString("7.50")))

	_, err = f.manager.RecordPayment(ctx, "missing", "tx", alice)
	assert.ErrorIs(t, err, orders.ErrNotFound)
	assert.Len(t, f.ledger.Payments(), 1)
}

// racingOrders runs during once, right after the first armed Get has read
// its row.
type racingOrders struct {
	orders.OrderStore
	armed  atomic.Bool
	during func()
}

func (s *racingOrders) Get(ctx context.Context, id string) (orders.Order, error) {
	o, err := s.OrderStore.Get(ctx, id)
	if s.armed.CompareAndSwap(true, false) {
		s.during()
	}
	return o, err
}

func TestWriteDuringCacheFill(t *testing.T) {
	tests := []struct {
		name  string
		write func(m *orders.Manager, id string) error
		check func(t *testing.T, m *orders.Manager, id string)
	}{
		{
			name: "cancel",
			write: func(m *orders.Manager, id string) error {
				_, err := m.CancelOrDeleteOrder(context.Background(), id, orders.ModeCancel, alice)
				return err
			},
			check: func(t *testing.T, m *orders.Manager, id string) {
				_, err := m.GetOrder(context.Background(), id, alice)
				assert.ErrorIs(t, err, orders.ErrNotFound)
			},
		},
		{
			name: "payment",
			write: func(m *orders.Manager, id string) error {
				_, err := m.RecordPayment(context.Background(), id, "tx_race", alice)
				return err
			},
			check: func(t *testing.T, m *orders.Manager, id string) {
				o, err := m.GetOrder(context.Background(), id, alice)
				require.NoError(t, err)
				assert.True(t, o.Paid)
				assert.Equal(t, "tx_race", o.TransactionID)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			p := f.product(t, 5, "1")
			o, err := f.manager.PlaceOrder(ctx, place(p.ID, 2))
			require.NoError(t, err)

			racing := &racingOrders{OrderStore: f.orders}
			racing.during = func() { require.NoError(t, tt.write(f.manager, o.ID)) }
			f.manager.Orders = racing
			racing.armed.Store(true)

			// this read started before the write and may return the old row
			_, err = f.manager.GetOrder(ctx, o.ID, alice)
			require.NoError(t, err)

			tt.check(t, f.manager, o.ID)
		})
	}
}

func TestEventsPublished(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 5, "1")

	o, err := f.manager.PlaceOrder(ctx, place(p.ID, 1))
	require.NoError(t, err)
	_, err = f.manager.RecordPayment(ctx, o.ID, "tx", alice)
	require.NoError(t, err)
	_, err = f.manager.CancelOrDeleteOrder(ctx, o.ID, orders.ModeDelete, alice)
	require.NoError(t, err)

	msgs := f.events.Messages()
	require.Len(t, msgs, 3)
	wantTopics := []string{orders.TopicOrderPlaced, orders.TopicOrderPaid, orders.TopicOrderDeleted}
	wantTypes := []string{orders.EventOrderPlaced, orders.EventOrderPaid, orders.EventOrderDeleted}
	for i, m := range msgs {
		assert.Equal(t, wantTopics[i], m.Topic)
		assert.Equal(t, o.ID, string(m.Key))
		require.NotEmpty(t, m.Headers)
		assert.Equal(t, "x-event-type", m.Headers[0].Key)
		assert.Equal(t, wantTypes[i], string(m.Headers[0].Value))

		var env orders.Envelope
		require.NoError(t, json.Unmarshal(m.Value, &env))
		assert.Equal(t, wantTypes[i], env.EventType)
		assert.Equal(t, o.ID, env.CorrelationID)
		assert.Equal(t, "test", env.Producer)
		assert.NotEmpty(t, env.EventID)
	}
}

func TestPlacementInvalidatesProductList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 5, "1")

	list, err := f.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 5, list[0].Stock)

	_, err = f.manager.PlaceOrder(ctx, place(p.ID, 2))
	require.NoError(t, err)

	list, err = f.catalog.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, list[0].Stock)
}

func TestConcurrentPlacementsNeverGoNegative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.product(t, 7, "1")

	var (
		wg       sync.WaitGroup
		ok, fail atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := place(p.ID, 1)
			req.Phone = fmt.Sprint(i)
			_, err := f.manager.PlaceOrder(ctx, req)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, orders.ErrInsufficientStock):
				fail.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(7), ok.Load())
	assert.Equal(t, int32(13), fail.Load())
	assert.Equal(t, 0, f.stock(t, p.ID))
}
