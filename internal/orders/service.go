package orders

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	kafkax "github.com/ariefcatur/go-warehouse-orders/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders/internal/payments"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	keyOrder = "order:%s"
	// keyOrderStale marks an order written since it was last cached; a
	// fill racing that write must not survive.
	keyOrderStale = "order:%s:stale"
)

// Manager owns the order lifecycle and the stock it reserves. Events and
// Cache are optional.
type Manager struct {
	Orders  OrderStore
	Stock   StockStore
	Ledger  PaymentLedger
	Events  Publisher
	Cache   Cache
	Service string
}

// PlaceOrder reserves stock and records the order. Stock is taken with a
// single conditional decrement; when it does not apply nothing is written.
// An insert failure after a successful reservation is reported as
// ErrInsertFailed and the reservation is kept.
func (m *Manager) PlaceOrder(ctx context.Context, req PlaceRequest) (Order, error) {
	req.User = strings.TrimSpace(req.User)
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.User == "" || req.ProductID == "" {
		return Order{}, fmt.Errorf("%w: user and product_id are required", ErrInvalidOrder)
	}
	if req.Quantity <= 0 {
		return Order{}, ErrInvalidQuantity
	}

	product, ok, err := m.Stock.Reserve(ctx, req.ProductID, req.Quantity)
	if err != nil {
		return Order{}, fmt.Errorf("reserve stock: %w", err)
	}
	if !ok {
		return Order{}, ErrInsufficientStock
	}

	order, err := m.Orders.Insert(ctx, Order{
		ID:        uuid.NewString(),
		User:      req.User,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Phone:     req.Phone,
		Address:   req.Address,
		Product: ProductSnapshot{
			ID:    product.ID,
			Name:  product.Name,
			Price: product.Price,
		},
	})
	if err != nil {
		log.Printf("[orders] insert after reserving %d of %s: %v", req.Quantity, req.ProductID, err)
		return Order{}, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	m.publish(TopicOrderPlaced, EventOrderPlaced, order.ID, OrderPlacedPayload{
		OrderID:   order.ID,
		User:      order.User,
		ProductID: order.ProductID,
		Quantity:  order.Quantity,
	})
	return order, nil
}

// GetOrdersForUser lists user's orders, each joined with the product's
// current record. Only the user themself may list them.
func (m *Manager) GetOrdersForUser(ctx context.Context, user string, who Requester) ([]OrderView, error) {
	if who.Email == "" || who.Email != user {
		return nil, ErrForbidden
	}

	list, err := m.Orders.ListByUser(ctx, user)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, o := range list {
		if !seen[o.ProductID] {
			seen[o.ProductID] = true
			ids = append(ids, o.ProductID)
		}
	}
	products, err := m.Stock.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(list))
	for _, o := range list {
		v := OrderView{Order: o}
		if p, ok := products[o.ProductID]; ok {
			v.Current = &p
		}
		views = append(views, v)
	}
	return views, nil
}

func (m *Manager) GetOrder(ctx context.Context, id string, who Requester) (Order, error) {
	o, err := m.load(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !who.owns(o) {
		return Order{}, ErrForbidden
	}
	return o, nil
}

// CancelOrDeleteOrder removes an order. In ModeCancel the removed row's
// quantity is added back to the product's stock. A second removal of the
// same order fails with ErrNotFound.
func (m *Manager) CancelOrDeleteOrder(ctx context.Context, id string, mode RemoveMode, who Requester) (Order, error) {
	if _, err := ParseRemoveMode(string(mode)); err != nil {
		return Order{}, err
	}

	current, err := m.Orders.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !who.owns(current) {
		return Order{}, ErrForbidden
	}

	removed, err := m.Orders.Delete(ctx, id)
	if err != nil {
		return Order{}, err
	}
	m.evict(ctx, id)

	restored := false
	if mode.restoresStock() {
		ok, err := m.Stock.Release(ctx, removed.ProductID, removed.Quantity)
		if err != nil {
			return Order{}, fmt.Errorf("restore stock for order %s: %w", id, err)
		}
		if !ok {
			log.Printf("[orders] cancel %s: product %s no longer exists, %d units not restored", id, removed.ProductID, removed.Quantity)
		}
		restored = ok
	}

	topic, event := TopicOrderDeleted, EventOrderDeleted
	if mode == ModeCancel {
		topic, event = TopicOrderCancelled, EventOrderCancelled
	}
	m.publish(topic, event, removed.ID, OrderRemovedPayload{
		OrderID:       removed.ID,
		User:          removed.User,
		ProductID:     removed.ProductID,
		Quantity:      removed.Quantity,
		StockRestored: restored,
	})
	return removed, nil
}

// RecordPayment marks the order paid and appends a ledger entry. The
// amount is not re-validated: the gateway bound it when the intent was
// created.
func (m *Manager) RecordPayment(ctx context.Context, id, transactionID string, who Requester) (Order, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return Order{}, fmt.Errorf("%w: transaction_id is required", ErrInvalidPayment)
	}

	current, err := m.Orders.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !who.owns(current) {
		return Order{}, ErrForbidden
	}

	paid, err := m.Orders.MarkPaid(ctx, id, transactionID)
	if err != nil {
		return Order{}, err
	}
	m.evict(ctx, id)

	if err := m.Ledger.Record(ctx, payments.Payment{
		OrderID:       paid.ID,
		TransactionID: transactionID,
		Email:         who.Email,
		Amount:        paid.Product.Price.Mul(decimal.NewFromInt(int64(paid.Quantity))),
	}); err != nil {
		return Order{}, fmt.Errorf("record payment for order %s: %w", id, err)
	}

	m.publish(TopicOrderPaid, EventOrderPaid, paid.ID, OrderPaidPayload{
		OrderID:       paid.ID,
		User:          paid.User,
		TransactionID: transactionID,
	})
	return paid, nil
}

// load reads through the order cache. A fill is dropped again when the
// order was removed or updated meanwhile: writers mark the order stale
// before evicting, and load checks the mark after filling.
func (m *Manager) load(ctx context.Context, id string) (Order, error) {
	key := fmt.Sprintf(keyOrder, id)
	if m.Cache != nil {
		var cached Order
		found, err := m.Cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("[orders] cache get %s: %v", id, err)
		}
		if found {
			return cached, nil
		}
	}

	o, err := m.Orders.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if m.Cache != nil {
		if err := m.Cache.Set(ctx, key, o); err != nil {
			log.Printf("[orders] cache set %s: %v", id, err)
			return o, nil
		}
		var stale bool
		found, err := m.Cache.Get(ctx, fmt.Sprintf(keyOrderStale, id), &stale)
		if err != nil || found {
			m.dropCached(ctx, id)
		}
	}
	return o, nil
}

// evict runs after every write to an order.
func (m *Manager) evict(ctx context.Context, id string) {
	if m.Cache == nil {
		return
	}
	if err := m.Cache.Set(ctx, fmt.Sprintf(keyOrderStale, id), true); err != nil {
		log.Printf("[orders] cache mark %s: %v", id, err)
	}
	m.dropCached(ctx, id)
}

func (m *Manager) dropCached(ctx context.Context, id string) {
	if err := m.Cache.Delete(ctx, fmt.Sprintf(keyOrder, id)); err != nil {
		log.Printf("[orders] cache evict %s: %v", id, err)
	}
}

func (m *Manager) publish(topic, eventType, orderID string, payload any) {
	if m.Events == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      m.Service,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	m.Events.Publish(topic, PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
