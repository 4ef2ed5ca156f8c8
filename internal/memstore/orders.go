package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders/internal/payments"
)

type Orders struct {
	mu   sync.Mutex
	rows map[string]orders.Order
	// FailInsert makes Insert return this error. Tests only.
	FailInsert error
}

func NewOrders() *Orders {
	return &Orders{rows: map[string]orders.Order{}}
}

func (s *Orders) Insert(ctx context.Context, o orders.Order) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsert != nil {
		return orders.Order{}, s.FailInsert
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	s.rows[o.ID] = o
	return o, nil
}

func (s *Orders) Get(ctx context.Context, id string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.rows[id]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return o, nil
}

func (s *Orders) ListByUser(ctx context.Context, user string) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []orders.Order{}
	for _, o := range s.rows {
		if o.User == user {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Orders) Delete(ctx context.Context, id string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.rows[id]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	delete(s.rows, id)
	return o, nil
}

func (s *Orders) MarkPaid(ctx context.Context, id, transactionID string) (orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.rows[id]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	o.Paid = true
	o.TransactionID = transactionID
	o.UpdatedAt = time.Now().UTC()
	s.rows[id] = o
	return o, nil
}

// Ledger is an in-memory payment ledger.
type Ledger struct {
	mu   sync.Mutex
	rows []payments.Payment
}

func (l *Ledger) Record(ctx context.Context, p payments.Payment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p.CreatedAt = time.Now().UTC()
	l.rows = append(l.rows, p)
	return nil
}

func (l *Ledger) Payments() []payments.Payment {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]payments.Payment(nil), l.rows...)
}
