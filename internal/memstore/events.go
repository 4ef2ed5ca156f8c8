package memstore

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/audit"
	kafkago "github.com/segmentio/kafka-go"
)

// Events is an in-memory audit trail, idempotent on event id.
type Events struct {
	mu   sync.Mutex
	seen map[string]bool
	rows []audit.Record
}

func (s *Events) Insert(ctx context.Context, r audit.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[r.EventID] {
		return false, nil
	}
	s.seen[r.EventID] = true
	r.RecordedAt = time.Now().UTC()
	s.rows = append(s.rows, r)
	return true, nil
}

func (s *Events) ListByOrder(ctx context.Context, orderID string) ([]audit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []audit.Record{}
	for _, r := range s.rows {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Publisher keeps every published message. With Sink set, messages are
// also handed to it synchronously, which lets a single process run the
// auditor without a broker.
type Publisher struct {
	mu   sync.Mutex
	msgs []kafkago.Message
	errs []error
	Sink func(ctx context.Context, m kafkago.Message) error
}

func (p *Publisher) Publish(topic string, key, value []byte, headers ...kafkago.Header) {
	m := kafkago.Message{Topic: topic, Key: key, Value: value, Headers: headers, Time: time.Now()}
	p.mu.Lock()
	p.msgs = append(p.msgs, m)
	sink := p.Sink
	p.mu.Unlock()
	if sink == nil {
		return
	}
	if err := sink(context.Background(), m); err != nil {
		log.Printf("[memstore] sink %s: %v", topic, err)
		p.mu.Lock()
		p.errs = append(p.errs, err)
		p.mu.Unlock()
	}
}

// SinkErrors returns the errors the sink reported, oldest first.
func (p *Publisher) SinkErrors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.errs...)
}

func (p *Publisher) Messages() []kafkago.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]kafkago.Message(nil), p.msgs...)
}
