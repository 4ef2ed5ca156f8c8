package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	kafkax "github.com/ariefcatur/go-warehouse-orders/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders/internal/orders"
	"github.com/ariefcatur/go-warehouse-orders/internal/redisx"
	kafkago "github.com/segmentio/kafka-go"
)

// Dedup remembers recorded events. It only short-cuts redeliveries; the
// store's insert is what makes recording idempotent.
type Dedup interface {
	Exists(ctx context.Context, key string) (bool, error)
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

var knownEvents = map[string]bool{
	orders.EventOrderPlaced:    true,
	orders.EventOrderCancelled: true,
	orders.EventOrderDeleted:   true,
	orders.EventOrderPaid:      true,
}

// Service records the order event stream. Dedup is optional; the store is
// idempotent on event id either way.
type Service struct {
	Store       Store
	Dedup       Dedup
	ServiceName string
}

// HandleOrderEvent is installed as the consumer handler.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// a poison message would otherwise be redelivered forever
		log.Printf("[audit] drop undecodable message %s/%d@%d: %v", m.Topic, m.Partition, m.Offset, err)
		return nil
	}
	if !knownEvents[env.EventType] || env.EventID == "" {
		return nil
	}

	orderID := env.CorrelationID
	if orderID == "" {
		ref, err := kafkax.UnwrapPayload[struct {
			OrderID string `json:"order_id"`
		}](env.Payload)
		if err != nil {
			log.Printf("[audit] drop %s without order id: %v", env.EventID, err)
			return nil
		}
		orderID = ref.OrderID
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if s.Dedup != nil {
		seen, err := s.Dedup.Exists(ctx, dkey)
		if err != nil {
			log.Printf("[audit] dedup check %s: %v", env.EventID, err)
		} else if seen {
			return nil
		}
	}

	inserted, err := s.Store.Insert(ctx, Record{
		EventID:    env.EventID,
		EventType:  env.EventType,
		OrderID:    orderID,
		Producer:   env.Producer,
		OccurredAt: env.OccurredAt,
		Payload:    env.Payload,
	})
	if err != nil {
		return fmt.Errorf("record %s: %w", env.EventID, err)
	}
	if s.Dedup != nil {
		if _, err := s.Dedup.Claim(ctx, dkey, redisx.TTLDedup); err != nil {
			log.Printf("[audit] dedup mark %s: %v", env.EventID, err)
		}
	}
	if inserted {
		log.Printf("[audit] %s order=%s event=%s", env.EventType, orderID, env.EventID)
	}
	return nil
}
