package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-warehouse-orders/internal/audit"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_SinkErrorsAreKept(t *testing.T) {
	fail := errors.New("audit store down")
	p := &Publisher{Sink: func(ctx context.Context, m kafkago.Message) error {
		if string(m.Key) == "bad" {
			return fail
		}
		return nil
	}}

	p.Publish("t", []byte("good"), []byte("{}"))
	p.Publish("t", []byte("bad"), []byte("{}"))

	assert.Len(t, p.Messages(), 2)
	errs := p.SinkErrors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], fail)
}

func TestEvents_InsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := &Events{}

	first, err := s.Insert(ctx, auditRecord("ev-1", "o-1"))
	require.NoError(t, err)
	again, err := s.Insert(ctx, auditRecord("ev-1", "o-1"))
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, again)
	trail, _ := s.ListByOrder(ctx, "o-1")
	assert.Len(t, trail, 1)
}

func auditRecord(eventID, orderID string) audit.Record {
	return audit.Record{EventID: eventID, EventType: "OrderPlaced", OrderID: orderID}
}
