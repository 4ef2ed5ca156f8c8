package kafka

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer buffers messages in an inbox and writes them from a single
// goroutine. Each message carries its own topic. Publish never blocks:
// messages arriving while the inbox is full or after Close are dropped.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

func NewProducer(brokers []string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start runs the write loop until Close is called and the inbox is drained.
func (p *Producer) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.w.WriteMessages(ctx, m); err != nil {
				log.Printf("[kafka] write %s: %v", m.Topic, err)
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			log.Printf("[kafka] close writer: %v", err)
		}
	}()
}

func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) {
	m := kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.drop(m, "producer closed")
		return
	}
	select {
	case p.inbox <- m:
	default:
		p.drop(m, "inbox full")
	}
}

func (p *Producer) drop(m kafka.Message, reason string) {
	p.dropped.Add(1)
	log.Printf("[kafka] drop %s key=%s: %s", m.Topic, m.Key, reason)
}

// Dropped reports how many messages Publish has discarded.
func (p *Producer) Dropped() int64 { return p.dropped.Load() }

// Close stops accepting messages; pending ones are still flushed. It is
// safe to call more than once.
func (p *Producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
}

// WaitClosed blocks until the write loop has flushed and exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
