package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/reviews"
)

type Reviews struct {
	mu   sync.Mutex
	rows []reviews.Review
}

func (s *Reviews) Append(ctx context.Context, r reviews.Review) (reviews.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.CreatedAt = time.Now().UTC()
	s.rows = append(s.rows, r)
	return r, nil
}

func (s *Reviews) List(ctx context.Context) ([]reviews.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reviews.Review{}, s.rows...), nil
}
