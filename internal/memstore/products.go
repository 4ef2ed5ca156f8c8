package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/catalog"
)

type Products struct {
	mu   sync.Mutex
	rows map[string]catalog.Product
}

func NewProducts() *Products {
	return &Products{rows: map[string]catalog.Product{}}
}

func (s *Products) List(ctx context.Context) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Product, 0, len(s.rows))
	for _, p := range s.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Products) Get(ctx context.Context, id string) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (s *Products) GetMany(ctx context.Context, ids []string) (map[string]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]catalog.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.rows[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *Products) Insert(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	s.rows[p.ID] = p
	return p, nil
}

func (s *Products) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(s.rows, id)
	return nil
}

// Reserve takes qty units only when that many are in stock.
func (s *Products) Reserve(ctx context.Context, id string, qty int) (catalog.Product, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok || p.Stock < qty {
		return catalog.Product{}, false, nil
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now().UTC()
	s.rows[id] = p
	return p, true, nil
}

func (s *Products) Release(ctx context.Context, id string, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok {
		return false, nil
	}
	p.Stock += qty
	p.UpdatedAt = time.Now().UTC()
	s.rows[id] = p
	return true, nil
}
