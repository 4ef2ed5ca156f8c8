package catalog

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const listCacheKey = "products:list"

// Store is the persistence behind the catalog.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]Product, error)
	Insert(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id string) error
	Reserve(ctx context.Context, id string, qty int) (Product, bool, error)
	Release(ctx context.Context, id string, qty int) (bool, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, keys ...string) error
}

// Service serves the product catalog with a cache-aside listing. Every
// stock mutation drops the cached listing.
type Service struct {
	store Store
	cache Cache
	sf    singleflight.Group
}

// NewService wires a catalog. cache may be nil.
func NewService(store Store, cache Cache) *Service {
	return &Service{store: store, cache: cache}
}

func (s *Service) List(ctx context.Context) ([]Product, error) {
	if s.cache != nil {
		var cached []Product
		found, err := s.cache.Get(ctx, listCacheKey, &cached)
		if err != nil {
			log.Printf("[catalog] cache get: %v", err)
		}
		if found {
			return cached, nil
		}
	}

	// the flight is shared, so one caller's cancellation must not fail the rest
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.sf.Do(listCacheKey, func() (any, error) {
		return s.store.List(shared)
	})
	if err != nil {
		return nil, err
	}
	products := v.([]Product)

	if s.cache != nil {
		if err := s.cache.Set(ctx, listCacheKey, products); err != nil {
			log.Printf("[catalog] cache set: %v", err)
		}
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetMany(ctx context.Context, ids []string) (map[string]Product, error) {
	return s.store.GetMany(ctx, ids)
}

func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	p, err := s.store.Insert(ctx, Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
		Price:       in.Price,
		Stock:       in.Stock,
	})
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx)
	log.Printf("[catalog] created product %s stock=%d", p.ID, p.Stock)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) Reserve(ctx context.Context, id string, qty int) (Product, bool, error) {
	p, ok, err := s.store.Reserve(ctx, id, qty)
	if ok {
		s.invalidate(ctx)
	}
	return p, ok, err
}

func (s *Service) Release(ctx context.Context, id string, qty int) (bool, error) {
	ok, err := s.store.Release(ctx, id, qty)
	if ok {
		s.invalidate(ctx)
	}
	return ok, err
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listCacheKey); err != nil {
		log.Printf("[catalog] cache invalidate: %v", err)
	}
}
