package catalog_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/go-warehouse-orders/internal/catalog"
	"github.com/ariefcatur/go-warehouse-orders/internal/memstore"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts List calls and can hold them open.
type countingStore struct {
	*memstore.Products
	lists atomic.Int32
	delay time.Duration
}

func (s *countingStore) List(ctx context.Context) ([]catalog.Product, error) {
	s.lists.Add(1)
	time.Sleep(s.delay)
	return s.Products.List(ctx)
}

func input(name string, stock int) catalog.ProductInput {
	return catalog.ProductInput{Name: name, Price: decimal.RequireFromString("3.10"), Stock: stock}
}

func TestCreate_Validation(t *testing.T) {
	svc := catalog.NewService(memstore.NewProducts(), nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   catalog.ProductInput
	}{
		{"blank name", catalog.ProductInput{Name: "  ", Price: decimal.NewFromInt(1)}},
		{"negative price", catalog.ProductInput{Name: "a", Price: decimal.NewFromInt(-1)}},
		{"negative stock", catalog.ProductInput{Name: "a", Price: decimal.NewFromInt(1), Stock: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			assert.ErrorIs(t, err, catalog.ErrInvalidProduct)
		})
	}

	p, err := svc.Create(ctx, input(" lamp ", 2))
	require.NoError(t, err)
	assert.Equal(t, "lamp", p.Name)
	assert.NotEmpty(t, p.ID)
}

func TestList_CacheAside(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Products: memstore.NewProducts()}
	svc := catalog.NewService(store, memstore.NewCache())

	p, err := svc.Create(ctx, input("lamp", 2))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		list, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	}
	assert.Equal(t, int32(1), store.lists.Load())

	tests := []struct {
		name   string
		mutate func() error
	}{
		{"reserve", func() error { _, _, err := svc.Reserve(ctx, p.ID, 1); return err }},
		{"release", func() error { _, err := svc.Release(ctx, p.ID, 1); return err }},
		{"create", func() error { _, err := svc.Create(ctx, input("desk", 1)); return err }},
		{"delete", func() error { return svc.Delete(ctx, p.ID) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := store.lists.Load()
			require.NoError(t, tt.mutate())
			_, err := svc.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, before+1, store.lists.Load())
		})
	}
}

func TestList_Singleflight(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Products: memstore.NewProducts(), delay: 50 * time.Millisecond}
	svc := catalog.NewService(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.List(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, store.lists.Load(), int32(10))
}

func TestReserveRelease(t *testing.T) {
	ctx := context.Background()
	svc := catalog.NewService(memstore.NewProducts(), nil)
	p, err := svc.Create(ctx, input("lamp", 2))
	require.NoError(t, err)

	got, ok, err := svc.Reserve(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, got.Stock)

	_, ok, err = svc.Reserve(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Release(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Release(ctx, "missing", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, svc.Delete(ctx, "missing"), catalog.ErrProductNotFound)
	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

// gatedStore holds List until release is closed, then fails if its
// context was cancelled.
type gatedStore struct {
	*memstore.Products
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedStore) List(ctx context.Context) ([]catalog.Product, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Products.List(ctx)
}

func TestList_CallerCancelDoesNotFailSharedLoad(t *testing.T) {
	store := &gatedStore{
		Products: memstore.NewProducts(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	svc := catalog.NewService(store, nil)

	first, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 2)
	go func() {
		_, err := svc.List(first)
		errs <- err
	}()
	<-store.entered
	go func() {
		_, err := svc.List(context.Background())
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	close(store.release)
	assert.NoError(t, <-errs)
	assert.NoError(t, <-errs)
}
