package memstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Cache mirrors redisx.Cache: values are stored JSON-encoded so a hit
// decodes exactly like a Redis hit would.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	data    []byte
	expires time.Time
}

func NewCache() *Cache {
	return &Cache{entries: map[string]entry{}, now: time.Now}
}

func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok || c.expired(e) {
		return false, nil
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func (c *Cache) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && !c.expired(e) {
		return false, nil
	}
	c.entries[key] = entry{data: []byte("1"), expires: c.now().Add(ttl)}
	return true, nil
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && !c.expired(e), nil
}

func (c *Cache) expired(e entry) bool {
	return !e.expires.IsZero() && !c.now().Before(e.expires)
}
