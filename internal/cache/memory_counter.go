package cache

import (
	"context"
	"strconv"
	"time"
)

// MemoryCounter keeps counters inside a MemoryStore as decimal strings.
type MemoryCounter struct {
	store *MemoryStore
}

func NewMemoryCounter(store *MemoryStore) *MemoryCounter {
	if store == nil {
		store = NewMemoryStore()
	}
	return &MemoryCounter{store: store}
}

func (c *MemoryCounter) Get(ctx context.Context, key string) (int64, error) {
	_ = ctx
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	it, ok := c.store.lookup(key)
	if !ok {
		return 0, nil
	}
	return parseCount(it.v), nil
}

func (c *MemoryCounter) Increment(ctx context.Context, key string) (int64, error) {
	_ = ctx
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	c.store.sweep()
	it, _ := c.store.lookup(key)
	n := parseCount(it.v) + 1
	it.v = []byte(strconv.FormatInt(n, 10))
	c.store.items[key] = it
	return n, nil
}

func (c *MemoryCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	_ = ctx
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	it, ok := c.store.lookup(key)
	if !ok {
		return nil
	}
	if ttl <= 0 {
		delete(c.store.items, key)
		return nil
	}
	it.expires = c.store.now().Add(ttl)
	c.store.items[key] = it
	return nil
}

func parseCount(v []byte) int64 {
	n, _ := strconv.ParseInt(string(v), 10, 64)
	return n
}
