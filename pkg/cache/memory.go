package cache

import (
	"context"
	"sync"
	"time"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type entry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process cache, used in tests and wherever a Redis
// server is not available. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

var _ Cache = (*MemoryCache)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}
	return e.value, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expires: expires}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}
