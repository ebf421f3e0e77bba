package di

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheEntries bounds an InMemoryCache created by NewInMemoryCache
const DefaultCacheEntries = 1024

// InMemoryCache provides a simple in-memory cache implementation.
// Expired entries are dropped when they are next read, or swept when the
// cache is full. A full cache with nothing expired evicts the entry closest
// to expiry.
type InMemoryCache struct {
	mu         sync.Mutex
	items      map[string]cacheItem
	maxEntries int
	now        func() time.Time
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		items:      make(map[string]cacheItem),
		maxEntries: DefaultCacheEntries,
		now:        time.Now,
	}
}

// Get retrieves a value from cache
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}

	if !c.now().Before(item.expiresAt) {
		delete(c.items, key)
		return nil, false
	}

	return item.value, true
}

// Set stores a value in cache with TTL in seconds
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxEntries {
		c.makeRoom()
	}
	c.items[key] = cacheItem{
		value:     value,
		expiresAt: c.now().Add(time.Duration(ttl) * time.Second),
	}

	return nil
}

// makeRoom drops expired entries, then the oldest-expiring one if none had
// expired. Callers hold mu.
func (c *InMemoryCache) makeRoom() {
	now := c.now()
	for key, item := range c.items {
		if !now.Before(item.expiresAt) {
			delete(c.items, key)
		}
	}
	if len(c.items) < c.maxEntries {
		return
	}

	var victim string
	var earliest time.Time
	for key, item := range c.items {
		if victim == "" || item.expiresAt.Before(earliest) {
			victim, earliest = key, item.expiresAt
		}
	}
	delete(c.items, victim)
}

// Delete removes a value from cache
func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Clear removes all values from cache
func (c *InMemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheItem)
	return nil
}

// Len returns the number of stored entries, expired or not
func (c *InMemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
