package enrichment

import (
	"context"
	"sync"
	"time"
)

// Cache stores encoded lookup results by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

// MemoryCache is an in-process Cache with TTL and a size bound.
type MemoryCache struct {
	mu       sync.RWMutex
	items    map[string]cacheItem
	ttl      time.Duration
	maxItems int
	now      func() time.Time
}

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration, maxItems int) *MemoryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxItems <= 0 {
		maxItems = 1000
	}
	return &MemoryCache{
		items:    make(map[string]cacheItem),
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || c.now().After(item.expiresAt) {
		return nil, false
	}
	return item.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		c.evictOldest()
	}
	c.items[key] = cacheItem{value: value, expiresAt: c.now().Add(c.ttl)}
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Sweep drops expired entries and returns how many were removed.
func (c *MemoryCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked()
}

func (c *MemoryCache) sweepLocked() int {
	now := c.now()
	removed := 0
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// evictOldest removes expired entries, then the oldest 10% if still full.
// Must be called with the lock held.
func (c *MemoryCache) evictOldest() {
	c.sweepLocked()
	if len(c.items) < c.maxItems {
		return
	}

	toRemove := max(c.maxItems/10, 1)
	var oldest []string
	var oldestTimes []time.Time

	for key, item := range c.items {
		if len(oldest) < toRemove {
			oldest = append(oldest, key)
			oldestTimes = append(oldestTimes, item.expiresAt)
			continue
		}
		for i, t := range oldestTimes {
			if item.expiresAt.Before(t) {
				oldest[i] = key
				oldestTimes[i] = item.expiresAt
				break
			}
		}
	}

	for _, key := range oldest {
		delete(c.items, key)
	}
}
