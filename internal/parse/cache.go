package parse

import (
	"sync"
	"time"

	"quotewright/internal/model"
)

// cacheEntry is one cached parse result.
type cacheEntry struct {
	storedAt time.Time
	expiry   time.Time
	result   model.ParseResult
}

// resultCache is a thread-safe TTL cache for parse results with a capacity
// bound. When full, the oldest entry by insertion order is evicted.
type resultCache struct {
	entries  map[string]cacheEntry
	stopCh   chan struct{}
	order    []string
	ttl      time.Duration
	capacity int
	mu       sync.RWMutex
}

func newResultCache(ttl time.Duration, capacity int) *resultCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	if capacity <= 0 {
		capacity = 128
	}

	cache := &resultCache{
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		capacity: capacity,
		stopCh:   make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// get returns the cached result and its age if present and unexpired.
func (c *resultCache) get(key string) (model.ParseResult, time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return model.ParseResult{}, 0, false
	}

	now := time.Now()
	if now.After(entry.expiry) {
		return model.ParseResult{}, 0, false
	}

	return entry.result, now.Sub(entry.storedAt), true
}

// set stores a result, evicting the oldest entry when at capacity.
func (c *resultCache) set(key string, result model.ParseResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.capacity && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}

	c.entries[key] = cacheEntry{
		result:   result,
		storedAt: now,
		expiry:   now.Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *resultCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			kept := c.order[:0]
			for _, key := range c.order {
				if entry, ok := c.entries[key]; ok && now.After(entry.expiry) {
					delete(c.entries, key)
					continue
				}
				kept = append(kept, key)
			}
			c.order = kept
			c.mu.Unlock()
		}
	}
}

func (c *resultCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *resultCache) Close() {
	close(c.stopCh)
}
