package common

import (
	"sync"
	"time"
)

// cacheEntry holds a cached value and its expiry.
type cacheEntry struct {
	expiry time.Time
	value  any
}

// TTLCache is a small time-boxed memoization cache. It is not a source of
// truth: every entry expires and the whole cache can be discarded at any time
// without correctness loss. Eviction is lazy (on access) plus explicit via
// Evict and Clear.
type TTLCache struct {
	entries map[string]cacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// NewTTLCache creates a cache with the specified TTL.
func NewTTLCache(ttl time.Duration) *TTLCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	return &TTLCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves a value if it exists and hasn't expired.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().After(entry.expiry) {
		c.Evict(key)
		return nil, false
	}

	return entry.value, true
}

// Set stores a value under key.
func (c *TTLCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		value:  value,
		expiry: time.Now().Add(c.ttl),
	}
}

// Evict removes a single key.
func (c *TTLCache) Evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Cleanup removes all expired entries and returns how many were dropped.
func (c *TTLCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiry) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Size returns the number of entries, expired or not.
func (c *TTLCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
