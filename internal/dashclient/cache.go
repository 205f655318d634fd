package dashclient

import "sync"

// MemoryCache is a small in-memory read cache. Entries have no TTL; the
// event stream is what keeps them fresh.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]any
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]any)}
}

func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok
}

func (c *MemoryCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

func (c *MemoryCache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

func (c *MemoryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
}
