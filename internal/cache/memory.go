package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache holds vectors for the life of the process, each expiring ttl
// after it was stored
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a MemoryCache purging expired vectors every sweep
func NewMemoryCache(ttl, sweep time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(ttl, sweep)}
}

// Vector returns a copy of the vector stored under key
func (c *MemoryCache) Vector(key string) ([]float32, bool) {
	val, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	vec, ok := val.([]float32)
	if !ok || len(vec) == 0 {
		return nil, false
	}
	return clone(vec), true
}

// Put stores a copy of vec under key
func (c *MemoryCache) Put(key string, vec []float32) error {
	c.items.SetDefault(key, clone(vec))
	return nil
}

// Purge drops every vector
func (c *MemoryCache) Purge() error {
	c.items.Flush()
	return nil
}
