package cache

import (
	"log/slog"
	"time"

	"github.com/ppiankov/topology/internal/model"
)

// memorySweep is how often expired memory entries are purged
const memorySweep = 10 * time.Minute

// LayeredCache serves vectors from memory first and falls back to disk
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache
}

// NewLayeredCache creates a LayeredCache over a MemoryCache and a DiskCache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, memorySweep),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

// FromConfig builds the cache described by cfg, or nil when caching is off
func FromConfig(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// Vector looks key up in memory, then on disk. Disk hits are promoted.
func (c *LayeredCache) Vector(key string) ([]float32, bool) {
	if vec, ok := c.memory.Vector(key); ok {
		return vec, true
	}
	vec, ok := c.disk.Vector(key)
	if !ok {
		return nil, false
	}
	_ = c.memory.Put(key, vec)
	return vec, true
}

// Put stores vec in both layers. A disk failure leaves the memory entry.
func (c *LayeredCache) Put(key string, vec []float32) error {
	_ = c.memory.Put(key, vec)
	if err := c.disk.Put(key, vec); err != nil {
		slog.Warn("disk cache write failed", "error", err)
		return err
	}
	return nil
}

// Purge empties both layers
func (c *LayeredCache) Purge() error {
	_ = c.memory.Purge()
	return c.disk.Purge()
}
