package cache

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/okarpov/athanor/internal/model"
)

// LayeredCache fronts a persistent backend with a memory layer, promoting
// persistent hits into memory.
type LayeredCache struct {
	memory     Cache
	persistent Cache
}

// NewLayeredCache builds a memory+persistent cache pair.
func NewLayeredCache(memoryTTL time.Duration, persistent Cache) *LayeredCache {
	return &LayeredCache{
		memory:     NewMemoryCache(memoryTTL, 10*time.Minute),
		persistent: persistent,
	}
}

// FromConfig builds the cache stack described by cfg. With caching disabled
// it returns a Nop cache so callers never branch.
func FromConfig(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}

	var persistent Cache
	switch cfg.Backend {
	case "", "disk":
		persistent = NewDiskCache(cfg.Dir, cfg.DiskTTL)
	case "sqlite":
		sc, err := NewSQLiteCache(filepath.Join(cfg.Dir, "responses.db"), cfg.DiskTTL)
		if err != nil {
			return nil, err
		}
		persistent = sc
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	return NewLayeredCache(cfg.MemoryTTL, persistent), nil
}

// Get checks memory first, then the persistent layer.
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}
	if val, found := c.persistent.Get(key); found {
		_ = c.memory.Set(key, val, 0)
		return val, true
	}
	return nil, false
}

// Set stores the value in both layers.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.persistent.Set(key, value, ttl)
}

// Delete removes the value from both layers.
func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.persistent.Delete(key)
}

// Clear empties both layers.
func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.persistent.Clear()
}
