package cache

import (
	"product-service/pkg/cache"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process cache.CacheService backed by go-cache.
// Entries are per instance; a write on one replica does not evict another's.
type MemoryCache struct {
	store *gocache.Cache
}

var _ cache.CacheService = (*MemoryCache)(nil)

// NewMemoryCache creates a new in-memory cache service
// defaultExpiration: default TTL for items
// cleanupInterval: how often to scan for expired items
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		store: gocache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

func (c *MemoryCache) Set(key string, value interface{}, duration time.Duration) {
	c.store.Set(key, value, duration)
}

func (c *MemoryCache) Delete(key string) {
	c.store.Delete(key)
}

func (c *MemoryCache) Flush() {
	c.store.Flush()
}
