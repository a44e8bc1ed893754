package cache

import (
	"bytes"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps completions for the life of the process. It is the
// front layer of LayeredCache and the whole cache when disk is disabled.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache returns an empty cache. Entries stored with a zero TTL
// live for defaultTTL; expired entries are swept every cleanupInterval.
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{items: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns a copy, so callers may modify the result freely
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	return bytes.Clone(val.([]byte)), true
}

func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, bytes.Clone(value), ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}

// Len counts stored entries, including expired ones not yet swept
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
