// Package caching holds rendered API responses in memory with a TTL.
package caching

import (
	"crypto/sha256"
	"fmt"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a TTL cache of response bodies keyed by request.
type Cache struct {
	store  *gocache.Cache
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats reports cache usage.
type Stats struct {
	Items  int   `json:"items" yaml:"items"`
	Hits   int64 `json:"hits" yaml:"hits"`
	Misses int64 `json:"misses" yaml:"misses"`
}

// NewCache creates a Cache. Expired entries are purged every 2*ttl.
// A non-positive ttl disables caching.
func NewCache(ttl time.Duration) *Cache {
	cleanup := 2 * ttl
	if ttl <= 0 {
		cleanup = 0
	}
	return &Cache{
		store: gocache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

// Enabled reports whether entries are stored at all.
func (c *Cache) Enabled() bool {
	return c != nil && c.ttl > 0
}

// key hashes the request so long query strings stay bounded.
func (c *Cache) key(request string) string {
	hash := sha256.Sum256([]byte(request))
	return fmt.Sprintf("%x", hash)
}

// Get returns the cached body for request if it has not expired.
func (c *Cache) Get(request string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	v, ok := c.store.Get(c.key(request))
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return v.([]byte), true
}

// Set stores a body for request.
func (c *Cache) Set(request string, data []byte) {
	if !c.Enabled() {
		return
	}
	c.store.Set(c.key(request), data, gocache.DefaultExpiration)
}

// Flush drops every entry.
func (c *Cache) Flush() {
	if c == nil {
		return
	}
	c.store.Flush()
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{Items: c.store.ItemCount(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
