package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Defaults for the in-process tier.
const (
	DefaultSize = 4096
	DefaultTTL  = 10 * time.Minute
)

// cachedEntry wraps a translation with cache metadata.
type cachedEntry struct {
	Value    string
	CachedAt time.Time
	TTL      time.Duration
}

func (e *cachedEntry) fresh(now time.Time) bool {
	return e.TTL <= 0 || now.Sub(e.CachedAt) < e.TTL
}

// LRU is an in-process translation cache with per-entry expiry.
type LRU struct {
	cache *lru.Cache[string, *cachedEntry]
	ttl   time.Duration
	now   func() time.Time
}

// NewLRU creates a cache of size entries. ttl applies when Set is given
// none; size and ttl <= 0 take the defaults.
func NewLRU(size int, ttl time.Duration) (*LRU, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache, err := lru.New[string, *cachedEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: cache, ttl: ttl, now: time.Now}, nil
}

// Get returns a fresh entry; expired entries are evicted on read.
func (c *LRU) Get(_ context.Context, key string) (string, bool) {
	entry, ok := c.cache.Get(key)
	if !ok {
		return "", false
	}
	if !entry.fresh(c.now()) {
		c.cache.Remove(key)
		return "", false
	}
	return entry.Value, true
}

// Set stores value; ttl <= 0 uses the cache default.
func (c *LRU) Set(_ context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.cache.Add(key, &cachedEntry{Value: value, CachedAt: c.now(), TTL: ttl})
}

// Remove drops key.
func (c *LRU) Remove(key string) {
	c.cache.Remove(key)
}

// Len is the number of entries, expired ones included.
func (c *LRU) Len() int {
	return c.cache.Len()
}

// Close empties the cache.
func (c *LRU) Close() error {
	c.cache.Purge()
	return nil
}
