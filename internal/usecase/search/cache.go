package search

import (
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/facedex/internal/domain/search/result"
	"github.com/kailas-cloud/facedex/internal/metrics"
)

// Cache defaults.
const (
	DefaultCacheEntries = 100
	DefaultCacheTTL     = 5 * time.Minute
)

// cacheEntry is a cached result list with its expiration time.
type cacheEntry struct {
	results   []result.Result
	expiresAt time.Time
}

// Cache memoizes ranked result lists keyed by query signature.
// Capacity-bounded (LRU) and time-expiring: an entry past its TTL is a
// miss even while capacity-resident. Concurrent requests for the same
// key share one computation via singleflight; errors are never cached.
type Cache struct {
	entries  *lru.Cache[string, *cacheEntry]
	capacity int
	ttl      time.Duration
	group    singleflight.Group
	now      func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is an instrumentation snapshot for tests and diagnostics.
type CacheStats struct {
	Size     int
	Capacity int
	TTL      time.Duration
	Hits     int64
	Misses   int64
}

// NewCache creates a result cache. maxEntries <= 0 and ttl <= 0 fall
// back to the defaults.
func NewCache(maxEntries int, ttl time.Duration) (*Cache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	entries, err := lru.New[string, *cacheEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Cache{entries: entries, capacity: maxEntries, ttl: ttl, now: time.Now}, nil
}

// GetOrCompute returns the cached results for key, or runs compute and
// caches its output. The bool reports whether the call was served from
// cache. At most one compute runs per key at a time; concurrent callers
// for the same key receive the first caller's outcome. A compute that
// fails (including by caller cancellation) caches nothing and releases
// the in-flight slot for the key.
func (c *Cache) GetOrCompute(key string, compute func() ([]result.Result, error)) ([]result.Result, bool, error) {
	if res, ok := c.lookup(key); ok {
		c.hits.Add(1)
		metrics.SearchCacheTotal.WithLabelValues("hit").Inc()
		return res, true, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent flight may have populated the entry already.
		if res, ok := c.lookup(key); ok {
			return res, nil
		}
		res, err := compute()
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, &cacheEntry{results: res, expiresAt: c.now().Add(c.ttl)})
		return res, nil
	})
	if err != nil {
		return nil, false, err
	}

	c.misses.Add(1)
	metrics.SearchCacheTotal.WithLabelValues("miss").Inc()
	return v.([]result.Result), false, nil
}

// lookup returns a live entry for key, removing it when expired.
func (c *Cache) lookup(key string) ([]result.Result, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.results, true
}

// Purge drops every cached entry.
func (c *Cache) Purge() { c.entries.Purge() }

// Stats returns an instrumentation snapshot.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Size:     c.entries.Len(),
		Capacity: c.capacity,
		TTL:      c.ttl,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
	}
}
