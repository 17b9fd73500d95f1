package forecastcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
)

const defaultMemorySize = 256

type memoryEntry struct {
	raw       forecast.RawForecast
	expiresAt time.Time
}

// MemoryCache is the process-local fallback tier. Entries expire after their own TTL
// and the LRU bounds the number kept.
type MemoryCache struct {
	lru *expirable.LRU[string, memoryEntry]
	now func() time.Time
}

// NewMemoryCache builds a cache holding at most size entries, each living no longer than maxTTL.
func NewMemoryCache(size int, maxTTL time.Duration) *MemoryCache {
	if size <= 0 {
		size = defaultMemorySize
	}
	return &MemoryCache{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

// Get returns the payload if present and not expired.
func (c *MemoryCache) Get(_ context.Context, key string) (forecast.RawForecast, bool, error) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return forecast.RawForecast{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt) {
		c.lru.Remove(key)
		return forecast.RawForecast{}, false, nil
	}
	return entry.raw, true, nil
}

// Set stores value until ttl elapses. A non-positive ttl keeps it until evicted.
func (c *MemoryCache) Set(_ context.Context, key string, value forecast.RawForecast, ttl time.Duration) error {
	entry := memoryEntry{raw: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.lru.Add(key, entry)
	return nil
}

var _ forecast.FallbackCache = (*MemoryCache)(nil)
