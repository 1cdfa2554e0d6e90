package currency

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long fetched rates are served before refreshing.
const DefaultCacheTTL = time.Hour

// RateCache holds the last fetched rates for a TTL.
type RateCache struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.RWMutex
	rates     Rates
	fetchedAt time.Time
}

// NewRateCache creates an empty cache. A non-positive ttl uses DefaultCacheTTL
// and a nil clock uses time.Now.
func NewRateCache(ttl time.Duration, now func() time.Time) *RateCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &RateCache{ttl: ttl, now: now}
}

// Get returns the cached rates and their fetch time while they are fresh.
func (c *RateCache) Get() (Rates, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.rates == nil || c.now().Sub(c.fetchedAt) >= c.ttl {
		return nil, time.Time{}, false
	}
	return c.rates.Clone(), c.fetchedAt, true
}

// Put stores rates as fetched now and returns the fetch time.
func (c *RateCache) Put(rates Rates) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates = rates.Clone()
	c.fetchedAt = c.now()
	return c.fetchedAt
}
