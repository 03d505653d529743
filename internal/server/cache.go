package server

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mj1618/a11y-lens/internal/pipeline"
)

// cacheKey identifies analyses that would produce the same result.
type cacheKey struct {
	URL        string
	MaxRetries int
	Timeout    time.Duration
	SkipAI     bool
	Numbered   bool
}

func keyFor(req Request) cacheKey {
	return cacheKey{
		URL:        req.URL,
		MaxRetries: req.MaxRetries,
		Timeout:    req.Timeout,
		SkipAI:     req.SkipAI,
		Numbered:   req.Numbered,
	}
}

// cacheEntry holds a result with the time it was stored.
type cacheEntry struct {
	result    *pipeline.Result
	timestamp time.Time
}

// ResultCache is a bounded, TTL-based cache of completed analyses. A nil
// *ResultCache is valid and never hits.
type ResultCache struct {
	mu      sync.Mutex
	entries *lru.Cache[cacheKey, cacheEntry]
	ttl     time.Duration
	now     func() time.Time
}

// NewResultCache creates a cache holding at most size results for ttl.
// A size or ttl of 0 disables caching and returns nil.
func NewResultCache(size int, ttl time.Duration) *ResultCache {
	if size <= 0 || ttl <= 0 {
		return nil
	}
	entries, err := lru.New[cacheKey, cacheEntry](size)
	if err != nil {
		return nil
	}
	return &ResultCache{entries: entries, ttl: ttl, now: time.Now}
}

// Get returns a cached result if it is within TTL.
func (c *ResultCache) Get(key cacheKey) (*pipeline.Result, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.timestamp) >= c.ttl {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.result, true
}

// Add stores res under key.
func (c *ResultCache) Add(key cacheKey, res *pipeline.Result) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, cacheEntry{result: res, timestamp: c.now()})
}

// InvalidateURL removes every entry for url.
func (c *ResultCache) InvalidateURL(url string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range c.entries.Keys() {
		if k.URL == url {
			c.entries.Remove(k)
		}
	}
}

// Len reports the number of stored entries, including expired ones not yet
// evicted.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
