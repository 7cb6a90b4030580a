// Package cache provides a TTL-bounded snippet cache for the search read
// path. The prompt assembler queries the index before every generated
// response; repeated queries within the TTL are served from memory.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultTTL bounds how stale a cached result set may be. A reindex does
// not invalidate the cache; entries simply age out.
const DefaultTTL = 30 * time.Second

// DefaultSize is the maximum number of cached query result sets.
const DefaultSize = 256

// Searcher is the search surface being cached.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]string, error)
}

// CachedSearcher memoizes successful search results with an expiring LRU.
// Errors are never cached: a broken store stays observable on every call.
type CachedSearcher struct {
	inner Searcher
	lru   *expirable.LRU[string, []string]
}

// New wraps inner with an expiring LRU. Non-positive size or ttl fall back
// to the defaults.
func New(inner Searcher, size int, ttl time.Duration) *CachedSearcher {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedSearcher{
		inner: inner,
		lru:   expirable.NewLRU[string, []string](size, nil, ttl),
	}
}

// Search returns cached results when available, otherwise queries the
// underlying searcher and caches the outcome. Empty result sets are cached
// too; only errors bypass the cache.
func (c *CachedSearcher) Search(ctx context.Context, query string, topK int) ([]string, error) {
	key := strconv.Itoa(topK) + ":" + query
	if cached, ok := c.lru.Get(key); ok {
		return cached, nil
	}

	results, err := c.inner.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, results)
	return results, nil
}

// Purge drops all cached entries. Used after an explicit reindex so fresh
// corpus content is visible immediately.
func (c *CachedSearcher) Purge() {
	c.lru.Purge()
}
