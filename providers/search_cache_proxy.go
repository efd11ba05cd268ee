package providers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"trainalert.app/metrics"
	"trainalert.app/models"
)

// CachingRouteSource decorates a RouteSource with a TTL cache of search
// results. Only the user-facing search path goes through it; the
// reconciliation engine always talks to the underlying source so price
// observations are never computed from cached offers.
type CachingRouteSource struct {
	source  RouteSource
	cache   Cache
	ttl     time.Duration
	metrics *metrics.CacheMetrics
}

// NewCachingRouteSource wraps a route source with a cache
func NewCachingRouteSource(source RouteSource, cache Cache, ttl time.Duration, cacheType string) *CachingRouteSource {
	return &CachingRouteSource{
		source:  source,
		cache:   cache,
		ttl:     ttl,
		metrics: metrics.NewCacheMetrics(cacheType),
	}
}

// Search returns a cached result when present, otherwise delegates and
// caches the outcome. Errors are never cached.
func (c *CachingRouteSource) Search(ctx context.Context, query models.SearchQuery) (*models.SearchResult, error) {
	key := query.CacheKey()

	start := time.Now()
	data, found := c.cache.Get(ctx, key)
	c.metrics.ObserveLatency("get", time.Since(start).Seconds())

	if found {
		var result models.SearchResult
		if err := json.Unmarshal(data, &result); err == nil {
			c.metrics.RecordHit()
			log.Printf("[DEBUG] Search cache hit: %s\n", key)
			return &result, nil
		}
		log.Printf("[WARNING] Corrupt search cache entry, dropping: %s\n", key)
		c.cache.Delete(ctx, key)
	}

	c.metrics.RecordMiss()

	result, err := c.source.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		start = time.Now()
		c.cache.Set(ctx, key, data, c.ttl)
		c.metrics.ObserveLatency("set", time.Since(start).Seconds())
	}

	return result, nil
}

// Stats exposes cache effectiveness for the debug endpoint
func (c *CachingRouteSource) Stats() metrics.CacheStats {
	return c.metrics.Stats()
}
