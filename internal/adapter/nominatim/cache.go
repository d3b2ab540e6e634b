package nominatim

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/couchcryptid/historic-weather-service/internal/domain"
	"github.com/couchcryptid/historic-weather-service/internal/observability"
)

// CachedResolver wraps a Resolver with an in-memory TTL cache. Failed lookups
// are not cached so they are retried on the next query.
type CachedResolver struct {
	inner   Resolver
	cache   *cache.Cache
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver.
func NewCachedResolver(inner Resolver, ttl time.Duration, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   cache.New(ttl, 2*ttl),
		metrics: metrics,
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, lat, lon float64) (domain.Location, error) {
	key := fmt.Sprintf("%.6f,%.6f", lat, lon)
	if v, ok := c.cache.Get(key); ok {
		c.count("hit")
		return v.(domain.Location), nil
	}
	c.count("miss")

	loc, err := c.inner.Resolve(ctx, lat, lon)
	if err != nil {
		return loc, err
	}
	c.cache.SetDefault(key, loc)
	return loc, nil
}

func (c *CachedResolver) count(result string) {
	if c.metrics != nil {
		c.metrics.GeocodeCache.WithLabelValues(result).Inc()
	}
}
