// Package placescache memoizes place lookups made by the context scorer.
package placescache

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bluele/gcache"

	"transitfinder.org/internal/isochrone"
	"transitfinder.org/internal/models"
)

// Stats receives hit and miss notifications.
type Stats interface {
	CacheHit()
	CacheMiss()
}

// Cache is an isochrone.PlacesFinder that serves repeated lookups from an
// LRU with a TTL. Failed lookups are not cached.
type Cache struct {
	next  isochrone.PlacesFinder
	cache gcache.Cache
	stats Stats
}

var _ isochrone.PlacesFinder = (*Cache)(nil)

func New(next isochrone.PlacesFinder, size int, ttl time.Duration, stats Stats) *Cache {
	if size <= 0 {
		size = 1
	}
	builder := gcache.New(size).LRU()
	if ttl > 0 {
		builder = builder.Expiration(ttl)
	}
	return &Cache{next: next, cache: builder.Build(), stats: stats}
}

func (c *Cache) FindNearbyPlaces(ctx context.Context, center models.LatLng, category string, radiusMeters float64) ([]models.Place, error) {
	key := cacheKey(center, category, radiusMeters)

	if v, err := c.cache.Get(key); err == nil {
		if c.stats != nil {
			c.stats.CacheHit()
		}
		return clonePlaces(v.([]models.Place)), nil
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		return nil, fmt.Errorf("places cache: %w", err)
	}

	if c.stats != nil {
		c.stats.CacheMiss()
	}
	places, err := c.next.FindNearbyPlaces(ctx, center, category, radiusMeters)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(key, clonePlaces(places)); err != nil {
		return nil, fmt.Errorf("places cache: %w", err)
	}
	return places, nil
}

// Len is the number of cached lookups, expired entries excluded.
func (c *Cache) Len() int {
	return c.cache.Len(true)
}

// cacheKey rounds the center to ~10m so lookups for the same stop from
// different providers share an entry.
func cacheKey(center models.LatLng, category string, radiusMeters float64) string {
	return fmt.Sprintf("%d:%d:%s:%d",
		int64(math.Round(center.Lat*1e4)), int64(math.Round(center.Lng*1e4)), category, int64(radiusMeters))
}

func clonePlaces(places []models.Place) []models.Place {
	if places == nil {
		return nil
	}
	return append([]models.Place(nil), places...)
}
