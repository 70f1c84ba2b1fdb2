package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecoscan/recyclelens/internal/logger"
)

const defaultCacheTTL = time.Hour

// CachedGeocoder wraps a ReverseGeocoder with a Redis-backed result cache.
// The client may be nil, in which case every lookup goes to the inner
// geocoder. Cache errors never fail a lookup.
type CachedGeocoder struct {
	inner ReverseGeocoder
	rc    *redis.Client
	ttl   time.Duration
}

// NewCachedGeocoder creates a caching wrapper. A ttl of zero or less falls
// back to one hour.
func NewCachedGeocoder(inner ReverseGeocoder, rc *redis.Client, ttl time.Duration) *CachedGeocoder {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedGeocoder{inner: inner, rc: rc, ttl: ttl}
}

// ReverseGeocode returns a cached record when available and stores fresh
// results on a miss.
func (g *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*PlaceRecord, error) {
	key := cacheKey(lat, lon)
	if g.rc != nil {
		if s, _ := g.rc.Get(ctx, key).Result(); s != "" {
			var rec PlaceRecord
			if err := json.Unmarshal([]byte(s), &rec); err == nil {
				logger.L().Debug("revgeo cache hit", "key", key)
				return &rec, nil
			}
		}
	}

	rec, err := g.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if g.rc != nil {
		if b, err := json.Marshal(rec); err == nil {
			_ = g.rc.Set(ctx, key, string(b), g.ttl).Err()
		}
	}
	return rec, nil
}

// cacheKey rounds coordinates to three decimals so nearby fixes share an
// entry and the key stays stable across float formatting.
func cacheKey(lat, lon float64) string {
	return fmt.Sprintf("revgeo:%.3f:%.3f", lat, lon)
}
