package services

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/ports"
)

const (
	// Fixed estimate returned when either point lacks coordinates.
	// Deliberate "don't block on missing data" policy, not a computed value.
	missingCoordsDefaultSeconds = 600

	// Average urban speed assumed by the geometric fallback.
	fallbackSpeedKmh = 30.0

	travelCacheTTL = time.Hour
)

// TravelTimeEstimator resolves travel durations between two points.
//
// Resolution order: cache, external routing provider, haversine fallback.
// The estimator never fails; worst case it returns the geometric estimate.
type TravelTimeEstimator struct {
	provider ports.TravelTimeProvider // nil when no routing capability is configured
	cache    ports.DurationCache
}

func NewTravelTimeEstimator(provider ports.TravelTimeProvider, cache ports.DurationCache) *TravelTimeEstimator {
	return &TravelTimeEstimator{provider: provider, cache: cache}
}

// EstimateSeconds returns the estimated travel duration between two points.
// Either point may be nil (coordinates unknown).
func (e *TravelTimeEstimator) EstimateSeconds(ctx context.Context, a, b *domain.Coordinates) int {
	if a == nil || b == nil {
		return missingCoordsDefaultSeconds
	}

	key := travelCacheKey(*a, *b)

	if e.cache != nil {
		if seconds, ok := e.cache.Get(ctx, key); ok {
			return seconds
		}
	}

	seconds := -1
	if e.provider != nil {
		s, err := e.provider.TravelSeconds(ctx, *a, *b)
		if err != nil {
			log.Debug().Err(err).Str("from", a.Key()).Str("to", b.Key()).
				Msg("routing provider failed, using haversine fallback")
		} else if s >= 0 {
			seconds = s
		}
	}

	if seconds < 0 {
		seconds = HaversineSeconds(*a, *b)
	}

	if e.cache != nil {
		e.cache.Set(ctx, key, seconds, travelCacheTTL)
	}

	return seconds
}

// HaversineSeconds converts great-circle distance to a duration at the
// assumed average urban speed. Always >= 0.
func HaversineSeconds(a, b domain.Coordinates) int {
	km := domain.HaversineKm(a, b)
	seconds := int(math.Round(km / fallbackSpeedKmh * 3600))
	if seconds < 0 {
		seconds = 0
	}
	return seconds
}

// travelCacheKey builds a canonical A->B key from rounded coordinates so
// both directions of a pair share one cache entry.
func travelCacheKey(a, b domain.Coordinates) string {
	ka, kb := a.Key(), b.Key()
	if kb < ka {
		ka, kb = kb, ka
	}
	return "travel:" + ka + "|" + kb
}
