package ports

import (
	"context"
	"time"
)

// Contract for caching travel durations keyed by a canonical coordinate pair.
//
// Entries expire after the TTL passed to Set. Implementations may be
// in-process or distributed; callers never depend on which.
type DurationCache interface {
	Get(ctx context.Context, key string) (seconds int, ok bool)
	Set(ctx context.Context, key string, seconds int, ttl time.Duration)
}
