package ports

import (
	"context"

	"trip-dispatch-service/internal/domain"
)

// Contract for an external routing capability returning travel durations.
//
// Any error (network failure, malformed response, missing duration) triggers
// the caller's geometric fallback; it never surfaces past the estimator.
type TravelTimeProvider interface {
	// Return estimated travel duration in seconds between two points,
	// preferring a traffic-aware estimate when the backend offers one.
	TravelSeconds(ctx context.Context, origin, destination domain.Coordinates) (int, error)
}
