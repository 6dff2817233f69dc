package ports

import (
	"context"

	"trip-dispatch-service/internal/domain"
)

// Result of a forward geocode lookup.
type GeocodeResult struct {
	Coords           domain.Coordinates
	FormattedAddress string
}

// Contract for resolving free-text addresses to coordinates.
//
// Implementations must tolerate and swallow provider errors, returning
// (nil, nil) rather than raising; a nil result means "could not resolve".
type Geocoder interface {
	Forward(ctx context.Context, address string) (*GeocodeResult, error)
}
