package ports

import (
	"context"
	"errors"
	"time"

	"trip-dispatch-service/internal/domain"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrRouteNotFound   = errors.New("route not found")
	ErrPartnerNotFound = errors.New("partner not found")
)

// Port: boundary for reading and mutating Booking entities.
//
// Coordinate, schedule and status writes are split into narrow methods so
// each service touches only the columns it owns.
type BookingStore interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// GetCohort returns all confirmed bookings sharing a trip id and date.
	GetCohort(ctx context.Context, tripID, date string) ([]*domain.Booking, error)
	UpdateCoordinates(ctx context.Context, id string, lat, lon float64, address string) error
	UpdateSchedule(ctx context.Context, id, routeID string, order int, eta, windowStart, windowEnd time.Time) error
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
}

// Port: boundary for retrieving Route entities.
type RouteStore interface {
	GetByID(ctx context.Context, id string) (*domain.Route, error)
}

// Port: boundary for retrieving Partner entities.
type PartnerStore interface {
	GetByID(ctx context.Context, id string) (*domain.Partner, error)
}
