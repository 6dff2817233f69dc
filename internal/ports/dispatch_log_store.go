package ports

import (
	"context"

	"trip-dispatch-service/internal/domain"
)

// Port: durable store for dispatch log entries.
//
// The log is the single source of truth for dispatch idempotency, so every
// write must be committed before the next retry attempt is scheduled.
type DispatchLogStore interface {
	Create(ctx context.Context, entry *domain.DispatchLog) error
	// Update rewrites status, last response and attempt count in place.
	Update(ctx context.Context, entry *domain.DispatchLog) error
	// FindSuccess returns the successful entry for a (booking, partner)
	// pair, or nil when none exists.
	FindSuccess(ctx context.Context, bookingID, partnerID string) (*domain.DispatchLog, error)
}
