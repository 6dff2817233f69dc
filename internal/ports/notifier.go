package ports

import (
	"context"

	"trip-dispatch-service/internal/domain"
)

// Contract for delivering a dispatch notification to a provider.
//
// Send returns a delivery reference on success; any error counts as a
// failed attempt and is retried by the dispatch queue.
type Notifier interface {
	Send(ctx context.Context, payload domain.NotificationPayload) (string, error)
}
