package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"trip-dispatch-service/internal/domain"
)

// LogNotifier writes payloads to the log instead of sending them. Used for
// local runs when no mail API is configured; every send "succeeds" with a
// synthetic delivery reference.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Send(_ context.Context, payload domain.NotificationPayload) (string, error) {
	ref := "log-" + uuid.NewString()
	log.Info().
		Str("delivery_ref", ref).
		Str("partner_email", payload.PartnerEmail).
		Str("trip_title", payload.TripTitle).
		Str("date", payload.Date).
		Msg("dispatch notification (log only)")
	return ref, nil
}
