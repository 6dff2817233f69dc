package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/ports"
)

// Terminal dispatch error codes. Retrying cannot fix a missing contact, so
// these are logged once and never enter the retry loop.
const (
	DispatchErrPartnerMissing      = "partner_missing"
	DispatchErrMissingPartnerEmail = "missing_partner_email"
	DispatchErrBookingNotFound     = "booking_not_found"

	// Marker left on a pending log entry when the global switch is off,
	// so operators can stage records for a later bulk flush.
	dispatchDisabledMarker = "dispatch_disabled"
)

// Delays before attempts 1..4. The first attempt fires immediately.
var defaultBackoff = []time.Duration{0, 60 * time.Second, 300 * time.Second, 900 * time.Second}

// EnqueueOptions control a single dispatch request.
type EnqueueOptions struct {
	// Override skips the idempotency short-circuit and forces a fresh
	// attempt series even after a prior success.
	Override bool
	SentBy   string
}

// EnqueueResult is the synchronous half of a dispatch request. Delivery
// itself happens in the background; callers never block on it.
type EnqueueResult struct {
	OK         bool   `json:"ok"`
	Idempotent bool   `json:"idempotent,omitempty"`
	Queued     bool   `json:"queued,omitempty"`
	Error      string `json:"error,omitempty"`
	LogID      string `json:"log_id,omitempty"`
}

// DispatchQueue builds provider notifications and delivers them
// asynchronously with bounded retries and idempotent suppression of
// duplicate sends.
//
// The dispatch log is the single source of truth for idempotency: every
// attempt outcome is written durably before the next attempt is scheduled,
// so a restart mid-backoff loses only the in-flight timer. Scaling beyond a
// single writer per (booking, partner) pair needs an external lock.
type DispatchQueue struct {
	bookings ports.BookingStore
	partners ports.PartnerStore
	logs     ports.DispatchLogStore
	notifier ports.Notifier

	enabled bool
	backoff []time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// QueueOption customizes a DispatchQueue.
type QueueOption func(*DispatchQueue)

// WithBackoff overrides the retry delays (one entry per attempt).
func WithBackoff(delays []time.Duration) QueueOption {
	return func(q *DispatchQueue) { q.backoff = delays }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) QueueOption {
	return func(q *DispatchQueue) { q.now = now }
}

func NewDispatchQueue(
	bookings ports.BookingStore,
	partners ports.PartnerStore,
	logs ports.DispatchLogStore,
	notifier ports.Notifier,
	enabled bool,
	opts ...QueueOption,
) *DispatchQueue {
	q := &DispatchQueue{
		bookings: bookings,
		partners: partners,
		logs:     logs,
		notifier: notifier,
		enabled:  enabled,
		backoff:  defaultBackoff,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue queues a dispatch notification for the booking's partner and
// returns immediately. Errors are returned only for store failures.
func (q *DispatchQueue) Enqueue(ctx context.Context, bookingID string, opts EnqueueOptions) (EnqueueResult, error) {
	booking, err := q.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, ports.ErrBookingNotFound) {
		return EnqueueResult{OK: false, Error: DispatchErrBookingNotFound}, nil
	}
	if err != nil {
		return EnqueueResult{}, fmt.Errorf("enqueue dispatch: load booking %q: %w", bookingID, err)
	}

	if booking.PartnerID == nil {
		return q.terminalFailure(ctx, booking, "", DispatchErrPartnerMissing)
	}

	partner, err := q.partners.GetByID(ctx, *booking.PartnerID)
	if errors.Is(err, ports.ErrPartnerNotFound) {
		return q.terminalFailure(ctx, booking, *booking.PartnerID, DispatchErrPartnerMissing)
	}
	if err != nil {
		return EnqueueResult{}, fmt.Errorf("enqueue dispatch: load partner %q: %w", *booking.PartnerID, err)
	}

	if partner.Email == "" {
		return q.terminalFailure(ctx, booking, partner.ID, DispatchErrMissingPartnerEmail)
	}

	if !opts.Override {
		prior, err := q.logs.FindSuccess(ctx, booking.ID, partner.ID)
		if err != nil {
			return EnqueueResult{}, fmt.Errorf("enqueue dispatch: check prior success: %w", err)
		}
		if prior != nil {
			return EnqueueResult{OK: true, Idempotent: true, LogID: prior.ID}, nil
		}
	}

	payload := domain.NewNotificationPayload(booking, partner)
	raw, err := json.Marshal(payload)
	if err != nil {
		return EnqueueResult{}, fmt.Errorf("enqueue dispatch: marshal payload: %w", err)
	}

	entry := &domain.DispatchLog{
		ID:        uuid.NewString(),
		BookingID: booking.ID,
		PartnerID: partner.ID,
		Status:    domain.DispatchPending,
		Payload:   string(raw),
		SentBy:    opts.SentBy,
		CreatedAt: q.now(),
	}
	if err := q.logs.Create(ctx, entry); err != nil {
		return EnqueueResult{}, fmt.Errorf("enqueue dispatch: create log entry: %w", err)
	}

	if err := q.bookings.UpdateStatus(ctx, booking.ID, domain.BookingDispatchedPending); err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to mark booking dispatched-pending")
	}

	q.wg.Add(1)
	go q.deliver(entry, payload)

	return EnqueueResult{OK: true, Queued: true, LogID: entry.ID}, nil
}

// Wait blocks until all in-flight delivery loops finish. Used for graceful
// shutdown and tests.
func (q *DispatchQueue) Wait() { q.wg.Wait() }

// deliver runs the detached retry loop for one log entry. It never returns
// errors to any caller; outcomes go to the log only.
func (q *DispatchQueue) deliver(entry *domain.DispatchLog, payload domain.NotificationPayload) {
	defer q.wg.Done()

	// Detached from the request: delivery outlives the HTTP caller.
	ctx := context.Background()

	if !q.enabled {
		entry.Status = domain.DispatchPending
		entry.LastResponse = dispatchDisabledMarker
		if err := q.logs.Update(ctx, entry); err != nil {
			log.Error().Err(err).Str("log_id", entry.ID).Msg("failed to record dispatch_disabled state")
		}
		return
	}

	for attempt := 1; attempt <= len(q.backoff); attempt++ {
		if delay := q.backoff[attempt-1]; delay > 0 {
			time.Sleep(delay)
		}

		ref, sendErr := q.notifier.Send(ctx, payload)

		now := q.now()
		entry.Attempts = attempt
		entry.LastAttemptAt = &now

		if sendErr == nil {
			entry.Status = domain.DispatchSuccess
			entry.LastResponse = ref
			if err := q.logs.Update(ctx, entry); err != nil {
				log.Error().Err(err).Str("log_id", entry.ID).Msg("failed to record dispatch success")
			}
			if err := q.bookings.UpdateStatus(ctx, entry.BookingID, domain.BookingDispatchedSuccess); err != nil {
				log.Warn().Err(err).Str("booking_id", entry.BookingID).Msg("failed to mark booking dispatched-success")
			}
			return
		}

		entry.Status = domain.DispatchError
		entry.LastResponse = sendErr.Error()
		// Durable write before the next backoff sleep: a restart loses the
		// timer, not the attempt history.
		if err := q.logs.Update(ctx, entry); err != nil {
			log.Error().Err(err).Str("log_id", entry.ID).Int("attempt", attempt).Msg("failed to record dispatch attempt")
		}

		log.Warn().Str("log_id", entry.ID).Int("attempt", attempt).Err(sendErr).Msg("dispatch attempt failed")
	}

	if err := q.bookings.UpdateStatus(ctx, entry.BookingID, domain.BookingDispatchedError); err != nil {
		log.Warn().Err(err).Str("booking_id", entry.BookingID).Msg("failed to mark booking dispatched-error")
	}
}

// terminalFailure records a non-retried log entry for an unresolvable
// provider and returns the non-ok result.
func (q *DispatchQueue) terminalFailure(ctx context.Context, booking *domain.Booking, partnerID, code string) (EnqueueResult, error) {
	entry := &domain.DispatchLog{
		ID:           uuid.NewString(),
		BookingID:    booking.ID,
		PartnerID:    partnerID,
		Status:       domain.DispatchError,
		LastResponse: code,
		CreatedAt:    q.now(),
	}
	if err := q.logs.Create(ctx, entry); err != nil {
		return EnqueueResult{}, fmt.Errorf("enqueue dispatch: create terminal log entry: %w", err)
	}

	if err := q.bookings.UpdateStatus(ctx, booking.ID, domain.BookingDispatchedError); err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to mark booking dispatched-error")
	}

	return EnqueueResult{OK: false, Error: code, LogID: entry.ID}, nil
}
