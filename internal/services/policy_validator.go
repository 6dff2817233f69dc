package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"trip-dispatch-service/internal/config"
	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/platform/obs"
	"trip-dispatch-service/internal/ports"
)

// Machine-readable policy reason codes. Data violations and configuration
// errors use distinct codes so operators can tell "policy says no" from
// "system misconfigured".
const (
	ReasonBookingNotFound        = "booking_not_found"
	ReasonPolicyConfigMissing    = "policy_config_missing"
	ReasonBelowMinParticipants   = "below_min_participants"
	ReasonMissingCoordinates     = "missing_coordinates"
	ReasonGeocodePartialMissing  = "geocode_partial_or_missing"
	ReasonGeocodeKeyMissing      = "geocode_key_missing"
	ReasonPickupDistanceExceeded = "pickup_distance_exceeded"
	ReasonPickupTimeDiffExceeded = "pickup_time_difference_exceeded"
)

// Reason pairs a machine-readable code with a human-readable message.
type Reason struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of one policy evaluation over a cohort.
type ValidationResult struct {
	OK               bool     `json:"ok"`
	Reasons          []Reason `json:"reasons"`
	Participants     int      `json:"participants"`
	MinRequired      int      `json:"min_required"`
	ElasticSuggested bool     `json:"elastic_suggested"`
}

// PolicyValidator decides whether a booking's trip/date cohort is
// dispatch-eligible under the current policy configuration.
//
// Evaluation is a pure pass over a snapshot: no state machine, and expected
// failure modes are returned as reason codes, never as errors. The only
// side effect is persisting coordinates repaired via geocoding, which can
// happen even when the cohort stays ineligible for other reasons.
type PolicyValidator struct {
	bookings ports.BookingStore
	geocoder ports.Geocoder // nil when no external key is configured
	policy   config.PolicySource
	events   ports.EventPublisher
}

func NewPolicyValidator(
	bookings ports.BookingStore,
	geocoder ports.Geocoder,
	policy config.PolicySource,
	events ports.EventPublisher,
) *PolicyValidator {
	return &PolicyValidator{bookings: bookings, geocoder: geocoder, policy: policy, events: events}
}

// Validate evaluates the cohort of the given booking against policy.
// Errors are returned only for unexpected store failures.
func (v *PolicyValidator) Validate(ctx context.Context, bookingID string) (_ ValidationResult, err error) {
	defer obs.Time(ctx, "policy.Validate")(&err)

	booking, err := v.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, ports.ErrBookingNotFound) {
		return failure(Reason{
			Code:    ReasonBookingNotFound,
			Message: fmt.Sprintf("booking %q does not exist", bookingID),
		}), nil
	}
	if err != nil {
		return ValidationResult{}, fmt.Errorf("validate: load booking %q: %w", bookingID, err)
	}

	cfg, err := v.policy()
	if err != nil {
		log.Error().Err(err).Msg("policy configuration unavailable")
		return failure(Reason{
			Code:    ReasonPolicyConfigMissing,
			Message: "policy configuration could not be loaded",
		}), nil
	}

	cohort, err := v.bookings.GetCohort(ctx, booking.TripID, booking.Date)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("validate: load cohort trip=%q date=%q: %w", booking.TripID, booking.Date, err)
	}

	participants := 0
	for _, b := range cohort {
		participants += b.Seats
	}

	result := ValidationResult{
		Reasons:      []Reason{},
		Participants: participants,
		MinRequired:  cfg.TripExecution.MinParticipants,
	}

	if participants < cfg.TripExecution.MinParticipants {
		result.Reasons = append(result.Reasons, Reason{
			Code: ReasonBelowMinParticipants,
			Message: fmt.Sprintf("participants below minimum: %d/%d",
				participants, cfg.TripExecution.MinParticipants),
		})
	}

	if cfg.PickupPolicy.RequireCoordinates {
		if reason := v.checkCoordinates(ctx, cfg, cohort); reason != nil {
			result.Reasons = append(result.Reasons, *reason)
		}
	}

	if reason := checkPickupSpread(cfg, cohort); reason != nil {
		result.Reasons = append(result.Reasons, *reason)
	}

	if reason := checkPickupTimeSpread(cfg, cohort); reason != nil {
		result.Reasons = append(result.Reasons, *reason)
	}

	// Advisory only: suggests switching vehicle type, never fails the cohort.
	if cfg.TripExecution.ElasticVehicleSelection &&
		participants < cfg.TripExecution.ElasticModeTrigger.Threshold {
		result.ElasticSuggested = true
	}

	result.OK = len(result.Reasons) == 0

	v.broadcast(ctx, booking, result)

	return result, nil
}

// checkCoordinates verifies every cohort member has pickup coordinates,
// repairing missing ones via geocoding when policy and configuration allow.
func (v *PolicyValidator) checkCoordinates(
	ctx context.Context,
	cfg *config.PolicyConfig,
	cohort []*domain.Booking,
) *Reason {
	missing := make([]*domain.Booking, 0)
	for _, b := range cohort {
		if b.Coordinates() == nil {
			missing = append(missing, b)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if !cfg.PickupPolicy.GeolocationFallback {
		return &Reason{
			Code:    ReasonMissingCoordinates,
			Message: fmt.Sprintf("%d booking(s) lack pickup coordinates and geolocation fallback is disabled", len(missing)),
		}
	}

	if v.geocoder == nil {
		return &Reason{
			Code:    ReasonGeocodeKeyMissing,
			Message: "geolocation fallback is enabled but no geocoding API key is configured",
		}
	}

	unresolved := 0
	for _, b := range missing {
		res, err := v.geocoder.Forward(ctx, b.PickupAddress)
		if err != nil || res == nil {
			unresolved++
			continue
		}

		if err := v.bookings.UpdateCoordinates(ctx, b.ID, res.Coords.Lat, res.Coords.Lon, res.FormattedAddress); err != nil {
			log.Warn().Err(err).Str("booking_id", b.ID).Msg("failed to persist geocoded coordinates")
			unresolved++
			continue
		}

		lat, lon := res.Coords.Lat, res.Coords.Lon
		b.Lat, b.Lon = &lat, &lon
		if res.FormattedAddress != "" {
			b.PickupAddress = res.FormattedAddress
		}
	}

	if unresolved > 0 {
		return &Reason{
			Code:    ReasonGeocodePartialMissing,
			Message: fmt.Sprintf("%d booking(s) could not be geocoded from their address text", unresolved),
		}
	}

	return nil
}

// checkPickupSpread computes the cohort's pickup spread: for every point the
// distance to its nearest other point, taking the maximum across all points.
//
// This is a nearest-neighbor heuristic, not cluster diameter: a point far
// from everyone except one close neighbor is not flagged. Known limitation,
// kept intentionally because changing it would change which cohorts pass.
func checkPickupSpread(cfg *config.PolicyConfig, cohort []*domain.Booking) *Reason {
	points := make([]domain.Coordinates, 0, len(cohort))
	for _, b := range cohort {
		if c := b.Coordinates(); c != nil {
			points = append(points, *c)
		}
	}
	if len(points) < 2 {
		return nil
	}

	spreadKm := 0.0
	for i := range points {
		nearest := math.MaxFloat64
		for j := range points {
			if i == j {
				continue
			}
			if d := domain.HaversineKm(points[i], points[j]); d < nearest {
				nearest = d
			}
		}
		if nearest > spreadKm {
			spreadKm = nearest
		}
	}

	if spreadKm > cfg.TripExecution.MaxPickupDistanceKm {
		return &Reason{
			Code: ReasonPickupDistanceExceeded,
			Message: fmt.Sprintf("pickup spread %.1f km exceeds maximum %.1f km",
				spreadKm, cfg.TripExecution.MaxPickupDistanceKm),
		}
	}

	return nil
}

// checkPickupTimeSpread flags cohorts whose already-scheduled pickup times
// lie too far apart. Members without an ETA are skipped.
func checkPickupTimeSpread(cfg *config.PolicyConfig, cohort []*domain.Booking) *Reason {
	maxDiff := cfg.TripExecution.MaxPickupTimeDifferenceMinutes
	if maxDiff <= 0 {
		return nil
	}

	var earliest, latest *time.Time
	for _, b := range cohort {
		if b.PickupETA == nil {
			continue
		}
		if earliest == nil || b.PickupETA.Before(*earliest) {
			earliest = b.PickupETA
		}
		if latest == nil || b.PickupETA.After(*latest) {
			latest = b.PickupETA
		}
	}
	if earliest == nil || latest == nil {
		return nil
	}

	diffMinutes := latest.Sub(*earliest).Minutes()
	if diffMinutes > maxDiff {
		return &Reason{
			Code: ReasonPickupTimeDiffExceeded,
			Message: fmt.Sprintf("pickup times span %.0f minutes, maximum is %.0f",
				diffMinutes, maxDiff),
		}
	}

	return nil
}

// broadcast publishes the evaluation outcome to the observer channel.
// Fire-and-forget: failures are the publisher's problem, never the caller's.
func (v *PolicyValidator) broadcast(ctx context.Context, booking *domain.Booking, result ValidationResult) {
	if v.events == nil {
		return
	}

	codes := make([]string, 0, len(result.Reasons))
	for _, r := range result.Reasons {
		codes = append(codes, r.Code)
	}

	v.events.Publish(ctx, ports.PolicyEvent{
		BookingID:    booking.ID,
		TripID:       booking.TripID,
		Date:         booking.Date,
		OK:           result.OK,
		Reasons:      codes,
		Participants: result.Participants,
	})
}

func failure(reason Reason) ValidationResult {
	return ValidationResult{OK: false, Reasons: []Reason{reason}}
}
