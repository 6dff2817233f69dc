package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"trip-dispatch-service/internal/config"
	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/ports"
)

func testPolicy() *config.PolicyConfig {
	cfg := &config.PolicyConfig{}
	cfg.TripExecution.MinParticipants = 4
	cfg.TripExecution.MaxParticipants = 16
	cfg.TripExecution.MaxPickupDistanceKm = 25
	cfg.TripExecution.MaxPickupTimeDifferenceMinutes = 45
	cfg.TripExecution.ElasticVehicleSelection = true
	cfg.TripExecution.ElasticModeTrigger.Threshold = 12
	cfg.PickupPolicy.RequireCoordinates = true
	cfg.PickupPolicy.GeolocationFallback = true
	return cfg
}

func staticPolicy(cfg *config.PolicyConfig) config.PolicySource {
	return func() (*config.PolicyConfig, error) { return cfg, nil }
}

func confirmedBooking(id string, seats int, lat, lon float64) *domain.Booking {
	return &domain.Booking{
		ID:            id,
		TripID:        "trip-1",
		Date:          "2026-09-12",
		Seats:         seats,
		PickupAddress: "Somewhere " + id,
		Lat:           floatPtr(lat),
		Lon:           floatPtr(lon),
		Status:        domain.BookingConfirmed,
	}
}

func singleReason(t *testing.T, result ValidationResult, code string) {
	t.Helper()
	if result.OK {
		t.Fatalf("expected failure with reason %q, got ok", code)
	}
	if len(result.Reasons) != 1 {
		t.Fatalf("expected exactly one reason, got %v", result.Reasons)
	}
	if result.Reasons[0].Code != code {
		t.Fatalf("reason code = %q, want %q", result.Reasons[0].Code, code)
	}
}

func TestValidateBookingNotFound(t *testing.T) {
	v := NewPolicyValidator(newMemBookingStore(), nil, staticPolicy(testPolicy()), nil)

	result, err := v.Validate(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	singleReason(t, result, ReasonBookingNotFound)
}

func TestValidatePolicyConfigMissing(t *testing.T) {
	store := newMemBookingStore(confirmedBooking("b1", 4, 52.52, 13.41))
	broken := func() (*config.PolicyConfig, error) { return nil, errors.New("no such file") }

	v := NewPolicyValidator(store, nil, broken, nil)

	result, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	singleReason(t, result, ReasonPolicyConfigMissing)
}

func TestValidateBelowMinimumSuggestsElastic(t *testing.T) {
	store := newMemBookingStore(confirmedBooking("b1", 2, 52.52, 13.41))
	events := &stubPublisher{}

	v := NewPolicyValidator(store, nil, staticPolicy(testPolicy()), events)

	result, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	singleReason(t, result, ReasonBelowMinParticipants)
	if result.Participants != 2 || result.MinRequired != 4 {
		t.Fatalf("participants=%d min=%d, want 2/4", result.Participants, result.MinRequired)
	}
	if !result.ElasticSuggested {
		t.Fatal("expected elastic vehicle suggestion below trigger threshold")
	}

	if len(events.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(events.events))
	}
	if events.events[0].OK || events.events[0].Reasons[0] != ReasonBelowMinParticipants {
		t.Fatalf("published event mismatch: %+v", events.events[0])
	}
}

func TestValidateEligibleCohort(t *testing.T) {
	store := newMemBookingStore(
		confirmedBooking("b1", 2, 52.521918, 13.413215),
		confirmedBooking("b2", 3, 52.503141, 13.327527),
	)
	events := &stubPublisher{}

	v := NewPolicyValidator(store, nil, staticPolicy(testPolicy()), events)

	result, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.OK {
		t.Fatalf("expected eligible cohort, got reasons %v", result.Reasons)
	}
	if result.Participants != 5 {
		t.Fatalf("participants = %d, want 5", result.Participants)
	}
	if len(events.events) != 1 || !events.events[0].OK {
		t.Fatalf("expected one ok event, got %+v", events.events)
	}
}

func TestValidateCohortIgnoresUnconfirmed(t *testing.T) {
	pending := confirmedBooking("b3", 10, 52.52, 13.41)
	pending.Status = domain.BookingPending

	store := newMemBookingStore(confirmedBooking("b1", 2, 52.52, 13.41), pending)

	v := NewPolicyValidator(store, nil, staticPolicy(testPolicy()), nil)

	result, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Participants != 2 {
		t.Fatalf("participants = %d, want 2 (pending booking must not count)", result.Participants)
	}
}

func TestValidateMissingCoordinatesFallbackDisabled(t *testing.T) {
	b := confirmedBooking("b1", 4, 0, 0)
	b.Lat, b.Lon = nil, nil

	cfg := testPolicy()
	cfg.PickupPolicy.GeolocationFallback = false

	v := NewPolicyValidator(newMemBookingStore(b), nil, staticPolicy(cfg), nil)

	result, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	singleReason(t, result, ReasonMissingCoordinates)
}

func TestValidateGeocodeKeyMissing(t *testing.T) {
	b := confirmedBooking("b1", 4, 0, 0)
	b.Lat, b.Lon = nil, nil

	// Fallback enabled but no geocoder wired.
	v := NewPolicyValidator(newMemBookingStore(b), nil, staticPolicy(testPolicy()), nil)

	result, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	singleReason(t, result, ReasonGeocodeKeyMissing)
}

func TestValidateGeocodeRepairsCoordinates(t *testing.T) {
	b := confirmedBooking("b1", 4, 0, 0)
	b.Lat, b.Lon = nil, nil
	b.PickupAddress = "Alexanderplatz 1, Berlin"

	store := newMemBookingStore(b)
	geocoder := &stubGeocoder{results: map[string]*ports.GeocodeResult{
		"Alexanderplatz 1, Berlin": {
			Coords:           domain.Coordinates{Lat: 52.521918, Lon: 13.413215},
			FormattedAddress: "Alexanderplatz 1, 10178 Berlin, Germany",
		},
	}}

	v := NewPolicyValidator(store, geocoder, staticPolicy(testPolicy()), nil)

	result, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected ok after geocode repair, got %v", result.Reasons)
	}

	repaired, _ := store.GetByID(context.Background(), "b1")
	if repaired.Lat == nil || *repaired.Lat != 52.521918 {
		t.Fatalf("coordinates not persisted: %+v", repaired)
	}
	if repaired.PickupAddress != "Alexanderplatz 1, 10178 Berlin, Germany" {
		t.Fatalf("formatted address not persisted: %q", repaired.PickupAddress)
	}
}

func TestValidateGeocodeUnresolved(t *testing.T) {
	b := confirmedBooking("b1", 4, 0, 0)
	b.Lat, b.Lon = nil, nil

	geocoder := &stubGeocoder{results: map[string]*ports.GeocodeResult{}}

	v := NewPolicyValidator(newMemBookingStore(b), geocoder, staticPolicy(testPolicy()), nil)

	result, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	singleReason(t, result, ReasonGeocodePartialMissing)
}

func TestValidatePickupSpreadExceeded(t *testing.T) {
	// Berlin and Hamburg, roughly 255 km apart.
	store := newMemBookingStore(
		confirmedBooking("b1", 2, 52.520008, 13.404954),
		confirmedBooking("b2", 2, 53.551086, 9.993682),
	)

	v := NewPolicyValidator(store, nil, staticPolicy(testPolicy()), nil)

	result, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	singleReason(t, result, ReasonPickupDistanceExceeded)
}

func TestValidatePickupSpreadUsesNearestNeighbor(t *testing.T) {
	// Three points on a line, each ~11 km from its neighbor. The ends are
	// ~22 km apart, over the limit, but every point's nearest neighbor is
	// within it, so the nearest-neighbor spread passes.
	cfg := testPolicy()
	cfg.TripExecution.MaxPickupDistanceKm = 15

	store := newMemBookingStore(
		confirmedBooking("b1", 2, 52.50, 13.40),
		confirmedBooking("b2", 2, 52.60, 13.40),
		confirmedBooking("b3", 2, 52.70, 13.40),
	)

	v := NewPolicyValidator(store, nil, staticPolicy(cfg), nil)

	result, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Fatalf("chain of close neighbors should pass, got %v", result.Reasons)
	}
}

func TestValidatePickupTimeSpreadExceeded(t *testing.T) {
	b1 := confirmedBooking("b1", 2, 52.52, 13.41)
	b2 := confirmedBooking("b2", 2, 52.53, 13.42)

	early := time.Date(2026, 9, 12, 7, 30, 0, 0, time.UTC)
	late := early.Add(60 * time.Minute)
	b1.PickupETA = &early
	b2.PickupETA = &late

	v := NewPolicyValidator(newMemBookingStore(b1, b2), nil, staticPolicy(testPolicy()), nil)

	result, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	singleReason(t, result, ReasonPickupTimeDiffExceeded)
}

func TestValidateIsDeterministic(t *testing.T) {
	store := newMemBookingStore(
		confirmedBooking("b1", 2, 52.521918, 13.413215),
		confirmedBooking("b2", 3, 52.503141, 13.327527),
	)
	v := NewPolicyValidator(store, nil, staticPolicy(testPolicy()), nil)

	first, err := v.Validate(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := v.Validate(context.Background(), "b1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.OK != first.OK || len(again.Reasons) != len(first.Reasons) {
			t.Fatalf("run %d diverged: %+v vs %+v", i, again, first)
		}
	}
}
