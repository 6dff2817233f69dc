package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// PolicyConfig holds the declarative dispatch-eligibility thresholds.
//
// It is loaded once per validation call and immutable for that call's
// duration; concurrent validations may observe different documents if the
// file changes between loads (no transactional snapshot is guaranteed).
type PolicyConfig struct {
	TripExecution struct {
		MinParticipants                int     `json:"min_participants" validate:"gte=0"`
		MaxParticipants                int     `json:"max_participants" validate:"gtefield=MinParticipants"`
		MaxPickupDistanceKm            float64 `json:"max_pickup_distance_km" validate:"gt=0"`
		MaxPickupTimeDifferenceMinutes float64 `json:"max_pickup_time_difference_minutes" validate:"gte=0"`
		ElasticVehicleSelection        bool    `json:"elastic_vehicle_selection"`
		ElasticModeTrigger             struct {
			Threshold int `json:"threshold" validate:"gte=0"`
		} `json:"elastic_mode_trigger"`
	} `json:"trip_execution"`

	PickupPolicy struct {
		RequireCoordinates  bool `json:"require_coordinates"`
		GeolocationFallback bool `json:"geolocation_fallback"`
	} `json:"pickup_policy"`
}

var policyValidate = validator.New()

// LoadPolicy reads and validates the policy document at path.
func LoadPolicy(path string) (*PolicyConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load policy: read %q: %w", path, err)
	}

	var cfg PolicyConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("load policy: parse json: %w", err)
	}

	if err := policyValidate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("load policy: validate: %w", err)
	}

	return &cfg, nil
}

// PolicySource yields the current policy configuration for one evaluation.
type PolicySource func() (*PolicyConfig, error)

// FilePolicySource returns a PolicySource that re-reads path on every call.
func FilePolicySource(path string) PolicySource {
	return func() (*PolicyConfig, error) { return LoadPolicy(path) }
}
