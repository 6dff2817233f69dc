package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

type partnerSeed struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type routeSeed struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	DepartureAt   time.Time `json:"departure_at"`
	BufferMinutes int       `json:"buffer_minutes"`
	Locked        bool      `json:"locked"`
	IsTest        bool      `json:"is_test"`
}

type bookingSeed struct {
	ID             string   `json:"id"`
	TripID         string   `json:"trip_id"`
	Date           string   `json:"date"`
	Seats          int      `json:"seats"`
	PickupAddress  string   `json:"pickup_address"`
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
	Status         string   `json:"status"`
	PartnerID      *string  `json:"partner_id"`
	TripTitle      string   `json:"trip_title"`
	DropoffAddress string   `json:"dropoff_address"`
	CustomerName   string   `json:"customer_name"`
	CustomerPhone  string   `json:"customer_phone"`
	Luggage        string   `json:"luggage"`
}

type seedFile struct {
	Partners []partnerSeed `json:"partners"`
	Routes   []routeSeed   `json:"routes"`
	Bookings []bookingSeed `json:"bookings"`
}

// loadSeedFile reads and sanity-checks the demo seed document.
func loadSeedFile(jsonPath string) (*seedFile, error) {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("seed: parse json: %w", err)
	}

	for i, b := range data.Bookings {
		if strings.TrimSpace(b.ID) == "" {
			return nil, fmt.Errorf("seed: booking at index %d has empty id", i)
		}
		if strings.TrimSpace(b.TripID) == "" || strings.TrimSpace(b.Date) == "" {
			return nil, fmt.Errorf("seed: booking %q missing trip_id or date", b.ID)
		}
		if b.Seats <= 0 {
			return nil, fmt.Errorf("seed: booking %q has invalid seats: %d", b.ID, b.Seats)
		}
	}

	return &data, nil
}
