package domain

import "time"

// BookingStatus tracks a booking through the dispatch pipeline.
type BookingStatus string

const (
	BookingPending           BookingStatus = "pending"
	BookingConfirmed         BookingStatus = "confirmed"
	BookingDispatchedPending BookingStatus = "dispatched-pending"
	BookingDispatchedSuccess BookingStatus = "dispatched-success"
	BookingDispatchedError   BookingStatus = "dispatched-error"
	BookingCancelled         BookingStatus = "cancelled"
)

// Represents a single passenger/party pickup request.
//
// Coordinates, sequence and ETA fields are nullable: they are populated
// only after geocoding and scheduling have run. If RouteID is set,
// SeqNo must be unique within that route, and whenever all three of
// WindowStart/PickupETA/WindowEnd are present the ETA lies inside the window.
type Booking struct {
	ID            string
	TripID        string
	Date          string // calendar date, YYYY-MM-DD
	Seats         int
	PickupAddress string
	Lat           *float64
	Lon           *float64
	RouteID       *string
	SeqNo         *int
	PickupETA     *time.Time
	WindowStart   *time.Time
	WindowEnd     *time.Time
	Status        BookingStatus
	PartnerID     *string

	// Free-form trip metadata carried through to the dispatch payload.
	TripTitle      string
	DropoffAddress string
	CustomerName   string
	CustomerPhone  string
	Luggage        string
}

// Coordinates returns the pickup point, or nil when either component is missing.
func (b *Booking) Coordinates() *Coordinates {
	if b.Lat == nil || b.Lon == nil {
		return nil
	}
	return &Coordinates{Lat: *b.Lat, Lon: *b.Lon}
}
