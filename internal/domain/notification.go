package domain

import (
	"fmt"
	"time"
)

// Placeholder used for any payload field the booking does not carry.
const notAvailable = "N/A"

// NotificationPayload is the document sent to a transport provider when a
// booking is dispatched. Every field is always populated; defaulting for
// absent booking metadata is centralized in NewNotificationPayload.
type NotificationPayload struct {
	TripTitle     string `json:"trip_title"`
	Date          string `json:"date"`
	PickupPoint   string `json:"pickup_point"`
	PickupTime    string `json:"pickup_time"`
	Dropoff       string `json:"dropoff"`
	Seats         int    `json:"seats"`
	Luggage       string `json:"luggage"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	MapLink       string `json:"map_link"`
	PartnerID     string `json:"partner_id"`
	PartnerName   string `json:"partner_name"`
	PartnerEmail  string `json:"partner_email"`
}

// NewNotificationPayload builds a dispatch payload from a booking and its
// resolved partner, substituting "N/A" for every absent field.
func NewNotificationPayload(b *Booking, p *Partner) NotificationPayload {
	pl := NotificationPayload{
		TripTitle:     orNA(b.TripTitle),
		Date:          orNA(b.Date),
		PickupPoint:   orNA(b.PickupAddress),
		PickupTime:    notAvailable,
		Dropoff:       orNA(b.DropoffAddress),
		Seats:         b.Seats,
		Luggage:       orNA(b.Luggage),
		CustomerName:  orNA(b.CustomerName),
		CustomerPhone: orNA(b.CustomerPhone),
		MapLink:       notAvailable,
		PartnerID:     p.ID,
		PartnerName:   orNA(p.Name),
		PartnerEmail:  orNA(p.Email),
	}

	if b.PickupETA != nil {
		pl.PickupTime = b.PickupETA.Format(time.RFC3339)
	}
	if c := b.Coordinates(); c != nil {
		pl.MapLink = fmt.Sprintf("https://www.google.com/maps?q=%.6f,%.6f", c.Lat, c.Lon)
	}

	return pl
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
