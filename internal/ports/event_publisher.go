package ports

import "context"

// PolicyEvent is broadcast after every policy evaluation: either a pass
// confirmation or the list of violation codes.
type PolicyEvent struct {
	BookingID    string   `json:"booking_id"`
	TripID       string   `json:"trip_id"`
	Date         string   `json:"date"`
	OK           bool     `json:"ok"`
	Reasons      []string `json:"reasons,omitempty"`
	Participants int      `json:"participants"`
}

// Contract for broadcasting events to an external real-time observer channel.
//
// Publish is fire-and-forget: implementations log failures and never block
// or propagate errors into core logic.
type EventPublisher interface {
	Publish(ctx context.Context, event PolicyEvent)
}
