package domain

import "time"

// DispatchStatus tracks one notification attempt series.
type DispatchStatus string

const (
	DispatchPending DispatchStatus = "pending"
	DispatchSuccess DispatchStatus = "success"
	DispatchError   DispatchStatus = "error"
)

// One attempt series to notify a provider about one booking.
//
// For a given (booking, partner) pair, any entry with status success makes
// later non-override dispatch requests no-ops. Entries are updated in place
// on every retry attempt and never deleted.
type DispatchLog struct {
	ID            string
	BookingID     string
	PartnerID     string
	Status        DispatchStatus
	LastResponse  string
	Payload       string // serialized NotificationPayload
	SentBy        string
	Attempts      int
	CreatedAt     time.Time
	LastAttemptAt *time.Time
}
