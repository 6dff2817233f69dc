package domain

import "time"

// AutoLockOffset is how long before the departure anchor a route
// becomes immutable, even without an explicit operator lock.
const AutoLockOffset = 24 * time.Hour

// Represents a named collection of pickup stops sharing one departure anchor.
type Route struct {
	ID            string
	Title         string
	DepartureAt   time.Time
	BufferMinutes int
	Locked        bool
	IsTest        bool
}

// LockedAt reports whether the route is immutable at the given instant,
// either via the explicit flag or the fixed auto-lock offset before departure.
func (r *Route) LockedAt(now time.Time) bool {
	if r.Locked {
		return true
	}
	return !now.Before(r.DepartureAt.Add(-AutoLockOffset))
}

// Represents a single scheduled stop in a computed pickup route.
// A ScheduledStop is pure planning output; persistence happens separately.
type ScheduledStop struct {
	BookingID   string
	Order       int // 1-based sequence position
	ETA         time.Time
	WindowStart time.Time
	WindowEnd   time.Time
	Address     string
	Coords      *Coordinates
}
