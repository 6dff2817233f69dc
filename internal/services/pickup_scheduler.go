package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/platform/obs"
	"trip-dispatch-service/internal/ports"
)

// ErrRouteLocked is returned when recomputation is requested on a route
// that is locked, explicitly or via the auto-lock offset. No persistence
// happens in that case.
var ErrRouteLocked = errors.New("route_locked")

// Arrival windows are at most this wide on each side of the ETA.
const maxHalfWindow = 5 * time.Minute

// PickupScheduler computes per-stop ETAs and arrival windows for a route
// and persists them back onto each booking.
//
// Within one route, ETAs form a strict sequential dependency chain (stop n
// depends on stop n-1), so computation is never parallelized. Estimator
// failures degrade to the geometric fallback inside the estimator, so
// recomputation on an unlocked route always succeeds barring store errors.
type PickupScheduler struct {
	bookings  ports.BookingStore
	routes    ports.RouteStore
	estimator *TravelTimeEstimator
	now       func() time.Time
}

func NewPickupScheduler(bookings ports.BookingStore, routes ports.RouteStore, estimator *TravelTimeEstimator) *PickupScheduler {
	return &PickupScheduler{
		bookings:  bookings,
		routes:    routes,
		estimator: estimator,
		now:       time.Now,
	}
}

// ComputeRoute schedules the given bookings in the given order against the
// route's departure anchor, persisting sequence, ETA and window per stop.
//
// The first stop's ETA equals the anchor; each subsequent ETA adds travel
// time plus the route's inter-stop buffer.
func (s *PickupScheduler) ComputeRoute(ctx context.Context, routeID string, orderedStopIDs []string) (_ []domain.ScheduledStop, err error) {
	defer obs.Time(ctx, "scheduler.ComputeRoute")(&err)

	route, err := s.routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("compute route: load route %q: %w", routeID, err)
	}

	if route.LockedAt(s.now()) {
		return nil, ErrRouteLocked
	}

	stops := make([]*domain.Booking, 0, len(orderedStopIDs))
	for _, id := range orderedStopIDs {
		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("compute route: load stop %q: %w", id, err)
		}
		stops = append(stops, b)
	}

	scheduled := s.schedule(ctx, route, stops)

	for _, st := range scheduled {
		if err := s.bookings.UpdateSchedule(ctx, st.BookingID, route.ID, st.Order, st.ETA, st.WindowStart, st.WindowEnd); err != nil {
			return nil, fmt.Errorf("compute route: persist stop %q: %w", st.BookingID, err)
		}
	}

	return scheduled, nil
}

// Reorder recomputes the route with an operator-specified order without
// touching route metadata. The anchor time stays fixed; only stop sequence
// and derived ETAs change.
func (s *PickupScheduler) Reorder(ctx context.Context, routeID string, newOrder []string) ([]domain.ScheduledStop, error) {
	seen := make(map[string]struct{}, len(newOrder))
	for _, id := range newOrder {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("reorder: duplicate stop id %q", id)
		}
		seen[id] = struct{}{}
	}

	return s.ComputeRoute(ctx, routeID, newOrder)
}

// Optimize orders the stops greedily by estimated travel time before
// computing the schedule. With no routing provider configured the estimator
// falls back to haversine durations, which degrades this to the simple
// sequential-by-proximity ordering.
func (s *PickupScheduler) Optimize(ctx context.Context, routeID string, stopIDs []string) ([]domain.ScheduledStop, error) {
	stops := make([]*domain.Booking, 0, len(stopIDs))
	for _, id := range stopIDs {
		b, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("optimize route: load stop %q: %w", id, err)
		}
		stops = append(stops, b)
	}

	ordered := s.orderByProximity(ctx, stops)

	return s.ComputeRoute(ctx, routeID, ordered)
}

// schedule walks the ordered stops accumulating travel time and buffer.
func (s *PickupScheduler) schedule(ctx context.Context, route *domain.Route, stops []*domain.Booking) []domain.ScheduledStop {
	buffer := time.Duration(route.BufferMinutes) * time.Minute

	halfWindow := buffer / 2
	if halfWindow > maxHalfWindow {
		halfWindow = maxHalfWindow
	}

	currentTime := route.DepartureAt
	scheduled := make([]domain.ScheduledStop, 0, len(stops))

	var prev *domain.Booking
	for i, b := range stops {
		if i > 0 {
			travel := s.estimator.EstimateSeconds(ctx, prev.Coordinates(), b.Coordinates())
			currentTime = currentTime.Add(time.Duration(travel)*time.Second + buffer)
		}

		scheduled = append(scheduled, domain.ScheduledStop{
			BookingID:   b.ID,
			Order:       i + 1,
			ETA:         currentTime,
			WindowStart: currentTime.Add(-halfWindow),
			WindowEnd:   currentTime.Add(halfWindow),
			Address:     b.PickupAddress,
			Coords:      b.Coordinates(),
		})

		prev = b
	}

	return scheduled
}

// orderByProximity greedily picks the nearest unvisited stop by estimated
// travel time, starting from the first stop in the slice. Ties break on
// booking id for deterministic output.
func (s *PickupScheduler) orderByProximity(ctx context.Context, stops []*domain.Booking) []string {
	if len(stops) == 0 {
		return []string{}
	}

	remaining := make(map[string]*domain.Booking, len(stops))
	for _, b := range stops[1:] {
		remaining[b.ID] = b
	}

	ordered := []string{stops[0].ID}
	current := stops[0]

	for len(remaining) > 0 {
		var best *domain.Booking
		minSeconds := math.MaxInt

		for _, candidate := range remaining {
			seconds := s.estimator.EstimateSeconds(ctx, current.Coordinates(), candidate.Coordinates())
			if seconds < minSeconds || (seconds == minSeconds && (best == nil || candidate.ID < best.ID)) {
				minSeconds = seconds
				best = candidate
			}
		}

		ordered = append(ordered, best.ID)
		delete(remaining, best.ID)
		current = best
	}

	return ordered
}
