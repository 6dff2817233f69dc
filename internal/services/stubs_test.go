package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/ports"
)

// In-memory test doubles for the store and provider ports.

type memBookingStore struct {
	mu       sync.Mutex
	bookings map[string]*domain.Booking

	scheduleWrites int
}

func newMemBookingStore(bookings ...*domain.Booking) *memBookingStore {
	s := &memBookingStore{bookings: make(map[string]*domain.Booking)}
	for _, b := range bookings {
		s.bookings[b.ID] = b
	}
	return s
}

func (s *memBookingStore) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, ports.ErrBookingNotFound
	}
	return b, nil
}

func (s *memBookingStore) GetCohort(_ context.Context, tripID, date string) ([]*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cohort := make([]*domain.Booking, 0)
	for _, b := range s.bookings {
		if b.TripID == tripID && b.Date == date && b.Status == domain.BookingConfirmed {
			cohort = append(cohort, b)
		}
	}
	sort.Slice(cohort, func(i, j int) bool { return cohort[i].ID < cohort[j].ID })
	return cohort, nil
}

func (s *memBookingStore) UpdateCoordinates(_ context.Context, id string, lat, lon float64, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return ports.ErrBookingNotFound
	}
	b.Lat, b.Lon = &lat, &lon
	if address != "" {
		b.PickupAddress = address
	}
	return nil
}

func (s *memBookingStore) UpdateSchedule(_ context.Context, id, routeID string, order int, eta, windowStart, windowEnd time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return ports.ErrBookingNotFound
	}
	b.RouteID = &routeID
	b.SeqNo = &order
	b.PickupETA = &eta
	b.WindowStart = &windowStart
	b.WindowEnd = &windowEnd
	s.scheduleWrites++
	return nil
}

func (s *memBookingStore) UpdateStatus(_ context.Context, id string, status domain.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return ports.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (s *memBookingStore) status(id string) domain.BookingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id].Status
}

type memRouteStore struct {
	routes map[string]*domain.Route
}

func newMemRouteStore(routes ...*domain.Route) *memRouteStore {
	s := &memRouteStore{routes: make(map[string]*domain.Route)}
	for _, r := range routes {
		s.routes[r.ID] = r
	}
	return s
}

func (s *memRouteStore) GetByID(_ context.Context, id string) (*domain.Route, error) {
	r, ok := s.routes[id]
	if !ok {
		return nil, ports.ErrRouteNotFound
	}
	return r, nil
}

type memPartnerStore struct {
	partners map[string]*domain.Partner
}

func newMemPartnerStore(partners ...*domain.Partner) *memPartnerStore {
	s := &memPartnerStore{partners: make(map[string]*domain.Partner)}
	for _, p := range partners {
		s.partners[p.ID] = p
	}
	return s
}

func (s *memPartnerStore) GetByID(_ context.Context, id string) (*domain.Partner, error) {
	p, ok := s.partners[id]
	if !ok {
		return nil, ports.ErrPartnerNotFound
	}
	return p, nil
}

type memDispatchLogStore struct {
	mu      sync.Mutex
	entries map[string]domain.DispatchLog
}

func newMemDispatchLogStore() *memDispatchLogStore {
	return &memDispatchLogStore{entries: make(map[string]domain.DispatchLog)}
}

func (s *memDispatchLogStore) Create(_ context.Context, entry *domain.DispatchLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	return nil
}

func (s *memDispatchLogStore) Update(_ context.Context, entry *domain.DispatchLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.ID]; !ok {
		return errors.New("dispatch log entry not found")
	}
	s.entries[entry.ID] = *entry
	return nil
}

func (s *memDispatchLogStore) FindSuccess(_ context.Context, bookingID, partnerID string) (*domain.DispatchLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *domain.DispatchLog
	for id := range s.entries {
		entry := s.entries[id]
		if entry.BookingID != bookingID || entry.PartnerID != partnerID || entry.Status != domain.DispatchSuccess {
			continue
		}
		if latest == nil || entry.CreatedAt.After(latest.CreatedAt) {
			e := entry
			latest = &e
		}
	}
	return latest, nil
}

func (s *memDispatchLogStore) get(id string) domain.DispatchLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[id]
}

func (s *memDispatchLogStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// stubTravelProvider returns a constant duration for every pair and counts calls.
type stubTravelProvider struct {
	seconds int
	err     error
	calls   int
}

func (p *stubTravelProvider) TravelSeconds(_ context.Context, _, _ domain.Coordinates) (int, error) {
	p.calls++
	if p.err != nil {
		return 0, p.err
	}
	return p.seconds, nil
}

// stubGeocoder resolves addresses from a fixed table; unknown addresses
// return (nil, nil) like the real adapter.
type stubGeocoder struct {
	results map[string]*ports.GeocodeResult
}

func (g *stubGeocoder) Forward(_ context.Context, address string) (*ports.GeocodeResult, error) {
	return g.results[address], nil
}

// stubNotifier fails the first failures sends, then succeeds.
type stubNotifier struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (n *stubNotifier) Send(_ context.Context, _ domain.NotificationPayload) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls++
	if n.calls <= n.failures {
		return "", errors.New("mail api unavailable")
	}
	return "msg-ref-001", nil
}

func (n *stubNotifier) sendCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

type stubPublisher struct {
	events []ports.PolicyEvent
}

func (p *stubPublisher) Publish(_ context.Context, event ports.PolicyEvent) {
	p.events = append(p.events, event)
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }
