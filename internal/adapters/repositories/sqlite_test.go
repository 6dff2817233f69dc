package repositories

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/platform/db"
	"trip-dispatch-service/internal/ports"
)

const testSeed = `{
  "partners": [
    {"id": "p1", "name": "Nordkap Shuttle", "email": "ops@nordkap.example", "phone": "+49 30 1"}
  ],
  "routes": [
    {"id": "r1", "title": "Morning Pickup", "departure_at": "2026-09-12T08:00:00Z", "buffer_minutes": 6}
  ],
  "bookings": [
    {"id": "b1", "trip_id": "t1", "date": "2026-09-12", "seats": 2,
     "pickup_address": "Alexanderplatz 1", "lat": 52.521918, "lon": 13.413215,
     "status": "confirmed", "partner_id": "p1", "trip_title": "Berlin Lakes"},
    {"id": "b2", "trip_id": "t1", "date": "2026-09-12", "seats": 3,
     "pickup_address": "Kudamm 21", "lat": null, "lon": null, "partner_id": null},
    {"id": "b3", "trip_id": "t1", "date": "2026-09-12", "seats": 1,
     "pickup_address": "Hauptbahnhof", "status": "cancelled"}
  ]
}`

func openSeededDB(t *testing.T) *sql.DB {
	t.Helper()

	dir := t.TempDir()

	seedPath := filepath.Join(dir, "seed.json")
	if err := os.WriteFile(seedPath, []byte(testSeed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	sqlDB, err := db.OpenSQLite(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := InitSqliteSchema(sqlDB); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	if err := SeedSqliteFromJSON(sqlDB, seedPath); err != nil {
		t.Fatalf("seed: %v", err)
	}

	return sqlDB
}

func TestSqliteBookingStore(t *testing.T) {
	store := NewSqliteBookingStore(openSeededDB(t))
	ctx := context.Background()

	b, err := store.GetByID(ctx, "b1")
	if err != nil {
		t.Fatalf("get b1: %v", err)
	}
	if b.Seats != 2 || b.PickupAddress != "Alexanderplatz 1" {
		t.Fatalf("b1 = %+v", b)
	}
	if b.Lat == nil || *b.Lat != 52.521918 {
		t.Fatalf("b1 lat = %v", b.Lat)
	}
	if b.PartnerID == nil || *b.PartnerID != "p1" {
		t.Fatalf("b1 partner = %v", b.PartnerID)
	}

	if _, err := store.GetByID(ctx, "ghost"); !errors.Is(err, ports.ErrBookingNotFound) {
		t.Fatalf("missing booking err = %v, want ErrBookingNotFound", err)
	}

	// b2 defaults to confirmed in the seed; cancelled b3 stays out.
	cohort, err := store.GetCohort(ctx, "t1", "2026-09-12")
	if err != nil {
		t.Fatalf("get cohort: %v", err)
	}
	if len(cohort) != 2 || cohort[0].ID != "b1" || cohort[1].ID != "b2" {
		ids := make([]string, 0, len(cohort))
		for _, c := range cohort {
			ids = append(ids, c.ID)
		}
		t.Fatalf("cohort = %v, want [b1 b2]", ids)
	}
	if cohort[1].Lat != nil {
		t.Fatalf("b2 lat should be null, got %v", *cohort[1].Lat)
	}

	if err := store.UpdateCoordinates(ctx, "b2", 52.503141, 13.327527, "Kurfürstendamm 21, Berlin"); err != nil {
		t.Fatalf("update coordinates: %v", err)
	}
	b2, _ := store.GetByID(ctx, "b2")
	if b2.Lat == nil || *b2.Lat != 52.503141 || b2.PickupAddress != "Kurfürstendamm 21, Berlin" {
		t.Fatalf("b2 after repair = %+v", b2)
	}

	eta := time.Date(2026, 9, 12, 8, 16, 0, 0, time.UTC)
	if err := store.UpdateSchedule(ctx, "b2", "r1", 2, eta, eta.Add(-3*time.Minute), eta.Add(3*time.Minute)); err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	b2, _ = store.GetByID(ctx, "b2")
	if b2.RouteID == nil || *b2.RouteID != "r1" || b2.SeqNo == nil || *b2.SeqNo != 2 {
		t.Fatalf("b2 schedule = %+v", b2)
	}
	if b2.PickupETA == nil || !b2.PickupETA.Equal(eta) {
		t.Fatalf("b2 eta = %v, want %v", b2.PickupETA, eta)
	}

	if err := store.UpdateStatus(ctx, "b2", domain.BookingDispatchedPending); err != nil {
		t.Fatalf("update status: %v", err)
	}
	b2, _ = store.GetByID(ctx, "b2")
	if b2.Status != domain.BookingDispatchedPending {
		t.Fatalf("b2 status = %q", b2.Status)
	}

	if err := store.UpdateStatus(ctx, "ghost", domain.BookingCancelled); !errors.Is(err, ports.ErrBookingNotFound) {
		t.Fatalf("update missing booking err = %v, want ErrBookingNotFound", err)
	}
}

func TestSqliteRouteAndPartnerStores(t *testing.T) {
	sqlDB := openSeededDB(t)
	ctx := context.Background()

	route, err := NewSqliteRouteStore(sqlDB).GetByID(ctx, "r1")
	if err != nil {
		t.Fatalf("get route: %v", err)
	}
	want := time.Date(2026, 9, 12, 8, 0, 0, 0, time.UTC)
	if !route.DepartureAt.Equal(want) || route.BufferMinutes != 6 || route.Locked {
		t.Fatalf("route = %+v", route)
	}

	if _, err := NewSqliteRouteStore(sqlDB).GetByID(ctx, "ghost"); !errors.Is(err, ports.ErrRouteNotFound) {
		t.Fatalf("missing route err = %v", err)
	}

	partner, err := NewSqlitePartnerStore(sqlDB).GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("get partner: %v", err)
	}
	if partner.Email != "ops@nordkap.example" {
		t.Fatalf("partner = %+v", partner)
	}

	if _, err := NewSqlitePartnerStore(sqlDB).GetByID(ctx, "ghost"); !errors.Is(err, ports.ErrPartnerNotFound) {
		t.Fatalf("missing partner err = %v", err)
	}
}

func TestSqliteDispatchLogStore(t *testing.T) {
	store := NewSqliteDispatchLogStore(openSeededDB(t))
	ctx := context.Background()

	if prior, err := store.FindSuccess(ctx, "b1", "p1"); err != nil || prior != nil {
		t.Fatalf("empty table FindSuccess = (%v, %v), want (nil, nil)", prior, err)
	}

	created := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	entry := &domain.DispatchLog{
		ID:        "log-1",
		BookingID: "b1",
		PartnerID: "p1",
		Status:    domain.DispatchPending,
		Payload:   `{"trip_title":"Berlin Lakes"}`,
		SentBy:    "operator@example",
		CreatedAt: created,
	}
	if err := store.Create(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Pending entries never satisfy the idempotency probe.
	if prior, _ := store.FindSuccess(ctx, "b1", "p1"); prior != nil {
		t.Fatalf("pending entry must not count as success: %+v", prior)
	}

	attemptAt := created.Add(time.Minute)
	entry.Status = domain.DispatchSuccess
	entry.LastResponse = "msg-ref-001"
	entry.Attempts = 2
	entry.LastAttemptAt = &attemptAt
	if err := store.Update(ctx, entry); err != nil {
		t.Fatalf("update: %v", err)
	}

	prior, err := store.FindSuccess(ctx, "b1", "p1")
	if err != nil {
		t.Fatalf("find success: %v", err)
	}
	if prior == nil || prior.ID != "log-1" {
		t.Fatalf("prior = %+v, want log-1", prior)
	}
	if prior.Attempts != 2 || prior.LastResponse != "msg-ref-001" || prior.SentBy != "operator@example" {
		t.Fatalf("prior fields = %+v", prior)
	}
	if prior.LastAttemptAt == nil || !prior.LastAttemptAt.Equal(attemptAt) {
		t.Fatalf("last attempt at = %v, want %v", prior.LastAttemptAt, attemptAt)
	}
	if !prior.CreatedAt.Equal(created) {
		t.Fatalf("created at = %v, want %v", prior.CreatedAt, created)
	}

	if prior, _ := store.FindSuccess(ctx, "b1", "other"); prior != nil {
		t.Fatalf("different partner must not match: %+v", prior)
	}
}
