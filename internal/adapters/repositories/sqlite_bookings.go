package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/ports"
)

// SQLite-backed implementation of the BookingStore port.
// Timestamps are stored as unix seconds; SQLite has no native time type.
type SqliteBookingStore struct{ DB *sql.DB }

func NewSqliteBookingStore(db *sql.DB) *SqliteBookingStore {
	return &SqliteBookingStore{DB: db}
}

func (s *SqliteBookingStore) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?;`

	b, err := scanSqliteBooking(s.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %q: %w", id, err)
	}

	return b, nil
}

func (s *SqliteBookingStore) GetCohort(ctx context.Context, tripID, date string) ([]*domain.Booking, error) {
	q := `SELECT ` + bookingColumns + `
	FROM bookings
	WHERE trip_id = ? AND date = ? AND status = ?
	ORDER BY id;`

	rows, err := s.DB.QueryContext(ctx, q, tripID, date, string(domain.BookingConfirmed))
	if err != nil {
		return nil, fmt.Errorf("get cohort: query bookings table: %w", err)
	}
	defer rows.Close()

	cohort := make([]*domain.Booking, 0, 16)
	for rows.Next() {
		b, err := scanSqliteBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("get cohort: scan row: %w", err)
		}
		cohort = append(cohort, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get cohort: row iteration: %w", err)
	}

	return cohort, nil
}

func (s *SqliteBookingStore) UpdateCoordinates(ctx context.Context, id string, lat, lon float64, address string) error {
	q := `UPDATE bookings SET lat = ?, lon = ?, pickup_address = ? WHERE id = ?;`

	return execExpectingRow(ctx, s.DB, q, ports.ErrBookingNotFound, lat, lon, address, id)
}

func (s *SqliteBookingStore) UpdateSchedule(ctx context.Context, id, routeID string, order int, eta, windowStart, windowEnd time.Time) error {
	q := `
	UPDATE bookings
	SET route_id = ?, seq_no = ?, pickup_eta = ?, window_start = ?, window_end = ?
	WHERE id = ?;`

	return execExpectingRow(ctx, s.DB, q, ports.ErrBookingNotFound,
		routeID, order, eta.Unix(), windowStart.Unix(), windowEnd.Unix(), id)
}

func (s *SqliteBookingStore) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	q := `UPDATE bookings SET status = ? WHERE id = ?;`

	return execExpectingRow(ctx, s.DB, q, ports.ErrBookingNotFound, string(status), id)
}

func scanSqliteBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b          domain.Booking
		lat, lon   sql.NullFloat64
		routeID    sql.NullString
		seqNo      sql.NullInt64
		eta        sql.NullInt64
		winStart   sql.NullInt64
		winEnd     sql.NullInt64
		partnerID  sql.NullString
		statusText string
	)

	err := row.Scan(
		&b.ID, &b.TripID, &b.Date, &b.Seats, &b.PickupAddress, &lat, &lon,
		&routeID, &seqNo, &eta, &winStart, &winEnd,
		&statusText, &partnerID, &b.TripTitle, &b.DropoffAddress,
		&b.CustomerName, &b.CustomerPhone, &b.Luggage,
	)
	if err != nil {
		return nil, err
	}

	b.Status = domain.BookingStatus(statusText)
	if lat.Valid && lon.Valid {
		b.Lat, b.Lon = &lat.Float64, &lon.Float64
	}
	if routeID.Valid {
		b.RouteID = &routeID.String
	}
	if seqNo.Valid {
		n := int(seqNo.Int64)
		b.SeqNo = &n
	}
	b.PickupETA = unixPtr(eta)
	b.WindowStart = unixPtr(winStart)
	b.WindowEnd = unixPtr(winEnd)
	if partnerID.Valid {
		b.PartnerID = &partnerID.String
	}

	return &b, nil
}

func unixPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
