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

const bookingColumns = `
	id, trip_id, date, seats, pickup_address, lat, lon,
	route_id, seq_no, pickup_eta, window_start, window_end,
	status, partner_id, trip_title, dropoff_address,
	customer_name, customer_phone, luggage`

// Postgres-backed implementation of the BookingStore port.
type PostgresBookingStore struct{ DB *sql.DB }

func NewPostgresBookingStore(db *sql.DB) *PostgresBookingStore {
	return &PostgresBookingStore{DB: db}
}

func (s *PostgresBookingStore) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1;`

	b, err := scanPGBooking(s.DB.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %q: %w", id, err)
	}

	return b, nil
}

// GetCohort returns all confirmed bookings sharing trip id and date.
func (s *PostgresBookingStore) GetCohort(ctx context.Context, tripID, date string) ([]*domain.Booking, error) {
	q := `SELECT ` + bookingColumns + `
	FROM bookings
	WHERE trip_id = $1 AND date = $2 AND status = $3
	ORDER BY id;`

	rows, err := s.DB.QueryContext(ctx, q, tripID, date, domain.BookingConfirmed)
	if err != nil {
		return nil, fmt.Errorf("get cohort: query bookings table: %w", err)
	}
	defer rows.Close()

	cohort := make([]*domain.Booking, 0, 16)
	for rows.Next() {
		b, err := scanPGBooking(rows)
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

func (s *PostgresBookingStore) UpdateCoordinates(ctx context.Context, id string, lat, lon float64, address string) error {
	q := `UPDATE bookings SET lat = $2, lon = $3, pickup_address = $4 WHERE id = $1;`

	return execExpectingRow(ctx, s.DB, q, ports.ErrBookingNotFound, id, lat, lon, address)
}

func (s *PostgresBookingStore) UpdateSchedule(ctx context.Context, id, routeID string, order int, eta, windowStart, windowEnd time.Time) error {
	q := `
	UPDATE bookings
	SET route_id = $2, seq_no = $3, pickup_eta = $4, window_start = $5, window_end = $6
	WHERE id = $1;`

	return execExpectingRow(ctx, s.DB, q, ports.ErrBookingNotFound, id, routeID, order, eta, windowStart, windowEnd)
}

func (s *PostgresBookingStore) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	q := `UPDATE bookings SET status = $2 WHERE id = $1;`

	return execExpectingRow(ctx, s.DB, q, ports.ErrBookingNotFound, id, string(status))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPGBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b          domain.Booking
		lat, lon   sql.NullFloat64
		routeID    sql.NullString
		seqNo      sql.NullInt64
		eta        sql.NullTime
		winStart   sql.NullTime
		winEnd     sql.NullTime
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
	if eta.Valid {
		b.PickupETA = &eta.Time
	}
	if winStart.Valid {
		b.WindowStart = &winStart.Time
	}
	if winEnd.Valid {
		b.WindowEnd = &winEnd.Time
	}
	if partnerID.Valid {
		b.PartnerID = &partnerID.String
	}

	return &b, nil
}

// execExpectingRow runs an UPDATE and maps "no rows touched" to notFound.
func execExpectingRow(ctx context.Context, db *sql.DB, q string, notFound error, args ...any) error {
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("exec update: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("exec update: rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}

	return nil
}
