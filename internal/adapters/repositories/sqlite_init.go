package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// InitSqliteSchema initializes the embedded SQLite database schema.
func InitSqliteSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createBookingsQuery := `
	CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL,
		date TEXT NOT NULL,
		seats INTEGER NOT NULL,
		pickup_address TEXT NOT NULL DEFAULT '',
		lat REAL,
		lon REAL,
		route_id TEXT,
		seq_no INTEGER,
		pickup_eta INTEGER,
		window_start INTEGER,
		window_end INTEGER,
		status TEXT NOT NULL DEFAULT 'pending',
		partner_id TEXT,
		trip_title TEXT NOT NULL DEFAULT '',
		dropoff_address TEXT NOT NULL DEFAULT '',
		customer_name TEXT NOT NULL DEFAULT '',
		customer_phone TEXT NOT NULL DEFAULT '',
		luggage TEXT NOT NULL DEFAULT ''
	);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		departure_at INTEGER NOT NULL,
		buffer_minutes INTEGER NOT NULL DEFAULT 0,
		locked INTEGER NOT NULL DEFAULT 0,
		is_test INTEGER NOT NULL DEFAULT 0
	);
	`

	createPartnersQuery := `
	CREATE TABLE IF NOT EXISTS partners (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT ''
	);
	`

	createDispatchLogsQuery := `
	CREATE TABLE IF NOT EXISTS dispatch_logs (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL,
		partner_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		last_response TEXT NOT NULL DEFAULT '',
		payload TEXT NOT NULL DEFAULT '',
		sent_by TEXT NOT NULL DEFAULT '',
		attempts INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		last_attempt_at INTEGER
	);
	`

	createCohortIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_bookings_trip_date
	ON bookings(trip_id, date);
	`

	createDispatchIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_dispatch_logs_booking_partner
	ON dispatch_logs(booking_id, partner_id, status);
	`

	statements := []string{
		createBookingsQuery,
		createRoutesQuery,
		createPartnersQuery,
		createDispatchLogsQuery,
		createCohortIndexQuery,
		createDispatchIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// SeedSqliteFromJSON populates the database with demo data from a JSON file.
func SeedSqliteFromJSON(db *sql.DB, jsonPath string) error {
	data, err := loadSeedFile(jsonPath)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range data.Partners {
		_, err := tx.Exec(`
		INSERT OR REPLACE INTO partners (id, name, email, phone)
		VALUES (?, ?, ?, ?);`,
			p.ID, p.Name, p.Email, p.Phone)
		if err != nil {
			return fmt.Errorf("seed: insert partner %q: %w", p.ID, err)
		}
	}

	for _, r := range data.Routes {
		_, err := tx.Exec(`
		INSERT OR REPLACE INTO routes (id, title, departure_at, buffer_minutes, locked, is_test)
		VALUES (?, ?, ?, ?, ?, ?);`,
			r.ID, r.Title, r.DepartureAt.Unix(), r.BufferMinutes, boolToInt(r.Locked), boolToInt(r.IsTest))
		if err != nil {
			return fmt.Errorf("seed: insert route %q: %w", r.ID, err)
		}
	}

	for _, b := range data.Bookings {
		status := b.Status
		if status == "" {
			status = "confirmed"
		}
		_, err := tx.Exec(`
		INSERT OR REPLACE INTO bookings (
			id, trip_id, date, seats, pickup_address, lat, lon, status, partner_id,
			trip_title, dropoff_address, customer_name, customer_phone, luggage
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			b.ID, b.TripID, b.Date, b.Seats, b.PickupAddress, b.Lat, b.Lon, status, b.PartnerID,
			b.TripTitle, b.DropoffAddress, b.CustomerName, b.CustomerPhone, b.Luggage)
		if err != nil {
			return fmt.Errorf("seed: insert booking %q: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
