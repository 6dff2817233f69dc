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

// SQLite-backed implementation of the RouteStore port.
type SqliteRouteStore struct{ DB *sql.DB }

func NewSqliteRouteStore(db *sql.DB) *SqliteRouteStore {
	return &SqliteRouteStore{DB: db}
}

func (s *SqliteRouteStore) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	q := `
	SELECT id, title, departure_at, buffer_minutes, locked, is_test
	FROM routes
	WHERE id = ?;`

	var (
		r              domain.Route
		departureUnix  int64
		locked, isTest int
	)
	err := s.DB.QueryRowContext(ctx, q, id).Scan(
		&r.ID, &r.Title, &departureUnix, &r.BufferMinutes, &locked, &isTest,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrRouteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get route %q: %w", id, err)
	}

	r.DepartureAt = time.Unix(departureUnix, 0).UTC()
	r.Locked = locked != 0
	r.IsTest = isTest != 0

	return &r, nil
}

// SQLite-backed implementation of the PartnerStore port.
type SqlitePartnerStore struct{ DB *sql.DB }

func NewSqlitePartnerStore(db *sql.DB) *SqlitePartnerStore {
	return &SqlitePartnerStore{DB: db}
}

func (s *SqlitePartnerStore) GetByID(ctx context.Context, id string) (*domain.Partner, error) {
	q := `SELECT id, name, email, phone FROM partners WHERE id = ?;`

	var p domain.Partner
	err := s.DB.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.Email, &p.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrPartnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get partner %q: %w", id, err)
	}

	return &p, nil
}
