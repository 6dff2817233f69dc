package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trip-dispatch-service/internal/domain"
	"trip-dispatch-service/internal/ports"
)

// Postgres-backed implementation of the RouteStore port.
type PostgresRouteStore struct{ DB *sql.DB }

func NewPostgresRouteStore(db *sql.DB) *PostgresRouteStore {
	return &PostgresRouteStore{DB: db}
}

func (s *PostgresRouteStore) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	q := `
	SELECT id, title, departure_at, buffer_minutes, locked, is_test
	FROM routes
	WHERE id = $1;`

	var r domain.Route
	err := s.DB.QueryRowContext(ctx, q, id).Scan(
		&r.ID, &r.Title, &r.DepartureAt, &r.BufferMinutes, &r.Locked, &r.IsTest,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrRouteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get route %q: %w", id, err)
	}

	return &r, nil
}

// Postgres-backed implementation of the PartnerStore port.
type PostgresPartnerStore struct{ DB *sql.DB }

func NewPostgresPartnerStore(db *sql.DB) *PostgresPartnerStore {
	return &PostgresPartnerStore{DB: db}
}

func (s *PostgresPartnerStore) GetByID(ctx context.Context, id string) (*domain.Partner, error) {
	q := `SELECT id, name, email, phone FROM partners WHERE id = $1;`

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
