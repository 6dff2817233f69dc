package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trip-dispatch-service/internal/domain"
)

// Postgres-backed implementation of the DispatchLogStore port.
type PostgresDispatchLogStore struct{ DB *sql.DB }

func NewPostgresDispatchLogStore(db *sql.DB) *PostgresDispatchLogStore {
	return &PostgresDispatchLogStore{DB: db}
}

func (s *PostgresDispatchLogStore) Create(ctx context.Context, entry *domain.DispatchLog) error {
	q := `
	INSERT INTO dispatch_logs (
		id, booking_id, partner_id, status, last_response,
		payload, sent_by, attempts, created_at, last_attempt_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	_, err := s.DB.ExecContext(ctx, q,
		entry.ID, entry.BookingID, entry.PartnerID, string(entry.Status), entry.LastResponse,
		entry.Payload, entry.SentBy, entry.Attempts, entry.CreatedAt, entry.LastAttemptAt,
	)
	if err != nil {
		return fmt.Errorf("create dispatch log %q: %w", entry.ID, err)
	}

	return nil
}

func (s *PostgresDispatchLogStore) Update(ctx context.Context, entry *domain.DispatchLog) error {
	q := `
	UPDATE dispatch_logs
	SET status = $2, last_response = $3, attempts = $4, last_attempt_at = $5
	WHERE id = $1;`

	_, err := s.DB.ExecContext(ctx, q,
		entry.ID, string(entry.Status), entry.LastResponse, entry.Attempts, entry.LastAttemptAt,
	)
	if err != nil {
		return fmt.Errorf("update dispatch log %q: %w", entry.ID, err)
	}

	return nil
}

func (s *PostgresDispatchLogStore) FindSuccess(ctx context.Context, bookingID, partnerID string) (*domain.DispatchLog, error) {
	q := `
	SELECT id, booking_id, partner_id, status, last_response,
		payload, sent_by, attempts, created_at, last_attempt_at
	FROM dispatch_logs
	WHERE booking_id = $1 AND partner_id = $2 AND status = $3
	ORDER BY created_at DESC
	LIMIT 1;`

	var (
		entry      domain.DispatchLog
		statusText string
		lastAt     sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx, q, bookingID, partnerID, string(domain.DispatchSuccess)).Scan(
		&entry.ID, &entry.BookingID, &entry.PartnerID, &statusText, &entry.LastResponse,
		&entry.Payload, &entry.SentBy, &entry.Attempts, &entry.CreatedAt, &lastAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find successful dispatch booking=%q partner=%q: %w", bookingID, partnerID, err)
	}

	entry.Status = domain.DispatchStatus(statusText)
	if lastAt.Valid {
		entry.LastAttemptAt = &lastAt.Time
	}

	return &entry, nil
}
