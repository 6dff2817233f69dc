package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trip-dispatch-service/internal/domain"
)

// SQLite-backed implementation of the DispatchLogStore port.
type SqliteDispatchLogStore struct{ DB *sql.DB }

func NewSqliteDispatchLogStore(db *sql.DB) *SqliteDispatchLogStore {
	return &SqliteDispatchLogStore{DB: db}
}

func (s *SqliteDispatchLogStore) Create(ctx context.Context, entry *domain.DispatchLog) error {
	q := `
	INSERT INTO dispatch_logs (
		id, booking_id, partner_id, status, last_response,
		payload, sent_by, attempts, created_at, last_attempt_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	_, err := s.DB.ExecContext(ctx, q,
		entry.ID, entry.BookingID, entry.PartnerID, string(entry.Status), entry.LastResponse,
		entry.Payload, entry.SentBy, entry.Attempts, entry.CreatedAt.Unix(), nullableUnix(entry.LastAttemptAt),
	)
	if err != nil {
		return fmt.Errorf("create dispatch log %q: %w", entry.ID, err)
	}

	return nil
}

func (s *SqliteDispatchLogStore) Update(ctx context.Context, entry *domain.DispatchLog) error {
	q := `
	UPDATE dispatch_logs
	SET status = ?, last_response = ?, attempts = ?, last_attempt_at = ?
	WHERE id = ?;`

	_, err := s.DB.ExecContext(ctx, q,
		string(entry.Status), entry.LastResponse, entry.Attempts, nullableUnix(entry.LastAttemptAt), entry.ID,
	)
	if err != nil {
		return fmt.Errorf("update dispatch log %q: %w", entry.ID, err)
	}

	return nil
}

func (s *SqliteDispatchLogStore) FindSuccess(ctx context.Context, bookingID, partnerID string) (*domain.DispatchLog, error) {
	q := `
	SELECT id, booking_id, partner_id, status, last_response,
		payload, sent_by, attempts, created_at, last_attempt_at
	FROM dispatch_logs
	WHERE booking_id = ? AND partner_id = ? AND status = ?
	ORDER BY created_at DESC
	LIMIT 1;`

	var (
		entry       domain.DispatchLog
		statusText  string
		createdUnix int64
		lastAt      sql.NullInt64
	)
	err := s.DB.QueryRowContext(ctx, q, bookingID, partnerID, string(domain.DispatchSuccess)).Scan(
		&entry.ID, &entry.BookingID, &entry.PartnerID, &statusText, &entry.LastResponse,
		&entry.Payload, &entry.SentBy, &entry.Attempts, &createdUnix, &lastAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find successful dispatch booking=%q partner=%q: %w", bookingID, partnerID, err)
	}

	entry.Status = domain.DispatchStatus(statusText)
	entry.CreatedAt = time.Unix(createdUnix, 0).UTC()
	entry.LastAttemptAt = unixPtr(lastAt)

	return &entry, nil
}

func nullableUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
