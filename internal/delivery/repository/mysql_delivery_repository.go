package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/database"
	"github.com/allisson/outreach/internal/delivery/domain"
)

// MySQLDeliveryRepository handles delivery log persistence for MySQL.
type MySQLDeliveryRepository struct {
	db *sql.DB
}

// NewMySQLDeliveryRepository creates a new MySQLDeliveryRepository.
func NewMySQLDeliveryRepository(db *sql.DB) *MySQLDeliveryRepository {
	return &MySQLDeliveryRepository{db: db}
}

// Append records one send-attempt outcome.
func (r *MySQLDeliveryRepository) Append(ctx context.Context, entry *domain.LogEntry) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO delivery_log (id, draft_id, outcome, detail, message_id, created_at)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, entry.ID, entry.DraftID, entry.Outcome,
		entry.Detail, entry.MessageID, entry.CreatedAt)
	return err
}

// ListRecent returns log entries newest first.
func (r *MySQLDeliveryRepository) ListRecent(ctx context.Context, offset, limit int) ([]*domain.LogEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, draft_id, outcome, detail, message_id, created_at
			  FROM delivery_log
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return scanEntries(rows)
}

// ListByDraft returns the attempt history of one draft, oldest first.
func (r *MySQLDeliveryRepository) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*domain.LogEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, draft_id, outcome, detail, message_id, created_at
			  FROM delivery_log
			  WHERE draft_id = ?
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return scanEntries(rows)
}

// SentTimestampsSince returns the timestamps of successful sends after the
// given instant.
func (r *MySQLDeliveryRepository) SentTimestampsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT created_at
			  FROM delivery_log
			  WHERE outcome = ? AND created_at > ?
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, domain.OutcomeSent, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var timestamps []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		timestamps = append(timestamps, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return timestamps, nil
}
