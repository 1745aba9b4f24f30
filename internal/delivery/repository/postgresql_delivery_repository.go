// Package repository provides data persistence implementations for the
// delivery log. The log is append-only: there are no update or delete paths.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/database"
	"github.com/allisson/outreach/internal/delivery/domain"
)

// PostgreSQLDeliveryRepository handles delivery log persistence for PostgreSQL.
type PostgreSQLDeliveryRepository struct {
	db *sql.DB
}

// NewPostgreSQLDeliveryRepository creates a new PostgreSQLDeliveryRepository.
func NewPostgreSQLDeliveryRepository(db *sql.DB) *PostgreSQLDeliveryRepository {
	return &PostgreSQLDeliveryRepository{db: db}
}

// Append records one send-attempt outcome.
func (r *PostgreSQLDeliveryRepository) Append(ctx context.Context, entry *domain.LogEntry) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO delivery_log (id, draft_id, outcome, detail, message_id, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := querier.ExecContext(ctx, query, entry.ID, entry.DraftID, entry.Outcome,
		entry.Detail, entry.MessageID, entry.CreatedAt)
	return err
}

// ListRecent returns log entries newest first.
func (r *PostgreSQLDeliveryRepository) ListRecent(ctx context.Context, offset, limit int) ([]*domain.LogEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, draft_id, outcome, detail, message_id, created_at
			  FROM delivery_log
			  ORDER BY created_at DESC
			  OFFSET $1 LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return scanEntries(rows)
}

// ListByDraft returns the attempt history of one draft, oldest first.
func (r *PostgreSQLDeliveryRepository) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*domain.LogEntry, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, draft_id, outcome, detail, message_id, created_at
			  FROM delivery_log
			  WHERE draft_id = $1
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return scanEntries(rows)
}

// SentTimestampsSince returns the timestamps of successful sends after the
// given instant, used to rebuild the rate limiter window on startup.
func (r *PostgreSQLDeliveryRepository) SentTimestampsSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT created_at
			  FROM delivery_log
			  WHERE outcome = $1 AND created_at > $2
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

func scanEntries(rows *sql.Rows) ([]*domain.LogEntry, error) {
	var entries []*domain.LogEntry
	for rows.Next() {
		var entry domain.LogEntry
		err := rows.Scan(&entry.ID, &entry.DraftID, &entry.Outcome, &entry.Detail,
			&entry.MessageID, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
