// Package repository provides data persistence implementations for draft entities.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/database"
	"github.com/allisson/outreach/internal/draft/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
)

const draftColumns = `id, campaign_id, recipient_address, subject, body, status, attempt_count,
	failure_reason, approved_at, claimed_at, retry_at, last_attempt_at, sent_at, created_at, updated_at`

// PostgreSQLDraftRepository handles draft persistence for PostgreSQL.
type PostgreSQLDraftRepository struct {
	db *sql.DB
}

// NewPostgreSQLDraftRepository creates a new PostgreSQLDraftRepository.
func NewPostgreSQLDraftRepository(db *sql.DB) *PostgreSQLDraftRepository {
	return &PostgreSQLDraftRepository{db: db}
}

// CreateCampaign inserts a new campaign.
func (r *PostgreSQLDraftRepository) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO campaigns (id, name, created_at) VALUES ($1, $2, NOW())`

	_, err := querier.ExecContext(ctx, query, campaign.ID, campaign.Name)
	return err
}

// GetCampaign retrieves a campaign by ID.
func (r *PostgreSQLDraftRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, created_at FROM campaigns WHERE id = $1`

	var campaign domain.Campaign
	err := querier.QueryRowContext(ctx, query, id).Scan(&campaign.ID, &campaign.Name, &campaign.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}

	return &campaign, nil
}

// Create inserts a new draft in its initial status.
func (r *PostgreSQLDraftRepository) Create(ctx context.Context, draft *domain.Draft) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO drafts (id, campaign_id, recipient_address, subject, body, status,
			  attempt_count, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, draft.ID, draft.CampaignID, draft.RecipientAddress,
		draft.Subject, draft.Body, draft.Status, draft.AttemptCount)
	return err
}

// GetByID retrieves a draft by ID.
func (r *PostgreSQLDraftRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Draft, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = $1`

	draft, err := scanDraft(querier.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}

	return draft, nil
}

// ListApproved returns approved drafts whose retry gate has passed, oldest
// approval first, so early submissions are never starved.
func (r *PostgreSQLDraftRepository) ListApproved(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.Draft, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + draftColumns + `
			  FROM drafts
			  WHERE status = $1 AND (retry_at IS NULL OR retry_at <= $2)
			  ORDER BY approved_at ASC
			  LIMIT $3
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.StatusApproved, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return scanDrafts(rows)
}

// Claim atomically transitions a draft from approved to sending. Exactly one
// concurrent caller wins; losers get ErrClaimConflict.
func (r *PostgreSQLDraftRepository) Claim(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = $1, claimed_at = $2, updated_at = NOW()
			  WHERE id = $3 AND status = $4`

	result, err := querier.ExecContext(ctx, query, domain.StatusSending, now, id, domain.StatusApproved)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.resolveMissedUpdate(ctx, id, domain.ErrClaimConflict)
	}

	return nil
}

// MarkSent transitions a draft from sending to sent.
func (r *PostgreSQLDraftRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = $1, sent_at = $2, last_attempt_at = $2, claimed_at = NULL, updated_at = NOW()
			  WHERE id = $3 AND status = $4`

	result, err := querier.ExecContext(ctx, query, domain.StatusSent, sentAt, id, domain.StatusSending)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.resolveMissedUpdate(ctx, id, apperrors.Wrap(apperrors.ErrInvalidTransition, "mark sent"))
	}

	return nil
}

// MarkFailed transitions a draft from sending to failed and increments its
// attempt count.
func (r *PostgreSQLDraftRepository) MarkFailed(
	ctx context.Context,
	id uuid.UUID,
	reason string,
	failedAt time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = $1, attempt_count = attempt_count + 1, failure_reason = $2,
			      last_attempt_at = $3, claimed_at = NULL, retry_at = NULL, updated_at = NOW()
			  WHERE id = $4 AND status = $5`

	result, err := querier.ExecContext(ctx, query, domain.StatusFailed, reason, failedAt, id, domain.StatusSending)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.resolveMissedUpdate(ctx, id, apperrors.Wrap(apperrors.ErrInvalidTransition, "mark failed"))
	}

	return nil
}

// ForceAttemptCount pins a draft's attempt count, used when a permanent relay
// rejection exhausts the retry budget immediately.
func (r *PostgreSQLDraftRepository) ForceAttemptCount(ctx context.Context, id uuid.UUID, count int) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts SET attempt_count = $1, updated_at = NOW() WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, count, id)
	return err
}

// Requeue returns a failed draft to approved with a retry gate in the future.
// The original approval timestamp is preserved so FIFO ordering holds.
func (r *PostgreSQLDraftRepository) Requeue(ctx context.Context, id uuid.UUID, retryAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = $1, retry_at = $2, updated_at = NOW()
			  WHERE id = $3 AND status = $4`

	result, err := querier.ExecContext(ctx, query, domain.StatusApproved, retryAt, id, domain.StatusFailed)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.resolveMissedUpdate(ctx, id, apperrors.Wrap(apperrors.ErrInvalidTransition, "requeue"))
	}

	return nil
}

// Approve transitions a draft to approved. Allowed from draft (operator
// approval) and from failed (manual re-approval, which resets the retry
// budget).
func (r *PostgreSQLDraftRepository) Approve(ctx context.Context, id uuid.UUID, approvedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = $1, approved_at = $2, attempt_count = 0, failure_reason = NULL,
			      retry_at = NULL, updated_at = NOW()
			  WHERE id = $3 AND status IN ($4, $5)`

	result, err := querier.ExecContext(ctx, query, domain.StatusApproved, approvedAt, id,
		domain.StatusDraft, domain.StatusFailed)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.resolveMissedUpdate(ctx, id, apperrors.Wrap(apperrors.ErrInvalidTransition, "approve"))
	}

	return nil
}

// Cancel soft-deletes a draft. A draft currently sending is left alone: the
// in-flight attempt completes before cancellation can be honored.
func (r *PostgreSQLDraftRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = $1, retry_at = NULL, updated_at = NOW()
			  WHERE id = $2 AND status IN ($3, $4, $5)`

	result, err := querier.ExecContext(ctx, query, domain.StatusCanceled, id,
		domain.StatusDraft, domain.StatusApproved, domain.StatusFailed)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.resolveMissedUpdate(ctx, id, apperrors.Wrap(apperrors.ErrInvalidTransition, "cancel"))
	}

	return nil
}

// ReleaseClaim returns a claimed draft to approved without consuming an
// attempt. Used when the worker shuts down between claiming and sending.
func (r *PostgreSQLDraftRepository) ReleaseClaim(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = $1, claimed_at = NULL, updated_at = NOW()
			  WHERE id = $2 AND status = $3`

	result, err := querier.ExecContext(ctx, query, domain.StatusApproved, id, domain.StatusSending)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.resolveMissedUpdate(ctx, id, apperrors.Wrap(apperrors.ErrInvalidTransition, "release claim"))
	}

	return nil
}

// ReclaimStale sweeps drafts stuck in sending past the staleness cutoff:
// drafts with attempts remaining return to approved, exhausted ones fail
// permanently. The crashed attempt counts against the retry budget.
func (r *PostgreSQLDraftRepository) ReclaimStale(
	ctx context.Context,
	cutoff time.Time,
	retryCeiling int,
) (requeued, failed int64, err error) {
	querier := database.GetTx(ctx, r.db)

	failQuery := `UPDATE drafts
				  SET status = $1, attempt_count = attempt_count + 1,
				      failure_reason = 'stale sending claim reclaimed at startup',
				      claimed_at = NULL, retry_at = NULL, updated_at = NOW()
				  WHERE status = $2 AND claimed_at <= $3 AND attempt_count + 1 >= $4`

	failResult, err := querier.ExecContext(ctx, failQuery,
		domain.StatusFailed, domain.StatusSending, cutoff, retryCeiling)
	if err != nil {
		return 0, 0, err
	}
	failed, err = failResult.RowsAffected()
	if err != nil {
		return 0, 0, err
	}

	requeueQuery := `UPDATE drafts
					 SET status = $1, attempt_count = attempt_count + 1,
					     claimed_at = NULL, retry_at = NULL, updated_at = NOW()
					 WHERE status = $2 AND claimed_at <= $3 AND attempt_count + 1 < $4`

	requeueResult, err := querier.ExecContext(ctx, requeueQuery,
		domain.StatusApproved, domain.StatusSending, cutoff, retryCeiling)
	if err != nil {
		return 0, 0, err
	}
	requeued, err = requeueResult.RowsAffected()
	if err != nil {
		return 0, 0, err
	}

	return requeued, failed, nil
}

// List returns drafts filtered by optional status and campaign, newest first.
func (r *PostgreSQLDraftRepository) List(
	ctx context.Context,
	status *domain.Status,
	campaignID *uuid.UUID,
	offset, limit int,
) ([]*domain.Draft, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + draftColumns + `
			  FROM drafts
			  WHERE ($1::text IS NULL OR status = $1)
			    AND ($2::uuid IS NULL OR campaign_id = $2)
			  ORDER BY created_at DESC
			  OFFSET $3 LIMIT $4`

	rows, err := querier.QueryContext(ctx, query, status, campaignID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return scanDrafts(rows)
}

// Stats returns per-status queue counts.
func (r *PostgreSQLDraftRepository) Stats(ctx context.Context) (*domain.QueueStats, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT status, COUNT(*) FROM drafts GROUP BY status`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var stats domain.QueueStats
	for rows.Next() {
		var status domain.Status
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		switch status {
		case domain.StatusApproved:
			stats.PendingApproved = count
		case domain.StatusSending:
			stats.Sending = count
		case domain.StatusSent:
			stats.Sent = count
		case domain.StatusFailed:
			stats.Failed = count
		case domain.StatusCanceled:
			stats.Canceled = count
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &stats, nil
}

// resolveMissedUpdate disambiguates a zero-row update: the draft either does
// not exist or sits in a status the guard rejected.
func (r *PostgreSQLDraftRepository) resolveMissedUpdate(ctx context.Context, id uuid.UUID, stateErr error) error {
	querier := database.GetTx(ctx, r.db)

	var exists bool
	err := querier.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM drafts WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrDraftNotFound
	}
	return stateErr
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (*domain.Draft, error) {
	var draft domain.Draft
	err := row.Scan(&draft.ID, &draft.CampaignID, &draft.RecipientAddress, &draft.Subject,
		&draft.Body, &draft.Status, &draft.AttemptCount, &draft.FailureReason,
		&draft.ApprovedAt, &draft.ClaimedAt, &draft.RetryAt, &draft.LastAttemptAt,
		&draft.SentAt, &draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func scanDrafts(rows *sql.Rows) ([]*domain.Draft, error) {
	var drafts []*domain.Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return drafts, nil
}
