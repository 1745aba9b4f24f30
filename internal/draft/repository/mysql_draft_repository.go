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

// MySQLDraftRepository handles draft persistence for MySQL.
type MySQLDraftRepository struct {
	db *sql.DB
}

// NewMySQLDraftRepository creates a new MySQLDraftRepository.
func NewMySQLDraftRepository(db *sql.DB) *MySQLDraftRepository {
	return &MySQLDraftRepository{db: db}
}

// CreateCampaign inserts a new campaign.
func (r *MySQLDraftRepository) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO campaigns (id, name, created_at) VALUES (?, ?, NOW())`

	_, err := querier.ExecContext(ctx, query, campaign.ID, campaign.Name)
	return err
}

// GetCampaign retrieves a campaign by ID.
func (r *MySQLDraftRepository) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, created_at FROM campaigns WHERE id = ?`

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
func (r *MySQLDraftRepository) Create(ctx context.Context, draft *domain.Draft) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO drafts (id, campaign_id, recipient_address, subject, body, status,
			  attempt_count, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, draft.ID, draft.CampaignID, draft.RecipientAddress,
		draft.Subject, draft.Body, draft.Status, draft.AttemptCount)
	return err
}

// GetByID retrieves a draft by ID.
func (r *MySQLDraftRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Draft, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + draftColumns + ` FROM drafts WHERE id = ?`

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
// approval first. Requires MySQL 8 for SKIP LOCKED.
func (r *MySQLDraftRepository) ListApproved(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*domain.Draft, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + draftColumns + `
			  FROM drafts
			  WHERE status = ? AND (retry_at IS NULL OR retry_at <= ?)
			  ORDER BY approved_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.StatusApproved, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return scanDrafts(rows)
}

// Claim atomically transitions a draft from approved to sending.
func (r *MySQLDraftRepository) Claim(ctx context.Context, id uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = ?, claimed_at = ?, updated_at = NOW()
			  WHERE id = ? AND status = ?`

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
func (r *MySQLDraftRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = ?, sent_at = ?, last_attempt_at = ?, claimed_at = NULL, updated_at = NOW()
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query, domain.StatusSent, sentAt, sentAt, id, domain.StatusSending)
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
func (r *MySQLDraftRepository) MarkFailed(
	ctx context.Context,
	id uuid.UUID,
	reason string,
	failedAt time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = ?, attempt_count = attempt_count + 1, failure_reason = ?,
			      last_attempt_at = ?, claimed_at = NULL, retry_at = NULL, updated_at = NOW()
			  WHERE id = ? AND status = ?`

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

// ForceAttemptCount pins a draft's attempt count.
func (r *MySQLDraftRepository) ForceAttemptCount(ctx context.Context, id uuid.UUID, count int) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts SET attempt_count = ?, updated_at = NOW() WHERE id = ?`

	_, err := querier.ExecContext(ctx, query, count, id)
	return err
}

// Requeue returns a failed draft to approved with a retry gate in the future.
func (r *MySQLDraftRepository) Requeue(ctx context.Context, id uuid.UUID, retryAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = ?, retry_at = ?, updated_at = NOW()
			  WHERE id = ? AND status = ?`

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

// Approve transitions a draft to approved from draft or failed.
func (r *MySQLDraftRepository) Approve(ctx context.Context, id uuid.UUID, approvedAt time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = ?, approved_at = ?, attempt_count = 0, failure_reason = NULL,
			      retry_at = NULL, updated_at = NOW()
			  WHERE id = ? AND status IN (?, ?)`

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

// Cancel soft-deletes a draft that is not currently sending.
func (r *MySQLDraftRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = ?, retry_at = NULL, updated_at = NOW()
			  WHERE id = ? AND status IN (?, ?, ?)`

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
// attempt.
func (r *MySQLDraftRepository) ReleaseClaim(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE drafts
			  SET status = ?, claimed_at = NULL, updated_at = NOW()
			  WHERE id = ? AND status = ?`

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

// ReclaimStale sweeps drafts stuck in sending past the staleness cutoff.
func (r *MySQLDraftRepository) ReclaimStale(
	ctx context.Context,
	cutoff time.Time,
	retryCeiling int,
) (requeued, failed int64, err error) {
	querier := database.GetTx(ctx, r.db)

	failQuery := `UPDATE drafts
				  SET status = ?, attempt_count = attempt_count + 1,
				      failure_reason = 'stale sending claim reclaimed at startup',
				      claimed_at = NULL, retry_at = NULL, updated_at = NOW()
				  WHERE status = ? AND claimed_at <= ? AND attempt_count + 1 >= ?`

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
					 SET status = ?, attempt_count = attempt_count + 1,
					     claimed_at = NULL, retry_at = NULL, updated_at = NOW()
					 WHERE status = ? AND claimed_at <= ? AND attempt_count + 1 < ?`

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
func (r *MySQLDraftRepository) List(
	ctx context.Context,
	status *domain.Status,
	campaignID *uuid.UUID,
	offset, limit int,
) ([]*domain.Draft, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + draftColumns + ` FROM drafts WHERE 1=1`
	args := []any{}

	if status != nil {
		query += ` AND status = ?`
		args = append(args, *status)
	}
	if campaignID != nil {
		query += ` AND campaign_id = ?`
		args = append(args, *campaignID)
	}

	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	return scanDrafts(rows)
}

// Stats returns per-status queue counts.
func (r *MySQLDraftRepository) Stats(ctx context.Context) (*domain.QueueStats, error) {
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

func (r *MySQLDraftRepository) resolveMissedUpdate(ctx context.Context, id uuid.UUID, stateErr error) error {
	querier := database.GetTx(ctx, r.db)

	var exists bool
	err := querier.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM drafts WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrDraftNotFound
	}
	return stateErr
}
