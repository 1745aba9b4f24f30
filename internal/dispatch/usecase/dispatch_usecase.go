// Package usecase implements the dispatch worker: the loop that drains
// approved drafts through the mail relay under the send rate limit.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/database"
	deliveryDomain "github.com/allisson/outreach/internal/delivery/domain"
	draftDomain "github.com/allisson/outreach/internal/draft/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
	"github.com/allisson/outreach/internal/mail"
	"github.com/allisson/outreach/internal/metrics"
)

// Config holds dispatch worker configuration
type Config struct {
	PollInterval          time.Duration
	BatchSize             int
	RetryCeiling          int
	BackoffBase           time.Duration
	SendTimeout           time.Duration
	StaleSendingThreshold time.Duration
	RateWindow            time.Duration
}

// DraftRepository defines the draft store operations the worker needs
type DraftRepository interface {
	ListApproved(ctx context.Context, now time.Time, limit int) ([]*draftDomain.Draft, error)
	Claim(ctx context.Context, id uuid.UUID, now time.Time) error
	ReleaseClaim(ctx context.Context, id uuid.UUID) error
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, failedAt time.Time) error
	ForceAttemptCount(ctx context.Context, id uuid.UUID, count int) error
	Requeue(ctx context.Context, id uuid.UUID, retryAt time.Time) error
	ReclaimStale(ctx context.Context, cutoff time.Time, retryCeiling int) (requeued, failed int64, err error)
	Stats(ctx context.Context) (*draftDomain.QueueStats, error)
}

// DeliveryRepository defines the delivery log operations the worker needs
type DeliveryRepository interface {
	Append(ctx context.Context, entry *deliveryDomain.LogEntry) error
	SentTimestampsSince(ctx context.Context, since time.Time) ([]time.Time, error)
}

// SendLimiter defines the rate limiter operations the worker needs
type SendLimiter interface {
	Validate() error
	Acquire(ctx context.Context) error
	Rebuild(timestamps []time.Time)
}

// Relay defines the mail relay operations the worker needs
type Relay interface {
	Validate() error
	From() string
	Send(ctx context.Context, msg *mail.Message) error
}

// UseCase defines the interface for the dispatch worker
type UseCase interface {
	Start(ctx context.Context) error
	ProcessQueue(ctx context.Context) error
}

// DispatchUseCase drains the approved queue: claim, rate-limit, send, record.
// A failure on one draft never aborts the cycle; every attempt outcome lands
// in the delivery log.
type DispatchUseCase struct {
	config          Config
	txManager       database.TxManager
	draftRepo       DraftRepository
	deliveryRepo    DeliveryRepository
	limiter         SendLimiter
	relay           Relay
	businessMetrics metrics.BusinessMetrics
	logger          *slog.Logger

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewDispatchUseCase creates a new DispatchUseCase
func NewDispatchUseCase(
	config Config,
	txManager database.TxManager,
	draftRepo DraftRepository,
	deliveryRepo DeliveryRepository,
	limiter SendLimiter,
	relay Relay,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) *DispatchUseCase {
	return &DispatchUseCase{
		config:          config,
		txManager:       txManager,
		draftRepo:       draftRepo,
		deliveryRepo:    deliveryRepo,
		limiter:         limiter,
		relay:           relay,
		businessMetrics: businessMetrics,
		logger:          logger,
		now:             time.Now,
	}
}

// Start validates the relay and rate limit configuration, recovers state left
// by a previous process, then polls the queue until the context is canceled.
// A misconfiguration of either is fatal: no attempt loop is entered.
func (uc *DispatchUseCase) Start(ctx context.Context) error {
	if err := uc.relay.Validate(); err != nil {
		return apperrors.Wrap(err, "relay validation failed")
	}

	if err := uc.limiter.Validate(); err != nil {
		return apperrors.Wrap(err, "rate limit validation failed")
	}

	if err := uc.Recover(ctx); err != nil {
		return apperrors.Wrap(err, "startup recovery failed")
	}

	if uc.logger != nil {
		uc.logger.Info("starting dispatch worker",
			slog.Duration("poll_interval", uc.config.PollInterval),
			slog.Int("batch_size", uc.config.BatchSize),
			slog.Int("retry_ceiling", uc.config.RetryCeiling),
		)
	}

	ticker := time.NewTicker(uc.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if uc.logger != nil {
				uc.logger.Info("stopping dispatch worker")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessQueue(ctx); err != nil {
				if uc.logger != nil {
					uc.logger.Error("failed to process queue", slog.Any("error", err))
				}
			}
		}
	}
}

// Recover reclaims drafts stranded in sending by a crashed process and
// replays recent successful sends into the rate limiter, so the send ceiling
// holds across restarts.
func (uc *DispatchUseCase) Recover(ctx context.Context) error {
	now := uc.now().UTC()

	cutoff := now.Add(-uc.config.StaleSendingThreshold)
	requeued, failed, err := uc.draftRepo.ReclaimStale(ctx, cutoff, uc.config.RetryCeiling)
	if err != nil {
		return err
	}
	if (requeued > 0 || failed > 0) && uc.logger != nil {
		uc.logger.Warn("reclaimed stale sending drafts",
			slog.Int64("requeued", requeued),
			slog.Int64("failed", failed),
		)
	}

	timestamps, err := uc.deliveryRepo.SentTimestampsSince(ctx, now.Add(-uc.config.RateWindow))
	if err != nil {
		return err
	}
	uc.limiter.Rebuild(timestamps)

	if uc.logger != nil {
		uc.logger.Info("rate limiter rebuilt from delivery log",
			slog.Int("sends_in_window", len(timestamps)),
		)
	}

	return nil
}

// ProcessQueue runs one dispatch cycle: claim a batch of eligible drafts,
// then send them one by one under the rate limit.
func (uc *DispatchUseCase) ProcessQueue(ctx context.Context) error {
	batch, err := uc.claimBatch(ctx)
	if err != nil {
		return err
	}

	if len(batch) == 0 {
		return nil
	}

	if uc.logger != nil {
		uc.logger.Info("dispatching drafts", slog.Int("count", len(batch)))
	}

	for i, draft := range batch {
		select {
		case <-ctx.Done():
			// Shutdown mid-batch: give unclaimed work back to the queue.
			uc.releaseClaims(batch[i:])
			return ctx.Err()
		default:
		}

		if err := uc.dispatch(ctx, draft); err != nil {
			if ctx.Err() != nil {
				uc.releaseClaims(batch[i+1:])
				return ctx.Err()
			}
			// An exhausted draft is a recorded outcome, not a dispatch error.
			if !apperrors.Is(err, apperrors.ErrRetryExhausted) && uc.logger != nil {
				uc.logger.Error("failed to dispatch draft",
					slog.String("draft_id", draft.ID.String()),
					slog.Any("error", err),
				)
			}
		}
	}

	uc.recordQueueDepth(ctx)

	return nil
}

// claimBatch lists eligible approved drafts and flips them to sending in a
// single transaction. A claim lost to a concurrent worker is skipped, not an
// error.
func (uc *DispatchUseCase) claimBatch(ctx context.Context) ([]*draftDomain.Draft, error) {
	var batch []*draftDomain.Draft

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		now := uc.now().UTC()

		drafts, err := uc.draftRepo.ListApproved(ctx, now, uc.config.BatchSize)
		if err != nil {
			return err
		}

		for _, draft := range drafts {
			if err := uc.draftRepo.Claim(ctx, draft.ID, now); err != nil {
				if apperrors.Is(err, draftDomain.ErrClaimConflict) {
					continue
				}
				return err
			}
			batch = append(batch, draft)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return batch, nil
}

// dispatch sends one claimed draft and records the outcome. The rate limiter
// is acquired before the relay session opens; a blocked acquire delays the
// draft, it never drops it.
func (uc *DispatchUseCase) dispatch(ctx context.Context, draft *draftDomain.Draft) error {
	if err := uc.limiter.Acquire(ctx); err != nil {
		// Claim released without consuming an attempt: nothing was sent.
		uc.releaseClaims([]*draftDomain.Draft{draft})
		return err
	}

	msg := &mail.Message{
		From:      uc.relay.From(),
		To:        draft.RecipientAddress,
		Subject:   draft.Subject,
		Body:      draft.Body,
		MessageID: mail.MessageID(draft.ID),
	}

	start := uc.now()
	sendCtx, cancel := context.WithTimeout(ctx, uc.config.SendTimeout)
	sendErr := uc.relay.Send(sendCtx, msg)
	cancel()
	elapsed := uc.now().Sub(start)

	if sendErr == nil {
		uc.recordOperation(ctx, "send", "success", elapsed)
		return uc.recordSent(ctx, draft, msg)
	}

	uc.recordOperation(ctx, "send", "error", elapsed)
	return uc.recordFailure(ctx, draft, msg, sendErr)
}

// recordSent flips the draft to sent and appends the delivery log entry in
// one transaction: the status and the audit record never disagree.
func (uc *DispatchUseCase) recordSent(ctx context.Context, draft *draftDomain.Draft, msg *mail.Message) error {
	now := uc.now().UTC()

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.draftRepo.MarkSent(ctx, draft.ID, now); err != nil {
			return err
		}
		return uc.deliveryRepo.Append(ctx, &deliveryDomain.LogEntry{
			ID:        uuid.Must(uuid.NewV7()),
			DraftID:   draft.ID,
			Outcome:   deliveryDomain.OutcomeSent,
			MessageID: msg.MessageID,
			CreatedAt: now,
		})
	})
	if err != nil {
		return err
	}

	if uc.logger != nil {
		uc.logger.Info("draft sent",
			slog.String("draft_id", draft.ID.String()),
			slog.String("recipient", draft.RecipientAddress),
			slog.Int("attempt", draft.AttemptCount+1),
		)
	}

	return nil
}

// recordFailure marks the attempt failed and decides what happens next: a
// transient failure below the retry ceiling is requeued with exponential
// backoff, a permanent rejection exhausts the budget immediately. A terminal
// outcome surfaces as ErrRetryExhausted so callers can tell it apart from
// bookkeeping errors.
func (uc *DispatchUseCase) recordFailure(
	ctx context.Context,
	draft *draftDomain.Draft,
	msg *mail.Message,
	sendErr error,
) error {
	now := uc.now().UTC()
	attempts := draft.AttemptCount + 1
	permanent := apperrors.Is(sendErr, mail.ErrPermanent)

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.draftRepo.MarkFailed(ctx, draft.ID, sendErr.Error(), now); err != nil {
			return err
		}

		if err := uc.deliveryRepo.Append(ctx, &deliveryDomain.LogEntry{
			ID:        uuid.Must(uuid.NewV7()),
			DraftID:   draft.ID,
			Outcome:   deliveryDomain.OutcomeFailed,
			Detail:    sendErr.Error(),
			MessageID: msg.MessageID,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		if permanent {
			// No requeue will ever help; pin the budget as spent.
			if attempts < uc.config.RetryCeiling {
				return uc.draftRepo.ForceAttemptCount(ctx, draft.ID, uc.config.RetryCeiling)
			}
			return nil
		}

		if attempts < uc.config.RetryCeiling {
			retryAt := now.Add(draftDomain.BackoffDelay(attempts, uc.config.BackoffBase))
			uc.recordOperation(ctx, "retry", "scheduled", 0)
			return uc.draftRepo.Requeue(ctx, draft.ID, retryAt)
		}

		return nil
	})
	if err != nil {
		return err
	}

	exhausted := permanent || attempts >= uc.config.RetryCeiling

	if uc.logger != nil {
		uc.logger.Warn("draft send failed",
			slog.String("draft_id", draft.ID.String()),
			slog.String("recipient", draft.RecipientAddress),
			slog.Int("attempt", attempts),
			slog.Bool("permanent", permanent),
			slog.Bool("exhausted", exhausted),
			slog.Any("error", sendErr),
		)
	}

	if exhausted {
		return apperrors.Wrap(apperrors.ErrRetryExhausted, sendErr.Error())
	}

	return nil
}

// releaseClaims returns claimed drafts to approved after a shutdown
// interrupted the batch. Runs detached from the canceled context.
func (uc *DispatchUseCase) releaseClaims(drafts []*draftDomain.Draft) {
	if len(drafts) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, draft := range drafts {
		if err := uc.draftRepo.ReleaseClaim(ctx, draft.ID); err != nil {
			if uc.logger != nil {
				uc.logger.Error("failed to release claim",
					slog.String("draft_id", draft.ID.String()),
					slog.Any("error", err),
				)
			}
		}
	}
}

func (uc *DispatchUseCase) recordOperation(ctx context.Context, operation, status string, elapsed time.Duration) {
	if uc.businessMetrics == nil {
		return
	}
	uc.businessMetrics.RecordOperation(ctx, "dispatch", operation, status)
	if elapsed > 0 {
		uc.businessMetrics.RecordDuration(ctx, "dispatch", operation, elapsed, status)
	}
}

func (uc *DispatchUseCase) recordQueueDepth(ctx context.Context) {
	if uc.businessMetrics == nil {
		return
	}

	stats, err := uc.draftRepo.Stats(ctx)
	if err != nil {
		return
	}

	uc.businessMetrics.RecordQueueDepth(ctx, "approved", stats.PendingApproved)
	uc.businessMetrics.RecordQueueDepth(ctx, "sending", stats.Sending)
	uc.businessMetrics.RecordQueueDepth(ctx, "failed", stats.Failed)
}
