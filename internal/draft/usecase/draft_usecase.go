// Package usecase implements the draft business logic and orchestrates draft domain operations.
package usecase

import (
	"context"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/database"
	"github.com/allisson/outreach/internal/draft/domain"
	apperrors "github.com/allisson/outreach/internal/errors"
	appValidation "github.com/allisson/outreach/internal/validation"
)

// CreateCampaignInput contains the input data for campaign creation
type CreateCampaignInput struct {
	Name string `json:"name"`
}

// CreateDraftInput contains the input data for draft creation
type CreateDraftInput struct {
	CampaignID       uuid.UUID `json:"campaign_id"`
	RecipientAddress string    `json:"recipient_address"`
	Subject          string    `json:"subject"`
	Body             string    `json:"body"`
}

// ListDraftsInput filters the draft listing
type ListDraftsInput struct {
	Status     *domain.Status
	CampaignID *uuid.UUID
	Offset     int
	Limit      int
}

// UseCase defines the interface for draft business logic operations
type UseCase interface {
	CreateCampaign(ctx context.Context, input CreateCampaignInput) (*domain.Campaign, error)
	CreateDraft(ctx context.Context, input CreateDraftInput) (*domain.Draft, error)
	ApproveDraft(ctx context.Context, id uuid.UUID) (*domain.Draft, error)
	CancelDraft(ctx context.Context, id uuid.UUID) (*domain.Draft, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*domain.Draft, error)
	ListDrafts(ctx context.Context, input ListDraftsInput) ([]*domain.Draft, error)
	QueueStats(ctx context.Context) (*domain.QueueStats, error)
}

// DraftRepository interface defines draft repository operations
type DraftRepository interface {
	CreateCampaign(ctx context.Context, campaign *domain.Campaign) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	Create(ctx context.Context, draft *domain.Draft) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Draft, error)
	Approve(ctx context.Context, id uuid.UUID, approvedAt time.Time) error
	Cancel(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, status *domain.Status, campaignID *uuid.UUID, offset, limit int) ([]*domain.Draft, error)
	Stats(ctx context.Context) (*domain.QueueStats, error)
}

// DraftUseCase handles draft-related business logic
type DraftUseCase struct {
	txManager database.TxManager
	draftRepo DraftRepository
}

// NewDraftUseCase creates a new DraftUseCase
func NewDraftUseCase(txManager database.TxManager, draftRepo DraftRepository) *DraftUseCase {
	return &DraftUseCase{
		txManager: txManager,
		draftRepo: draftRepo,
	}
}

func (uc *DraftUseCase) validateCreateCampaignInput(input CreateCampaignInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Name,
			validation.Required.Error("name is required"),
			validation.Length(1, 255).Error("name must be between 1 and 255 characters"),
		),
	)
	return appValidation.WrapValidationError(err)
}

func (uc *DraftUseCase) validateCreateDraftInput(input CreateDraftInput) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.CampaignID,
			validation.Required.Error("campaign_id is required"),
		),
		validation.Field(&input.RecipientAddress,
			validation.Required.Error("recipient_address is required"),
			appValidation.EmailAddress,
			validation.Length(3, 320).Error("recipient_address must be between 3 and 320 characters"),
		),
		validation.Field(&input.Subject,
			validation.Required.Error("subject is required"),
			validation.Length(1, 998).Error("subject must be between 1 and 998 characters"),
		),
		validation.Field(&input.Body,
			validation.Required.Error("body is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// CreateCampaign creates a new campaign.
func (uc *DraftUseCase) CreateCampaign(ctx context.Context, input CreateCampaignInput) (*domain.Campaign, error) {
	if err := uc.validateCreateCampaignInput(input); err != nil {
		return nil, err
	}

	campaign := &domain.Campaign{
		ID:   uuid.Must(uuid.NewV7()),
		Name: input.Name,
	}

	if err := uc.draftRepo.CreateCampaign(ctx, campaign); err != nil {
		return nil, apperrors.Wrap(err, "failed to create campaign")
	}

	return uc.draftRepo.GetCampaign(ctx, campaign.ID)
}

// CreateDraft creates a new draft in the initial status, attached to an
// existing campaign.
func (uc *DraftUseCase) CreateDraft(ctx context.Context, input CreateDraftInput) (*domain.Draft, error) {
	if err := uc.validateCreateDraftInput(input); err != nil {
		return nil, err
	}

	if _, err := uc.draftRepo.GetCampaign(ctx, input.CampaignID); err != nil {
		return nil, err
	}

	draft := &domain.Draft{
		ID:               uuid.Must(uuid.NewV7()),
		CampaignID:       input.CampaignID,
		RecipientAddress: input.RecipientAddress,
		Subject:          input.Subject,
		Body:             input.Body,
		Status:           domain.StatusDraft,
	}

	if err := uc.draftRepo.Create(ctx, draft); err != nil {
		return nil, apperrors.Wrap(err, "failed to create draft")
	}

	return uc.draftRepo.GetByID(ctx, draft.ID)
}

// ApproveDraft clears a draft for sending. Re-approving a failed draft resets
// its retry budget.
func (uc *DraftUseCase) ApproveDraft(ctx context.Context, id uuid.UUID) (*domain.Draft, error) {
	var approved *domain.Draft
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.draftRepo.Approve(ctx, id, time.Now().UTC()); err != nil {
			return err
		}
		draft, err := uc.draftRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		approved = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// CancelDraft soft-deletes a draft. A draft currently sending completes its
// in-flight attempt first; callers get a conflict and should retry.
func (uc *DraftUseCase) CancelDraft(ctx context.Context, id uuid.UUID) (*domain.Draft, error) {
	var canceled *domain.Draft
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.draftRepo.Cancel(ctx, id); err != nil {
			return err
		}
		draft, err := uc.draftRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		canceled = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canceled, nil
}

// GetDraft retrieves a draft by ID.
func (uc *DraftUseCase) GetDraft(ctx context.Context, id uuid.UUID) (*domain.Draft, error) {
	return uc.draftRepo.GetByID(ctx, id)
}

// ListDrafts returns drafts filtered by optional status and campaign.
func (uc *DraftUseCase) ListDrafts(ctx context.Context, input ListDraftsInput) ([]*domain.Draft, error) {
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unknown status %q", *input.Status)
	}
	if input.Limit <= 0 {
		input.Limit = 50
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	return uc.draftRepo.List(ctx, input.Status, input.CampaignID, input.Offset, input.Limit)
}

// QueueStats returns per-status queue counts for the operator dashboard.
func (uc *DraftUseCase) QueueStats(ctx context.Context) (*domain.QueueStats, error) {
	return uc.draftRepo.Stats(ctx)
}
