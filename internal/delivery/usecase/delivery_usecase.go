// Package usecase implements read operations over the delivery log.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/outreach/internal/delivery/domain"
)

// UseCase defines the interface for delivery log read operations
type UseCase interface {
	ListRecent(ctx context.Context, offset, limit int) ([]*domain.LogEntry, error)
	ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*domain.LogEntry, error)
}

// DeliveryRepository interface defines delivery log repository operations
type DeliveryRepository interface {
	Append(ctx context.Context, entry *domain.LogEntry) error
	ListRecent(ctx context.Context, offset, limit int) ([]*domain.LogEntry, error)
	ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*domain.LogEntry, error)
	SentTimestampsSince(ctx context.Context, since time.Time) ([]time.Time, error)
}

// DeliveryUseCase exposes the delivery log to observers. The log is written
// only by the dispatch worker; this use case never mutates it.
type DeliveryUseCase struct {
	deliveryRepo DeliveryRepository
}

// NewDeliveryUseCase creates a new DeliveryUseCase
func NewDeliveryUseCase(deliveryRepo DeliveryRepository) *DeliveryUseCase {
	return &DeliveryUseCase{deliveryRepo: deliveryRepo}
}

// ListRecent returns log entries newest first.
func (uc *DeliveryUseCase) ListRecent(ctx context.Context, offset, limit int) ([]*domain.LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.deliveryRepo.ListRecent(ctx, offset, limit)
}

// ListByDraft returns the full attempt history of one draft, oldest first.
func (uc *DeliveryUseCase) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*domain.LogEntry, error) {
	return uc.deliveryRepo.ListByDraft(ctx, draftID)
}
