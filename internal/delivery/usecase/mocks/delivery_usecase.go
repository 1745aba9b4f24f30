// Package mocks provides testify mocks for the delivery use case interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/outreach/internal/delivery/domain"
)

// MockDeliveryUseCase is a mock implementation of usecase.UseCase.
type MockDeliveryUseCase struct {
	mock.Mock
}

// NewMockDeliveryUseCase creates a new MockDeliveryUseCase and registers
// expectation checks with the test cleanup.
func NewMockDeliveryUseCase(t *testing.T) *MockDeliveryUseCase {
	m := &MockDeliveryUseCase{}
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDeliveryUseCase) ListRecent(ctx context.Context, offset, limit int) ([]*domain.LogEntry, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LogEntry), args.Error(1)
}

func (m *MockDeliveryUseCase) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*domain.LogEntry, error) {
	args := m.Called(ctx, draftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LogEntry), args.Error(1)
}
