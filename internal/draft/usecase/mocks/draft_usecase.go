// Package mocks provides testify mocks for the draft use case interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/outreach/internal/draft/domain"
	"github.com/allisson/outreach/internal/draft/usecase"
)

// MockDraftUseCase is a mock implementation of usecase.UseCase.
type MockDraftUseCase struct {
	mock.Mock
}

// NewMockDraftUseCase creates a new MockDraftUseCase and registers expectation
// checks with the test cleanup.
func NewMockDraftUseCase(t *testing.T) *MockDraftUseCase {
	m := &MockDraftUseCase{}
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDraftUseCase) CreateCampaign(ctx context.Context, input usecase.CreateCampaignInput) (*domain.Campaign, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Campaign), args.Error(1)
}

func (m *MockDraftUseCase) CreateDraft(ctx context.Context, input usecase.CreateDraftInput) (*domain.Draft, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Draft), args.Error(1)
}

func (m *MockDraftUseCase) ApproveDraft(ctx context.Context, id uuid.UUID) (*domain.Draft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Draft), args.Error(1)
}

func (m *MockDraftUseCase) CancelDraft(ctx context.Context, id uuid.UUID) (*domain.Draft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Draft), args.Error(1)
}

func (m *MockDraftUseCase) GetDraft(ctx context.Context, id uuid.UUID) (*domain.Draft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Draft), args.Error(1)
}

func (m *MockDraftUseCase) ListDrafts(ctx context.Context, input usecase.ListDraftsInput) ([]*domain.Draft, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Draft), args.Error(1)
}

func (m *MockDraftUseCase) QueueStats(ctx context.Context) (*domain.QueueStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QueueStats), args.Error(1)
}
