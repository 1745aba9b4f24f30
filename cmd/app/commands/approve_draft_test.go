package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	draftDomain "github.com/allisson/outreach/internal/draft/domain"
	draftMocks "github.com/allisson/outreach/internal/draft/usecase/mocks"
	apperrors "github.com/allisson/outreach/internal/errors"
)

func TestRunApproveDraft(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		draftID := uuid.Must(uuid.NewV7())
		mockUseCase := draftMocks.NewMockDraftUseCase(t)
		mockUseCase.On("ApproveDraft", ctx, draftID).
			Return(&draftDomain.Draft{ID: draftID, Status: draftDomain.StatusApproved}, nil)

		var out bytes.Buffer
		err := RunApproveDraft(ctx, mockUseCase, logger, &out, draftID.String(), "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Draft approved successfully!")
		require.Contains(t, out.String(), "Status: approved")
	})

	t.Run("json-output", func(t *testing.T) {
		draftID := uuid.Must(uuid.NewV7())
		mockUseCase := draftMocks.NewMockDraftUseCase(t)
		mockUseCase.On("ApproveDraft", ctx, draftID).
			Return(&draftDomain.Draft{ID: draftID, Status: draftDomain.StatusApproved}, nil)

		var out bytes.Buffer
		err := RunApproveDraft(ctx, mockUseCase, logger, &out, draftID.String(), "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"status": "approved"`)
	})

	t.Run("invalid-id", func(t *testing.T) {
		mockUseCase := draftMocks.NewMockDraftUseCase(t)

		err := RunApproveDraft(ctx, mockUseCase, logger, &bytes.Buffer{}, "not-a-uuid", "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid draft id")
		mockUseCase.AssertNotCalled(t, "ApproveDraft")
	})

	t.Run("already-sent", func(t *testing.T) {
		draftID := uuid.Must(uuid.NewV7())
		mockUseCase := draftMocks.NewMockDraftUseCase(t)
		mockUseCase.On("ApproveDraft", ctx, draftID).
			Return(nil, apperrors.ErrInvalidTransition)

		err := RunApproveDraft(ctx, mockUseCase, logger, &bytes.Buffer{}, draftID.String(), "text")

		require.Error(t, err)
		require.True(t, apperrors.Is(err, apperrors.ErrInvalidTransition))
	})
}
