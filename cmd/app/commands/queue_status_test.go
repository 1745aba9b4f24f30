package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	draftDomain "github.com/allisson/outreach/internal/draft/domain"
	draftMocks "github.com/allisson/outreach/internal/draft/usecase/mocks"
)

func TestRunQueueStatus(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		mockUseCase := draftMocks.NewMockDraftUseCase(t)
		mockUseCase.On("QueueStats", ctx).Return(&draftDomain.QueueStats{
			PendingApproved: 4,
			Sending:         1,
			Sent:            20,
			Failed:          2,
			Canceled:        3,
		}, nil)

		var out bytes.Buffer
		err := RunQueueStatus(ctx, mockUseCase, logger, &out, "text")

		require.NoError(t, err)
		require.Contains(t, out.String(), "Pending approved: 4")
		require.Contains(t, out.String(), "Sending: 1")
		require.Contains(t, out.String(), "Sent: 20")
	})

	t.Run("json-output", func(t *testing.T) {
		mockUseCase := draftMocks.NewMockDraftUseCase(t)
		mockUseCase.On("QueueStats", ctx).Return(&draftDomain.QueueStats{Sent: 7}, nil)

		var out bytes.Buffer
		err := RunQueueStatus(ctx, mockUseCase, logger, &out, "json")

		require.NoError(t, err)
		require.Contains(t, out.String(), `"sent": 7`)
		require.Contains(t, out.String(), `"pending_approved": 0`)
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := draftMocks.NewMockDraftUseCase(t)
		mockUseCase.On("QueueStats", ctx).Return(nil, errors.New("database gone"))

		err := RunQueueStatus(ctx, mockUseCase, logger, &bytes.Buffer{}, "text")

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to get queue stats")
	})
}
