package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	draftDomain "github.com/allisson/outreach/internal/draft/domain"
	draftUsecase "github.com/allisson/outreach/internal/draft/usecase"
	draftMocks "github.com/allisson/outreach/internal/draft/usecase/mocks"
)

func TestRunCreateDraft(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()
	campaignID := uuid.Must(uuid.NewV7())

	t.Run("text-output", func(t *testing.T) {
		draftID := uuid.Must(uuid.NewV7())
		mockUseCase := draftMocks.NewMockDraftUseCase(t)
		mockUseCase.On("CreateDraft", ctx, draftUsecase.CreateDraftInput{
			CampaignID:       campaignID,
			RecipientAddress: "csr@example.com",
			Subject:          "Sponsorship opportunity",
			Body:             "Hello",
		}).Return(&draftDomain.Draft{ID: draftID, Status: draftDomain.StatusDraft}, nil)

		var out bytes.Buffer
		err := RunCreateDraft(
			ctx, mockUseCase, logger, &out,
			campaignID.String(), "csr@example.com", "Sponsorship opportunity", "Hello", "", "text",
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), "Draft created successfully!")
		require.Contains(t, out.String(), draftID.String())
		require.Contains(t, out.String(), "will not be sent until it is approved")
	})

	t.Run("body-from-file", func(t *testing.T) {
		bodyFile := filepath.Join(t.TempDir(), "body.txt")
		require.NoError(t, os.WriteFile(bodyFile, []byte("Dear sponsor"), 0o600))

		draftID := uuid.Must(uuid.NewV7())
		mockUseCase := draftMocks.NewMockDraftUseCase(t)
		mockUseCase.On("CreateDraft", ctx, draftUsecase.CreateDraftInput{
			CampaignID:       campaignID,
			RecipientAddress: "csr@example.com",
			Subject:          "Sponsorship opportunity",
			Body:             "Dear sponsor",
		}).Return(&draftDomain.Draft{ID: draftID, Status: draftDomain.StatusDraft}, nil)

		var out bytes.Buffer
		err := RunCreateDraft(
			ctx, mockUseCase, logger, &out,
			campaignID.String(), "csr@example.com", "Sponsorship opportunity", "ignored", bodyFile, "json",
		)

		require.NoError(t, err)
		require.Contains(t, out.String(), `"draft_id": "`+draftID.String()+`"`)
		require.Contains(t, out.String(), `"status": "draft"`)
	})

	t.Run("invalid-campaign-id", func(t *testing.T) {
		mockUseCase := draftMocks.NewMockDraftUseCase(t)

		err := RunCreateDraft(
			ctx, mockUseCase, logger, &bytes.Buffer{},
			"not-a-uuid", "csr@example.com", "Subject", "Body", "", "text",
		)

		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid campaign id")
		mockUseCase.AssertNotCalled(t, "CreateDraft")
	})

	t.Run("missing-body-file", func(t *testing.T) {
		mockUseCase := draftMocks.NewMockDraftUseCase(t)

		err := RunCreateDraft(
			ctx, mockUseCase, logger, &bytes.Buffer{},
			campaignID.String(), "csr@example.com", "Subject", "", "/nonexistent/body.txt", "text",
		)

		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to read body file")
		mockUseCase.AssertNotCalled(t, "CreateDraft")
	})
}
