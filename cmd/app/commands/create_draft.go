package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	draftUsecase "github.com/allisson/outreach/internal/draft/usecase"
)

// RunCreateDraft creates a new outreach draft in the given campaign. The body
// comes from the --body flag or, when --body-file is set, from that file. The
// draft is created in draft status and must be approved before dispatch.
//
// Requirements: Database must be migrated and accessible.
func RunCreateDraft(
	ctx context.Context,
	draftUseCase draftUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	campaignID string,
	recipient string,
	subject string,
	body string,
	bodyFile string,
	format string,
) error {
	id, err := parseID("campaign", campaignID)
	if err != nil {
		return err
	}

	if bodyFile != "" {
		content, err := os.ReadFile(bodyFile)
		if err != nil {
			return fmt.Errorf("failed to read body file: %w", err)
		}
		body = string(content)
	}

	logger.Info("creating draft",
		slog.String("campaign_id", id.String()),
		slog.String("recipient", recipient),
	)

	draft, err := draftUseCase.CreateDraft(ctx, draftUsecase.CreateDraftInput{
		CampaignID:       id,
		RecipientAddress: recipient,
		Subject:          subject,
		Body:             body,
	})
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}

	if format == "json" {
		outputJSON(map[string]string{
			"draft_id": draft.ID.String(),
			"status":   string(draft.Status),
		}, writer)
	} else {
		_, _ = fmt.Fprintln(writer, "Draft created successfully!")
		_, _ = fmt.Fprintf(writer, "Draft ID: %s\n", draft.ID.String())
		_, _ = fmt.Fprintf(writer, "Status: %s\n", draft.Status)
		_, _ = fmt.Fprintln(writer, "\nThe draft will not be sent until it is approved.")
	}

	logger.Info("draft created successfully",
		slog.String("draft_id", draft.ID.String()),
	)

	return nil
}
