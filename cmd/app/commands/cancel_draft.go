package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	draftUsecase "github.com/allisson/outreach/internal/draft/usecase"
)

// RunCancelDraft cancels a draft. Drafts that are mid-send cannot be
// canceled: the in-flight attempt completes first.
//
// Requirements: Database must be migrated and accessible.
func RunCancelDraft(
	ctx context.Context,
	draftUseCase draftUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	id string,
	format string,
) error {
	draftID, err := parseID("draft", id)
	if err != nil {
		return err
	}

	logger.Info("canceling draft", slog.String("draft_id", draftID.String()))

	draft, err := draftUseCase.CancelDraft(ctx, draftID)
	if err != nil {
		return fmt.Errorf("failed to cancel draft: %w", err)
	}

	if format == "json" {
		outputJSON(map[string]string{
			"draft_id": draft.ID.String(),
			"status":   string(draft.Status),
		}, writer)
	} else {
		_, _ = fmt.Fprintln(writer, "Draft canceled successfully!")
		_, _ = fmt.Fprintf(writer, "Draft ID: %s\n", draft.ID.String())
		_, _ = fmt.Fprintf(writer, "Status: %s\n", draft.Status)
	}

	logger.Info("draft canceled successfully",
		slog.String("draft_id", draft.ID.String()),
	)

	return nil
}
