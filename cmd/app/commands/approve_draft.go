package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	draftUsecase "github.com/allisson/outreach/internal/draft/usecase"
)

// RunApproveDraft approves a draft for dispatch. Works on drafts in draft
// status and on failed drafts, where approval resets the attempt budget and
// puts the draft back in the queue.
//
// Requirements: Database must be migrated and accessible.
func RunApproveDraft(
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

	logger.Info("approving draft", slog.String("draft_id", draftID.String()))

	draft, err := draftUseCase.ApproveDraft(ctx, draftID)
	if err != nil {
		return fmt.Errorf("failed to approve draft: %w", err)
	}

	if format == "json" {
		outputJSON(map[string]string{
			"draft_id": draft.ID.String(),
			"status":   string(draft.Status),
		}, writer)
	} else {
		_, _ = fmt.Fprintln(writer, "Draft approved successfully!")
		_, _ = fmt.Fprintf(writer, "Draft ID: %s\n", draft.ID.String())
		_, _ = fmt.Fprintf(writer, "Status: %s\n", draft.Status)
	}

	logger.Info("draft approved successfully",
		slog.String("draft_id", draft.ID.String()),
	)

	return nil
}
