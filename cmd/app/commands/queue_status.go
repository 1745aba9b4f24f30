package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	draftUsecase "github.com/allisson/outreach/internal/draft/usecase"
)

// RunQueueStatus prints per-status counts for the delivery queue.
//
// Requirements: Database must be migrated and accessible.
func RunQueueStatus(
	ctx context.Context,
	draftUseCase draftUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	stats, err := draftUseCase.QueueStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get queue stats: %w", err)
	}

	if format == "json" {
		outputJSON(map[string]int64{
			"pending_approved": stats.PendingApproved,
			"sending":          stats.Sending,
			"sent":             stats.Sent,
			"failed":           stats.Failed,
			"canceled":         stats.Canceled,
		}, writer)
	} else {
		_, _ = fmt.Fprintln(writer, "Delivery queue status:")
		_, _ = fmt.Fprintf(writer, "  Pending approved: %d\n", stats.PendingApproved)
		_, _ = fmt.Fprintf(writer, "  Sending: %d\n", stats.Sending)
		_, _ = fmt.Fprintf(writer, "  Sent: %d\n", stats.Sent)
		_, _ = fmt.Fprintf(writer, "  Failed: %d\n", stats.Failed)
		_, _ = fmt.Fprintf(writer, "  Canceled: %d\n", stats.Canceled)
	}

	logger.Info("queue status retrieved")

	return nil
}
