package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	draftUsecase "github.com/allisson/outreach/internal/draft/usecase"
)

// RunCreateCampaign creates a new outreach campaign and prints its id.
// Outputs in either text or JSON format.
//
// Requirements: Database must be migrated and accessible.
func RunCreateCampaign(
	ctx context.Context,
	draftUseCase draftUsecase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	name string,
	format string,
) error {
	logger.Info("creating campaign", slog.String("name", name))

	campaign, err := draftUseCase.CreateCampaign(ctx, draftUsecase.CreateCampaignInput{
		Name: name,
	})
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	if format == "json" {
		outputJSON(map[string]string{
			"campaign_id": campaign.ID.String(),
			"name":        campaign.Name,
		}, writer)
	} else {
		_, _ = fmt.Fprintln(writer, "Campaign created successfully!")
		_, _ = fmt.Fprintf(writer, "Campaign ID: %s\n", campaign.ID.String())
		_, _ = fmt.Fprintf(writer, "Name: %s\n", campaign.Name)
	}

	logger.Info("campaign created successfully",
		slog.String("campaign_id", campaign.ID.String()),
	)

	return nil
}
