package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/outreach/cmd/app/commands"
	"github.com/allisson/outreach/internal/app"
	"github.com/allisson/outreach/internal/config"
)

func getQueueCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-campaign",
			Usage: "Create a new outreach campaign",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable campaign name",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				draftUseCase, err := container.DraftUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateCampaign(
					ctx,
					draftUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "create-draft",
			Usage: "Create a new outreach draft in a campaign",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "campaign-id",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "Campaign ID (UUID)",
				},
				&cli.StringFlag{
					Name:     "recipient",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Recipient email address",
				},
				&cli.StringFlag{
					Name:     "subject",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Email subject",
				},
				&cli.StringFlag{
					Name:    "body",
					Aliases: []string{"b"},
					Usage:   "Email body text",
				},
				&cli.StringFlag{
					Name:  "body-file",
					Usage: "Read the email body from a file (overrides --body)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				draftUseCase, err := container.DraftUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateDraft(
					ctx,
					draftUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("campaign-id"),
					cmd.String("recipient"),
					cmd.String("subject"),
					cmd.String("body"),
					cmd.String("body-file"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "approve-draft",
			Usage: "Approve a draft for dispatch",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Draft ID (UUID)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				draftUseCase, err := container.DraftUseCase()
				if err != nil {
					return err
				}

				return commands.RunApproveDraft(
					ctx,
					draftUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "cancel-draft",
			Usage: "Cancel a draft that has not been sent",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Draft ID (UUID)",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				draftUseCase, err := container.DraftUseCase()
				if err != nil {
					return err
				}

				return commands.RunCancelDraft(
					ctx,
					draftUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "queue-status",
			Usage: "Show per-status counts for the delivery queue",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				draftUseCase, err := container.DraftUseCase()
				if err != nil {
					return err
				}

				return commands.RunQueueStatus(
					ctx,
					draftUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
