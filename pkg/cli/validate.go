package cli

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/cli/config"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var rtCfg runtimeConfig

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate configuration and optionally check it against Slack and the calendar",
		Flags:   rtCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Step 1: configuration file and reminder flags
			settings, err := rtCfg.app.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}
			if err := rtCfg.reminder.Validate(); err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			logger.Info("Configuration validation passed",
				"environment", settings.Environment,
				"workspace", settings.Workspace.URL(),
				"default_channels", settings.DefaultChannels,
				"guest_tier", settings.GuestTier,
				"timezone", settings.Location.String(),
			)

			// Step 2: default channels must exist in the workspace
			if rtCfg.slack.BotToken() == "" {
				logger.Info("No Slack bot token specified, skipping channel resolution check")
			} else if err := validateSlack(ctx, &rtCfg.slack, settings); err != nil {
				return err
			}

			// Step 3: calendar credentials and a sample fetch
			if !c.IsSet("calendar-source") {
				logger.Info("No calendar source specified, skipping calendar check")
				return nil
			}
			return validateCalendar(ctx, &rtCfg.calendar, settings)
		},
	}
}

func validateSlack(ctx context.Context, slackCfg *config.Slack, settings *config.Settings) error {
	logger := logging.From(ctx)

	svc, err := slackCfg.Configure()
	if err != nil {
		return err
	}

	id, err := svc.Identity(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to authenticate with slack")
	}
	if id.URL != "" && strings.TrimSuffix(id.URL, "/") != settings.Workspace.URL() {
		logger.Warn("Bot token belongs to another workspace than configured",
			"token_workspace", id.URL,
			"configured_workspace", settings.Workspace.URL(),
		)
	}

	channels, err := svc.ListChannels(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list channels")
	}
	dir := model.NewChannelDirectory(channels, settings.DefaultChannels)

	var missing []string
	for _, name := range settings.DefaultChannels {
		if _, err := dir.ResolveChannelByName(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return goerr.Wrap(model.ErrChannelNotFound, "default channels are not visible to the bot",
			goerr.V("channels", missing))
	}

	logger.Info("Default channels resolved", "channels", len(settings.DefaultChannels), "workspace_channels", len(channels))
	return nil
}

func validateCalendar(ctx context.Context, calCfg *config.Calendar, settings *config.Settings) error {
	src, err := calCfg.Configure(ctx, settings.Location)
	if err != nil {
		return goerr.Wrap(err, "calendar validation failed")
	}

	now := time.Now()
	events, err := src.FetchEvents(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		return goerr.Wrap(err, "failed to fetch calendar events")
	}

	logging.From(ctx).Info("Calendar reachable", "events_next_24h", len(events))
	return nil
}
