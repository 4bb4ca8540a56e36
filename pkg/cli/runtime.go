package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/cli/config"
	"github.com/minerva-bot/minerva/pkg/service/slack"
	"github.com/minerva-bot/minerva/pkg/usecase"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// runtimeConfig is the flag set shared by commands that talk to Slack and
// the calendar
type runtimeConfig struct {
	app      config.App
	slack    config.Slack
	calendar config.Calendar
	reminder config.Reminder
}

func (x *runtimeConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.app.Flags()...)
	flags = append(flags, x.slack.Flags()...)
	flags = append(flags, x.calendar.Flags()...)
	flags = append(flags, x.reminder.Flags()...)
	return flags
}

type runtime struct {
	settings *config.Settings
	slack    slack.Service
	uc       *usecase.UseCases
}

// setup resolves configuration, connects the collaborators and builds the
// use cases. The Slack log sink is attached to logger once Slack is reachable.
func (x *runtimeConfig) setup(ctx context.Context, logger *config.Logger) (*runtime, error) {
	settings, err := x.app.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load configuration")
	}
	if err := x.reminder.Validate(); err != nil {
		return nil, err
	}

	svc, err := x.slack.Configure()
	if err != nil {
		return nil, err
	}

	id, err := svc.Identity(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to authenticate with slack")
	}
	logging.Default().Info("Slack connected", "team", id.Team, "url", id.URL, "bot_user", id.UserID)

	if err := logger.AttachSlack(svc, x.slack.LogChannelID()); err != nil {
		return nil, goerr.Wrap(err, "failed to attach slack log channel")
	}

	src, err := x.calendar.Configure(ctx, settings.Location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure calendar")
	}

	uc := usecase.New(svc, settings.Workspace,
		usecase.WithCalendar(src),
		usecase.WithDefaultChannels(settings.DefaultChannels),
		usecase.WithGuestTier(settings.GuestTier),
		usecase.WithRenderOptions(settings.Render),
		usecase.WithLookahead(x.reminder.Lookahead()),
		usecase.WithPassTimeout(x.reminder.PassTimeout()),
		usecase.WithConcurrency(x.reminder.Concurrency()),
		usecase.WithHelpURL(x.reminder.HelpURL()),
		usecase.WithLogChannel(x.slack.LogChannelID()),
	)

	logging.Default().Info("Configuration loaded",
		"environment", settings.Environment,
		"default_channels", settings.DefaultChannels,
		"guest_tier", settings.GuestTier,
		"timezone", settings.Location.String(),
		"slack", x.slack,
		"calendar", x.calendar,
		"reminder", x.reminder,
	)

	return &runtime{settings: settings, slack: svc, uc: uc}, nil
}
