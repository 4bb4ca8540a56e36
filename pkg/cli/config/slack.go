package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken      string
	signingSecret string
	logChannelID  string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("MINERVA_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for slash command verification)",
			Category:    "Slack",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("MINERVA_SLACK_SIGNING_SECRET"),
		},
		&cli.StringFlag{
			Name:        "slack-log-channel",
			Usage:       "Channel ID that receives warnings and errors",
			Category:    "Slack",
			Destination: &x.logChannelID,
			Sources:     cli.EnvVars("MINERVA_SLACK_LOG_CHANNEL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
		slog.String("log-channel", x.logChannelID),
	)
}

// Configure creates the Slack workspace adapter
func (x *Slack) Configure() (slack.Service, error) {
	if x.botToken == "" {
		return nil, goerr.Wrap(ErrMissingSlackToken, "failed to configure slack")
	}

	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return svc, nil
}

// BotToken returns the Slack bot token
func (x *Slack) BotToken() string {
	return x.botToken
}

// IsCommandConfigured checks if slash commands can be verified
func (x *Slack) IsCommandConfigured() bool {
	return x.signingSecret != ""
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}

// LogChannelID returns the channel mirrored log records go to
func (x *Slack) LogChannelID() string {
	return x.logChannelID
}
