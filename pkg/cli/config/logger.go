package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/minerva-bot/minerva/pkg/service/slack"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Logger struct {
	level      string
	format     string
	output     string
	slackLevel string

	handler slog.Handler
	filter  func(groups []string, a slog.Attr) slog.Attr
}

func (x *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level [debug|info|warn|error]",
			Category:    "Logging",
			Value:       "info",
			Sources:     cli.EnvVars("MINERVA_LOG_LEVEL"),
			Destination: &x.level,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format [console|json]",
			Category:    "Logging",
			Value:       "console",
			Sources:     cli.EnvVars("MINERVA_LOG_FORMAT"),
			Destination: &x.format,
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output [stdout|stderr|<file path>]",
			Category:    "Logging",
			Value:       "stdout",
			Sources:     cli.EnvVars("MINERVA_LOG_OUTPUT"),
			Destination: &x.output,
		},
		&cli.StringFlag{
			Name:        "slack-log-level",
			Usage:       "Minimum level mirrored into the Slack log channel",
			Category:    "Logging",
			Value:       "warn",
			Sources:     cli.EnvVars("MINERVA_SLACK_LOG_LEVEL"),
			Destination: &x.slackLevel,
		},
	}
}

func (x Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", x.level),
		slog.String("format", x.format),
		slog.String("output", x.output),
	)
}

func parseLevel(s string) (slog.Level, error) {
	levels := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	level, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, goerr.Wrap(ErrInvalidLogLevel, "failed to parse log level", goerr.V("level", s))
	}
	return level, nil
}

// Configure builds the process logger and installs it as default.
// The returned closer releases the log file when one was opened.
func (x *Logger) Configure() (func(), error) {
	closer := func() {}

	level, err := parseLevel(x.level)
	if err != nil {
		return closer, err
	}

	var w io.Writer
	switch x.output {
	case "stdout", "-", "":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		// #nosec G304 - path is given by the operator
		f, err := os.OpenFile(x.output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return closer, goerr.Wrap(err, "failed to open log file", goerr.V("path", x.output))
		}
		w = f
		closer = func() {
			if err := f.Close(); err != nil {
				logging.Default().Warn("failed to close log file", "error", err)
			}
		}
	}

	filter := masq.New(
		masq.WithTag("secret"),
		masq.WithFieldPrefix("secret"),
	)
	x.filter = filter

	switch x.format {
	case "console":
		x.handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
			clog.WithColorMap(&clog.ColorMap{
				Level: map[slog.Level]*color.Color{
					slog.LevelDebug: color.New(color.FgGreen, color.Bold),
					slog.LevelInfo:  color.New(color.FgCyan, color.Bold),
					slog.LevelWarn:  color.New(color.FgYellow, color.Bold),
					slog.LevelError: color.New(color.FgRed, color.Bold),
				},
				LevelDefault: color.New(color.FgBlue, color.Bold),
				Time:         color.New(color.FgWhite),
				Message:      color.New(color.FgHiWhite),
				AttrKey:      color.New(color.FgHiCyan),
				AttrValue:    color.New(color.FgHiWhite),
			}),
		)
	case "json":
		x.handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})
	default:
		closer()
		return func() {}, goerr.Wrap(ErrInvalidLogFormat, "failed to configure logger", goerr.V("format", x.format))
	}

	logging.SetDefault(slog.New(x.handler))
	return closer, nil
}

// AttachSlack mirrors records at or above --slack-log-level into channelID
// in addition to the configured output. Configure must be called first.
func (x *Logger) AttachSlack(poster slack.MessagePoster, channelID string) error {
	if channelID == "" {
		return nil
	}
	if x.handler == nil {
		return goerr.New("logger is not configured")
	}

	level, err := parseLevel(x.slackLevel)
	if err != nil {
		return err
	}

	sink := slack.NewLogHandler(poster, channelID, level, x.handler, slack.WithReplaceAttr(x.filter))
	logging.SetDefault(slog.New(logging.Fanout(x.handler, sink)))
	return nil
}
