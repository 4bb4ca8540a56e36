package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/service/worker"
	"github.com/urfave/cli/v3"
)

type Reminder struct {
	schedule    string
	lookahead   time.Duration
	passTimeout time.Duration
	concurrency int
	helpURL     string
}

func (x *Reminder) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "schedule",
			Usage:       "Cron schedule of evaluation passes",
			Category:    "Reminder",
			Value:       worker.DefaultSchedule,
			Destination: &x.schedule,
			Sources:     cli.EnvVars("MINERVA_SCHEDULE"),
		},
		&cli.DurationFlag{
			Name:        "lookahead",
			Usage:       "How far ahead calendar events are fetched",
			Category:    "Reminder",
			Value:       24 * time.Hour,
			Destination: &x.lookahead,
			Sources:     cli.EnvVars("MINERVA_LOOKAHEAD"),
		},
		&cli.DurationFlag{
			Name:        "pass-timeout",
			Usage:       "Deadline of one evaluation pass",
			Category:    "Reminder",
			Value:       4 * time.Minute,
			Destination: &x.passTimeout,
			Sources:     cli.EnvVars("MINERVA_PASS_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Maximum concurrent Slack deliveries",
			Category:    "Reminder",
			Value:       8,
			Destination: &x.concurrency,
			Sources:     cli.EnvVars("MINERVA_CONCURRENCY"),
		},
		&cli.StringFlag{
			Name:        "help-url",
			Usage:       "Documentation link returned by /help",
			Category:    "Reminder",
			Value:       "https://github.com/minerva-bot/minerva#readme",
			Destination: &x.helpURL,
			Sources:     cli.EnvVars("MINERVA_HELP_URL"),
		},
	}
}

func (x Reminder) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("schedule", x.schedule),
		slog.Duration("lookahead", x.lookahead),
		slog.Duration("pass-timeout", x.passTimeout),
		slog.Int("concurrency", x.concurrency),
	)
}

// Validate checks the schedule expression and durations
func (x *Reminder) Validate() error {
	if err := worker.ValidateSchedule(x.schedule); err != nil {
		return goerr.Wrap(err, "invalid --schedule", goerr.V("schedule", x.schedule))
	}
	if x.lookahead <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "--lookahead must be positive", goerr.V("lookahead", x.lookahead))
	}
	if x.passTimeout <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "--pass-timeout must be positive", goerr.V("pass_timeout", x.passTimeout))
	}
	if x.concurrency < 1 {
		return goerr.Wrap(ErrInvalidConfig, "--concurrency must be at least 1", goerr.V("concurrency", x.concurrency))
	}
	return nil
}

func (x *Reminder) Schedule() string           { return x.schedule }
func (x *Reminder) Lookahead() time.Duration   { return x.lookahead }
func (x *Reminder) PassTimeout() time.Duration { return x.passTimeout }
func (x *Reminder) Concurrency() int           { return x.concurrency }
func (x *Reminder) HelpURL() string            { return x.helpURL }
