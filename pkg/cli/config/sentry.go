package config

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const sentryFlushTimeout = 2 * time.Second

type Sentry struct {
	dsn string
	env string
}

func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting",
			Category:    "Sentry",
			Destination: &x.dsn,
			Sources:     cli.EnvVars("MINERVA_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Category:    "Sentry",
			Destination: &x.env,
			Sources:     cli.EnvVars("MINERVA_SENTRY_ENV"),
		},
	}
}

func (x Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.dsn != ""),
		slog.String("env", x.env),
	)
}

// Configure initializes the Sentry client. Without a DSN it does nothing.
// The returned flush function waits for buffered events.
func (x *Sentry) Configure(release string) (func(), error) {
	if x.dsn == "" {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         x.dsn,
		Environment: x.env,
		Release:     release,
	}); err != nil {
		return func() {}, goerr.Wrap(err, "failed to initialize sentry")
	}

	return func() { sentry.Flush(sentryFlushTimeout) }, nil
}
