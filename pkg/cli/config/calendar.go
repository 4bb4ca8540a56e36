package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/domain/interfaces"
	"github.com/minerva-bot/minerva/pkg/service/calendar"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

const (
	CalendarSourceGoogle = "google"
	CalendarSourceICS    = "ics"
)

type Calendar struct {
	source string

	googleCalendarID   string
	googleClientID     string
	googleClientSecret string
	googleRefreshToken string

	icsURL        string
	icsDetailsURL string
}

func (x *Calendar) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "calendar-source",
			Usage:       "Calendar backend [google|ics]",
			Category:    "Calendar",
			Value:       CalendarSourceGoogle,
			Destination: &x.source,
			Sources:     cli.EnvVars("MINERVA_CALENDAR_SOURCE"),
		},
		&cli.StringFlag{
			Name:        "google-calendar-id",
			Usage:       "Google Calendar ID",
			Category:    "Calendar",
			Value:       calendar.DefaultCalendarID,
			Destination: &x.googleCalendarID,
			Sources:     cli.EnvVars("MINERVA_GOOGLE_CALENDAR_ID"),
		},
		&cli.StringFlag{
			Name:        "google-client-id",
			Usage:       "Google OAuth client ID",
			Category:    "Calendar",
			Destination: &x.googleClientID,
			Sources:     cli.EnvVars("MINERVA_GOOGLE_CLIENT_ID"),
		},
		&cli.StringFlag{
			Name:        "google-client-secret",
			Usage:       "Google OAuth client secret",
			Category:    "Calendar",
			Destination: &x.googleClientSecret,
			Sources:     cli.EnvVars("MINERVA_GOOGLE_CLIENT_SECRET"),
		},
		&cli.StringFlag{
			Name:        "google-refresh-token",
			Usage:       "Google OAuth refresh token with calendar read access",
			Category:    "Calendar",
			Destination: &x.googleRefreshToken,
			Sources:     cli.EnvVars("MINERVA_GOOGLE_REFRESH_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "ics-url",
			Usage:       "URL of the ICS feed",
			Category:    "Calendar",
			Destination: &x.icsURL,
			Sources:     cli.EnvVars("MINERVA_ICS_URL"),
		},
		&cli.StringFlag{
			Name:        "ics-details-url",
			Usage:       "Link shown in reminders for ICS events without their own URL",
			Category:    "Calendar",
			Destination: &x.icsDetailsURL,
			Sources:     cli.EnvVars("MINERVA_ICS_DETAILS_URL"),
		},
	}
}

func (x Calendar) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", x.source),
		slog.String("google-calendar-id", x.googleCalendarID),
		slog.Int("google-client-secret.len", len(x.googleClientSecret)),
		slog.Int("google-refresh-token.len", len(x.googleRefreshToken)),
		slog.Bool("ics-url.set", x.icsURL != ""),
	)
}

// Validate checks that the selected source has what it needs
func (x *Calendar) Validate() error {
	switch x.source {
	case CalendarSourceGoogle:
		if x.googleClientID == "" || x.googleClientSecret == "" || x.googleRefreshToken == "" {
			return goerr.Wrap(ErrInvalidCalendar,
				"google source requires --google-client-id, --google-client-secret and --google-refresh-token",
				goerr.V(SourceKey, x.source))
		}
	case CalendarSourceICS:
		if x.icsURL == "" {
			return goerr.Wrap(ErrInvalidCalendar, "ics source requires --ics-url", goerr.V(SourceKey, x.source))
		}
	default:
		return goerr.Wrap(ErrInvalidCalendar, "unknown calendar source", goerr.V(SourceKey, x.source))
	}
	return nil
}

// Configure creates the calendar source. loc interprets ICS floating times.
func (x *Calendar) Configure(ctx context.Context, loc *time.Location) (interfaces.CalendarSource, error) {
	if err := x.Validate(); err != nil {
		return nil, err
	}

	switch x.source {
	case CalendarSourceICS:
		opts := []calendar.ICSOption{calendar.WithFloatingLocation(loc)}
		if x.icsDetailsURL != "" {
			opts = append(opts, calendar.WithDetailsURL(x.icsDetailsURL))
		}
		src, err := calendar.NewICS(x.icsURL, opts...)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create ICS calendar source")
		}
		return src, nil

	default:
		ts, err := calendar.RefreshTokenSource(ctx, x.googleClientID, x.googleClientSecret, x.googleRefreshToken)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Google token source")
		}
		src, err := calendar.NewGoogle(ctx, x.googleCalendarID, option.WithTokenSource(ts))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Google calendar source")
		}
		return src, nil
	}
}
