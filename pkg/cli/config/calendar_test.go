package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/minerva-bot/minerva/pkg/cli/config"
)

func TestCalendar_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Calendar
		wantErr bool
	}{
		{
			name: "google with credentials",
			cfg:  config.NewCalendarForTest("google", "id", "secret", "refresh", ""),
		},
		{
			name:    "google missing refresh token",
			cfg:     config.NewCalendarForTest("google", "id", "secret", "", ""),
			wantErr: true,
		},
		{
			name: "ics with url",
			cfg:  config.NewCalendarForTest("ics", "", "", "", "https://calendar.example.com/team.ics"),
		},
		{
			name:    "ics without url",
			cfg:     config.NewCalendarForTest("ics", "", "", "", ""),
			wantErr: true,
		},
		{
			name:    "unknown source",
			cfg:     config.NewCalendarForTest("outlook", "", "", "", ""),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				gt.Error(t, err).Is(config.ErrInvalidCalendar)
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestCalendar_Configure(t *testing.T) {
	ctx := context.Background()

	t.Run("ics source", func(t *testing.T) {
		src, err := config.NewCalendarForTest("ics", "", "", "", "https://calendar.example.com/team.ics").
			Configure(ctx, time.UTC)
		gt.NoError(t, err).Required()
		gt.Value(t, src).NotNil()
	})

	t.Run("ics source rejects non-http url", func(t *testing.T) {
		_, err := config.NewCalendarForTest("ics", "", "", "", "file:///etc/team.ics").Configure(ctx, time.UTC)
		gt.Value(t, err).NotNil()
	})

	t.Run("google source", func(t *testing.T) {
		src, err := config.NewCalendarForTest("google", "id", "secret", "refresh", "").Configure(ctx, time.UTC)
		gt.NoError(t, err).Required()
		gt.Value(t, src).NotNil()
	})

	t.Run("invalid configuration is not built", func(t *testing.T) {
		_, err := config.NewCalendarForTest("google", "", "", "", "").Configure(ctx, time.UTC)
		gt.Error(t, err).Is(config.ErrInvalidCalendar)
	})
}

func TestReminder_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Reminder
		wantErr bool
	}{
		{name: "defaults", cfg: config.NewReminderForTest("*/5 * * * *", 24*time.Hour, 4*time.Minute, 8)},
		{name: "descriptor", cfg: config.NewReminderForTest("@every 5m", time.Hour, time.Minute, 1)},
		{name: "bad schedule", cfg: config.NewReminderForTest("soon", time.Hour, time.Minute, 1), wantErr: true},
		{name: "zero lookahead", cfg: config.NewReminderForTest("*/5 * * * *", 0, time.Minute, 1), wantErr: true},
		{name: "zero timeout", cfg: config.NewReminderForTest("*/5 * * * *", time.Hour, 0, 1), wantErr: true},
		{name: "zero concurrency", cfg: config.NewReminderForTest("*/5 * * * *", time.Hour, time.Minute, 0), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				gt.Value(t, err).NotNil()
			} else {
				gt.NoError(t, err)
			}
		})
	}
}
