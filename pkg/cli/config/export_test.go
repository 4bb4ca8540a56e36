package config

import "time"

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, signingSecret, logChannelID string) *Slack {
	return &Slack{
		botToken:      botToken,
		signingSecret: signingSecret,
		logChannelID:  logChannelID,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output, slackLevel string) *Logger {
	return &Logger{
		level:      level,
		format:     format,
		output:     output,
		slackLevel: slackLevel,
	}
}

// NewCalendarForTest creates a Calendar config for testing purposes
func NewCalendarForTest(source, clientID, clientSecret, refreshToken, icsURL string) *Calendar {
	return &Calendar{
		source:             source,
		googleCalendarID:   "primary",
		googleClientID:     clientID,
		googleClientSecret: clientSecret,
		googleRefreshToken: refreshToken,
		icsURL:             icsURL,
	}
}

// NewReminderForTest creates a Reminder config for testing purposes
func NewReminderForTest(schedule string, lookahead, passTimeout time.Duration, concurrency int) *Reminder {
	return &Reminder{
		schedule:    schedule,
		lookahead:   lookahead,
		passTimeout: passTimeout,
		concurrency: concurrency,
	}
}
