package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound     = goerr.New("configuration file not found")
	ErrInvalidConfig      = goerr.New("invalid configuration")
	ErrUnknownEnvironment = goerr.New("environment is not defined in configuration")
	ErrNoDefaultChannels  = goerr.New("environment has no default channels")
	ErrInvalidTimezone    = goerr.New("invalid timezone")
	ErrMissingSlackToken  = goerr.New("slack bot token is required")
	ErrInvalidCalendar    = goerr.New("invalid calendar configuration")
	ErrInvalidLogFormat   = goerr.New("invalid log format")
	ErrInvalidLogLevel    = goerr.New("invalid log level")
)

// Context keys for error values
const (
	ConfigPathKey  = "config_path"
	EnvironmentKey = "environment"
	TimezoneKey    = "timezone"
	SourceKey      = "source"
)
