package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	ErrNoCalendar     = goerr.New("calendar source is not configured")
	ErrNoPermalink    = goerr.New("no permalink available for guest messages")
	ErrUnknownCommand = goerr.New("unknown slash command")
)

// Context keys for error values
const (
	ChannelIDKey = "channel_id"
	CommandKey   = "command"
	PassIDKey    = "pass_id"
)
