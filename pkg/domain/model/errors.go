package model

import (
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Structural errors: fatal for the single record or command being parsed.
var (
	ErrMultipleSeparators   = goerr.New("multiple separator lines")
	ErrMalformedMetadata    = goerr.New("malformed metadata block")
	ErrChannelsNotSpecified = goerr.New("channels not specified in metadata block")
	ErrMissingField         = goerr.New("missing field")
	ErrEmptyNotifyCommand   = goerr.New("please provide a message")
)

// Resolution errors: surfaced to the operator on command paths, logged and
// skipped on scheduled paths.
var (
	ErrChannelNotFound       = goerr.New("channel not found")
	ErrDefaultNotAllowed     = goerr.New("`default` is not a valid channel name, as it is a group of channels")
	ErrInvalidEscapedChannel = goerr.New("could not parse escaped channel text")
	ErrNotWorkspacePermalink = goerr.New("not a message permalink of this workspace")
	ErrInvalidWorkspaceURL   = goerr.New("invalid workspace URL")
)

// Context keys for error values
const (
	ChannelNameKey = "channel_name"
	TokenKey       = "token"
	FieldKey       = "field"
	URLKey         = "url"
)

// UserMessage converts an error from a command path into the text shown to
// the operator who issued the command.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrEmptyNotifyCommand):
		return fmt.Sprintf("Please provide a message to notify about.\nUsage: `%s`", NotifyUsage)
	case errors.Is(err, ErrNotWorkspacePermalink):
		return "Please provide a valid message URL from this Slack workspace as the first argument."
	case errors.Is(err, ErrInvalidEscapedChannel):
		return fmt.Sprintf("%s: %v\nUsage: `%s`", ErrInvalidEscapedChannel.Error(), errValue(err, TokenKey), NotifyUsage)
	case errors.Is(err, ErrDefaultNotAllowed):
		return ErrDefaultNotAllowed.Error()
	case errors.Is(err, ErrChannelNotFound):
		return fmt.Sprintf("could not find channel with name %v", errValue(err, ChannelNameKey))
	default:
		return "An unexpected error occurred: " + err.Error()
	}
}

func errValue(err error, key string) any {
	var ge *goerr.Error
	if !errors.As(err, &ge) {
		return ""
	}
	if v, ok := ge.Values()[key]; ok {
		return v
	}
	return ""
}
