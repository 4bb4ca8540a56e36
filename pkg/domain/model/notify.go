package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// NotifyUsage is the syntax of the /notify command
const NotifyUsage = "/notify LINK [ping] [default] [#channel ...]"

const pingToken = "ping"

// NotifyParameters is a parsed /notify command
type NotifyParameters struct {
	MessageURL             string
	PingChannels           bool
	IncludeDefaultChannels bool
	// Channels holds the explicitly named channels, unique by ID
	Channels []Channel
}

// ParseNotifyCommand parses the text following /notify
func ParseNotifyCommand(text string, ws *Workspace) (*NotifyParameters, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, goerr.Wrap(ErrEmptyNotifyCommand, "notify command has no arguments")
	}

	link := strings.TrimSuffix(strings.TrimPrefix(tokens[0], "<"), ">")
	link, _, _ = strings.Cut(link, "|")
	if !ws.IsPermalink(link) {
		return nil, goerr.Wrap(ErrNotWorkspacePermalink, "notify target is not a message of this workspace",
			goerr.V(URLKey, link))
	}

	params := &NotifyParameters{MessageURL: link}
	rest := tokens[1:]
	if len(rest) > 0 && rest[0] == pingToken {
		params.PingChannels = true
		rest = rest[1:]
	}

	if len(rest) == 0 {
		params.IncludeDefaultChannels = true
		return params, nil
	}

	set := NewChannelSet()
	for _, token := range rest {
		if token == DefaultGroupToken {
			params.IncludeDefaultChannels = true
			continue
		}
		ch, err := ParseEscapedChannel(token)
		if err != nil {
			return nil, err
		}
		set.Add(ch)
	}
	params.Channels = set.List()

	return params, nil
}

// RenderNotifyMessage returns the text posted to each destination
func RenderNotifyMessage(p *NotifyParameters) string {
	if p.PingChannels {
		return broadcastPrefix + p.MessageURL
	}
	return p.MessageURL
}
