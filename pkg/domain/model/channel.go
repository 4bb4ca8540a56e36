package model

import (
	"context"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
)

// DefaultGroupToken names the configured default channel group wherever a
// list of channel names is accepted.
const DefaultGroupToken = "default"

// Channel is a Slack conversation identified by its stable ID.
type Channel struct {
	Name string
	ID   string
}

// Equal reports whether both name and ID match
func (c Channel) Equal(other Channel) bool {
	return c.Name == other.Name && c.ID == other.ID
}

// Escaped returns the inline mention syntax Slack uses for the channel
func (c Channel) Escaped() string {
	return "<#" + c.ID + "|" + c.Name + ">"
}

var escapedChannelPattern = regexp.MustCompile(`^<#([A-Z0-9]+)\|([^<>|]+)>$`)

// ParseEscapedChannel parses a channel mention such as "<#C12345678|general>"
func ParseEscapedChannel(text string) (Channel, error) {
	m := escapedChannelPattern.FindStringSubmatch(text)
	if m == nil {
		return Channel{}, goerr.Wrap(ErrInvalidEscapedChannel, "failed to parse channel reference",
			goerr.V(TokenKey, text))
	}
	return Channel{ID: m[1], Name: m[2]}, nil
}

// ChannelDirectory is a read-only snapshot of the workspace channels taken
// once per evaluation pass, together with the configured default group.
type ChannelDirectory struct {
	channels     []Channel
	byName       map[string]Channel
	byID         map[string]Channel
	defaultNames []string
}

// NewChannelDirectory creates a directory over channels. defaultNames are the
// channel names the "default" group expands to.
func NewChannelDirectory(channels []Channel, defaultNames []string) *ChannelDirectory {
	d := &ChannelDirectory{
		channels:     make([]Channel, 0, len(channels)),
		byName:       make(map[string]Channel, len(channels)),
		byID:         make(map[string]Channel, len(channels)),
		defaultNames: append([]string(nil), defaultNames...),
	}
	for _, ch := range channels {
		if ch.Name == "" || ch.ID == "" {
			continue
		}
		if _, exists := d.byID[ch.ID]; exists {
			continue
		}
		d.channels = append(d.channels, ch)
		d.byName[ch.Name] = ch
		d.byID[ch.ID] = ch
	}
	return d
}

// Channels returns every channel in the snapshot
func (d *ChannelDirectory) Channels() []Channel {
	return append([]Channel(nil), d.channels...)
}

// DefaultNames returns the configured default group names
func (d *ChannelDirectory) DefaultNames() []string {
	return append([]string(nil), d.defaultNames...)
}

// ChannelByID looks a channel up by its ID
func (d *ChannelDirectory) ChannelByID(id string) (Channel, bool) {
	ch, ok := d.byID[id]
	return ch, ok
}

// ResolveChannelByName resolves a single destination by exact name.
// The default group token is rejected because it names a group.
func (d *ChannelDirectory) ResolveChannelByName(name string) (Channel, error) {
	if name == DefaultGroupToken {
		return Channel{}, goerr.Wrap(ErrDefaultNotAllowed, "failed to resolve channel",
			goerr.V(ChannelNameKey, name))
	}
	ch, ok := d.byName[name]
	if !ok {
		return Channel{}, goerr.Wrap(ErrChannelNotFound, "failed to resolve channel",
			goerr.V(ChannelNameKey, name))
	}
	return ch, nil
}

// ResolveChannels resolves names leniently. Unknown names are logged and
// skipped; the default group token expands to the default channels. The
// result is deduplicated by ID and keeps first-seen order.
func (d *ChannelDirectory) ResolveChannels(ctx context.Context, names []string) []Channel {
	set := NewChannelSet()
	for _, name := range names {
		if name == DefaultGroupToken {
			set.Add(d.DefaultChannels(ctx)...)
			continue
		}
		ch, ok := d.byName[name]
		if !ok {
			logging.From(ctx).Warn("channel not found, skipping", "channel_name", name)
			continue
		}
		set.Add(ch)
	}
	return set.List()
}

// DefaultChannels resolves the default group. Configured names missing from
// the workspace are logged and skipped.
func (d *ChannelDirectory) DefaultChannels(ctx context.Context) []Channel {
	set := NewChannelSet()
	for _, name := range d.defaultNames {
		ch, ok := d.byName[name]
		if !ok {
			logging.From(ctx).Warn("default channel not found in workspace", "channel_name", name)
			continue
		}
		set.Add(ch)
	}
	return set.List()
}
