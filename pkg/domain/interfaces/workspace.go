package interfaces

import (
	"context"

	"github.com/minerva-bot/minerva/pkg/domain/model"
)

// Workspace is the chat workspace the bot reads directories from and posts to
type Workspace interface {
	// ListChannels returns the non-archived public channels
	ListChannels(ctx context.Context) ([]model.Channel, error)

	// ListUsers returns every non-deleted member with its access tier
	ListUsers(ctx context.Context) ([]model.WorkspaceUser, error)

	// ListChannelMembers returns the user IDs of a channel's members
	ListChannelMembers(ctx context.Context, channelID string) ([]string, error)

	// PostMessage posts text to a channel or a user's DM and returns the
	// message timestamp
	PostMessage(ctx context.Context, dest model.Destination, text string) (string, error)

	// PostEphemeral posts text visible only to userID in channelID
	PostEphemeral(ctx context.Context, channelID, userID, text string) error

	// AddReaction adds an emoji reaction to a posted message
	AddReaction(ctx context.Context, channelID, timestamp, emoji string) error

	// GetPermalink returns the permalink of a posted message
	GetPermalink(ctx context.Context, channelID, timestamp string) (string, error)
}
