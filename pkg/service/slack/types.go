package slack

import (
	"context"

	"github.com/minerva-bot/minerva/pkg/domain/interfaces"
)

// Service is the Slack workspace adapter. Besides the workspace operations
// the bot needs, it exposes the identity of the token for startup checks.
type Service interface {
	interfaces.Workspace

	// Identity returns the team and bot user the token belongs to
	Identity(ctx context.Context) (*Identity, error)
}

// Identity describes the workspace and bot user behind a token
type Identity struct {
	TeamID string
	Team   string
	URL    string // e.g. "https://example.slack.com/"
	UserID string
	BotID  string
}
