package slack

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/domain/types"
	"github.com/slack-go/slack"
	"golang.org/x/time/rate"
)

const (
	// DefaultWriteRate is the sustained rate of write calls (chat.postMessage
	// allows roughly one message per second per channel)
	DefaultWriteRate = rate.Limit(1)
	// DefaultWriteBurst lets a fan-out start without waiting
	DefaultWriteBurst = 5

	pageLimit = 200

	errAlreadyReacted = "already_reacted"
)

// client implements Service interface
type client struct {
	api     *slack.Client
	limiter *rate.Limiter
	retry   retryConfig
	apiOpts []slack.Option
}

// Option is a functional option for client configuration
type Option func(*client)

// WithWriteRate sets the rate limit applied to posting calls
func WithWriteRate(r rate.Limit, burst int) Option {
	return func(c *client) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithMaxRetries sets how many times a rate limited call is retried
func WithMaxRetries(n int) Option {
	return func(c *client) {
		c.retry.maxRetries = n
	}
}

// WithAPIURL points the client at another Slack API endpoint
func WithAPIURL(url string) Option {
	return func(c *client) {
		c.apiOpts = append(c.apiOpts, slack.OptionAPIURL(url))
	}
}

// New creates a new Slack service with the provided bot token
func New(token string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	c := &client{
		limiter: rate.NewLimiter(DefaultWriteRate, DefaultWriteBurst),
		retry:   defaultRetryConfig,
	}

	for _, opt := range opts {
		opt(c)
	}
	c.api = slack.New(token, c.apiOpts...)

	return c, nil
}

// Identity calls auth.test
func (c *client) Identity(ctx context.Context) (*Identity, error) {
	var resp *slack.AuthTestResponse
	err := retryOp(ctx, c.retry, "auth.test", func() error {
		var err error
		resp, err = c.api.AuthTestContext(ctx)
		return err
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call auth.test")
	}

	return &Identity{
		TeamID: resp.TeamID,
		Team:   resp.Team,
		URL:    resp.URL,
		UserID: resp.UserID,
		BotID:  resp.BotID,
	}, nil
}

// ListChannels retrieves all non-archived public channels
func (c *client) ListChannels(ctx context.Context) ([]model.Channel, error) {
	var channels []model.Channel
	var cursor string

	for {
		params := &slack.GetConversationsParameters{
			Types:           []string{"public_channel"},
			ExcludeArchived: true,
			Limit:           pageLimit,
			Cursor:          cursor,
		}

		var convs []slack.Channel
		var nextCursor string
		err := retryOp(ctx, c.retry, "conversations.list", func() error {
			var err error
			convs, nextCursor, err = c.api.GetConversationsContext(ctx, params)
			return err
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get conversations")
		}

		for _, conv := range convs {
			if conv.ID == "" || conv.Name == "" {
				continue
			}
			channels = append(channels, model.Channel{
				ID:   conv.ID,
				Name: conv.Name,
			})
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	return channels, nil
}

// ListUsers retrieves all non-deleted members and classifies their tier
func (c *client) ListUsers(ctx context.Context) ([]model.WorkspaceUser, error) {
	var users []slack.User
	err := retryOp(ctx, c.retry, "users.list", func() error {
		var err error
		users, err = c.api.GetUsersContext(ctx, slack.GetUsersOptionLimit(pageLimit))
		return err
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}

	result := make([]model.WorkspaceUser, 0, len(users))
	for _, u := range users {
		if u.Deleted {
			continue
		}

		result = append(result, model.WorkspaceUser{
			ID:   u.ID,
			Name: u.Name,
			Tier: types.ClassifyAccessTier(types.AccessFlags{
				IsOwner:           u.IsOwner || u.IsPrimaryOwner,
				IsAdmin:           u.IsAdmin,
				IsBot:             u.IsBot,
				IsRestricted:      u.IsRestricted,
				IsUltraRestricted: u.IsUltraRestricted,
			}),
		})
	}

	return result, nil
}

// ListChannelMembers retrieves the member IDs of a channel
func (c *client) ListChannelMembers(ctx context.Context, channelID string) ([]string, error) {
	var members []string
	var cursor string

	for {
		params := &slack.GetUsersInConversationParameters{
			ChannelID: channelID,
			Cursor:    cursor,
			Limit:     pageLimit,
		}

		var page []string
		var nextCursor string
		err := retryOp(ctx, c.retry, "conversations.members", func() error {
			var err error
			page, nextCursor, err = c.api.GetUsersInConversationContext(ctx, params)
			return err
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get channel members", goerr.V("channel_id", channelID))
		}
		members = append(members, page...)

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	return members, nil
}

// PostMessage posts plain text to a channel or, for a user destination, to
// the user's DM with the bot. Link unfurling is disabled so reminders stay
// compact.
func (c *client) PostMessage(ctx context.Context, dest model.Destination, text string) (string, error) {
	target := dest.ID()
	if target == "" {
		return "", goerr.New("destination has no ID", goerr.V("kind", dest.Kind().String()))
	}

	var ts string
	err := c.post(ctx, "chat.postMessage", func() error {
		var err error
		_, ts, err = c.api.PostMessageContext(ctx, target,
			slack.MsgOptionText(text, false),
			slack.MsgOptionDisableLinkUnfurl(),
			slack.MsgOptionDisableMediaUnfurl(),
		)
		return err
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to post message",
			goerr.V("destination_id", target),
			goerr.V("destination_kind", dest.Kind().String()),
			goerr.V("destination_name", dest.Name()))
	}

	return ts, nil
}

// PostEphemeral posts text visible only to userID
func (c *client) PostEphemeral(ctx context.Context, channelID, userID, text string) error {
	err := c.post(ctx, "chat.postEphemeral", func() error {
		_, err := c.api.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false))
		return err
	})
	if err != nil {
		return goerr.Wrap(err, "failed to post ephemeral message",
			goerr.V("channel_id", channelID), goerr.V("user_id", userID))
	}
	return nil
}

// AddReaction adds emoji to the message at timestamp. A reaction that is
// already there counts as added.
func (c *client) AddReaction(ctx context.Context, channelID, timestamp, emoji string) error {
	err := c.write(ctx, "reactions.add", func() error {
		return c.api.AddReactionContext(ctx, emoji, slack.NewRefToMessage(channelID, timestamp))
	})
	if isSlackError(err, errAlreadyReacted) {
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to add reaction",
			goerr.V("channel_id", channelID), goerr.V("timestamp", timestamp), goerr.V("emoji", emoji))
	}
	return nil
}

// GetPermalink returns the permalink of the message at timestamp
func (c *client) GetPermalink(ctx context.Context, channelID, timestamp string) (string, error) {
	var link string
	err := retryOp(ctx, c.retry, "chat.getPermalink", func() error {
		var err error
		link, err = c.api.GetPermalinkContext(ctx, &slack.PermalinkParameters{
			Channel: channelID,
			Ts:      timestamp,
		})
		return err
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to get permalink",
			goerr.V("channel_id", channelID), goerr.V("timestamp", timestamp))
	}
	return link, nil
}

// write waits for the write limiter before every attempt
func (c *client) write(ctx context.Context, method string, fn func() error) error {
	return c.limited(ctx, c.retry, method, fn)
}

// post is write for calls that create a message. Only rate limit responses
// are retried, since a 5xx does not tell whether the message was stored.
func (c *client) post(ctx context.Context, method string, fn func() error) error {
	return c.limited(ctx, c.retry.withoutServerErrors(), method, fn)
}

func (c *client) limited(ctx context.Context, cfg retryConfig, method string, fn func() error) error {
	return retryOp(ctx, cfg, method, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return goerr.Wrap(err, "rate limiter wait aborted", goerr.V("method", method))
		}
		return fn()
	})
}

func isSlackError(err error, code string) bool {
	var resp slack.SlackErrorResponse
	return errors.As(err, &resp) && resp.Err == code
}
