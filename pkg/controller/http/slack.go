package http

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/utils/async"
	"github.com/minerva-bot/minerva/pkg/utils/errutil"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"github.com/minerva-bot/minerva/pkg/utils/safe"
	"github.com/slack-go/slack"
)

const (
	headerSlackTimestamp = "X-Slack-Request-Timestamp"
	headerSlackSignature = "X-Slack-Signature"
)

// verifySlackSignature checks the v0 request signature. Requests older than
// five minutes are rejected.
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	if signingSecret == "" {
		return goerr.New("signing secret is not configured")
	}
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}
	if signature == "" {
		return goerr.New("missing signature")
	}

	header := http.Header{}
	header.Set(headerSlackTimestamp, timestamp)
	header.Set(headerSlackSignature, signature)

	sv, err := slack.NewSecretsVerifier(header, signingSecret)
	if err != nil {
		return goerr.Wrap(err, "invalid signature headers", goerr.V("timestamp", timestamp))
	}
	if _, err := sv.Write(body); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	if err := sv.Ensure(); err != nil {
		return goerr.Wrap(err, "signature mismatch")
	}

	return nil
}

// SlackSignatureMiddleware rejects requests that were not signed by Slack.
// The body is restored for the next handler.
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			safe.Close(ctx, r.Body)

			timestamp := r.Header.Get(headerSlackTimestamp)
			signature := r.Header.Get(headerSlackSignature)

			if err := verifySlackSignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

// CommandUseCase runs a slash command to completion
type CommandUseCase interface {
	Handle(ctx context.Context, cmd model.SlashCommand) error
}

// SlackCommandHandler acknowledges slash commands and runs them in the
// background, since Slack expects an answer within three seconds.
type SlackCommandHandler struct {
	commandUC CommandUseCase
}

func NewSlackCommandHandler(commandUC CommandUseCase) *SlackCommandHandler {
	return &SlackCommandHandler{commandUC: commandUC}
}

func (h *SlackCommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s, err := slack.SlashCommandParse(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slash command"), http.StatusBadRequest)
		return
	}
	if s.Command == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("slash command has no command field"), http.StatusBadRequest)
		return
	}

	cmd := model.SlashCommand{
		Command:     s.Command,
		Text:        s.Text,
		ChannelID:   s.ChannelID,
		ChannelName: s.ChannelName,
		UserID:      s.UserID,
		UserName:    s.UserName,
	}

	w.WriteHeader(http.StatusOK)

	async.Dispatch(ctx, func(ctx context.Context) error {
		logging.From(ctx).Debug("processing slash command", "command", cmd.Command, "team_id", s.TeamID)
		if err := h.commandUC.Handle(ctx, cmd); err != nil {
			return goerr.Wrap(err, "failed to handle slash command", goerr.V("command", cmd.Command))
		}
		return nil
	})
}
