package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
)

const logPostTimeout = 10 * time.Second

// MessagePoster is the part of the workspace the log handler needs
type MessagePoster interface {
	PostMessage(ctx context.Context, dest model.Destination, text string) (string, error)
}

// LogHandler mirrors log records into a Slack channel as
// "[time] [LEVEL] message" followed by a code block of attributes.
// Failures to post are written to the fallback handler.
type LogHandler struct {
	poster      MessagePoster
	channel     model.Channel
	level       slog.Leveler
	fallback    slog.Handler
	replaceAttr func(groups []string, a slog.Attr) slog.Attr
	attrs       []boundAttr
	groups      []string
}

// boundAttr is an attribute added by WithAttrs with the groups open at that time
type boundAttr struct {
	groups []string
	attr   slog.Attr
}

// LogHandlerOption configures a LogHandler
type LogHandlerOption func(*LogHandler)

// WithReplaceAttr rewrites every non-group attribute before it is posted,
// as slog.HandlerOptions.ReplaceAttr does
func WithReplaceAttr(fn func(groups []string, a slog.Attr) slog.Attr) LogHandlerOption {
	return func(h *LogHandler) {
		h.replaceAttr = fn
	}
}

// NewLogHandler creates a handler posting records at or above level to channelID
func NewLogHandler(poster MessagePoster, channelID string, level slog.Leveler, fallback slog.Handler, opts ...LogHandlerOption) *LogHandler {
	h := &LogHandler{
		poster:   poster,
		channel:  model.Channel{ID: channelID, Name: channelID},
		level:    level,
		fallback: fallback,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	text := h.format(r)

	// posting must not log back into this handler
	postCtx, cancel := context.WithTimeout(
		logging.With(context.WithoutCancel(ctx), slog.New(h.fallback)), logPostTimeout)
	defer cancel()

	if _, err := h.poster.PostMessage(postCtx, model.ChannelDestination(h.channel), text); err != nil {
		slog.New(h.fallback).Error("failed to mirror log record to Slack",
			"channel_id", h.channel.ID,
			"error", err.Error(),
			"message", r.Message,
		)
	}
	return nil
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]boundAttr(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, boundAttr{groups: h.groups, attr: a})
	}
	return &next
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func (h *LogHandler) format(r slog.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", r.Time.UTC().Format(time.RFC3339), r.Level.String(), r.Message)

	var lines []string
	for _, bound := range h.attrs {
		lines = h.appendAttr(lines, bound.groups, bound.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		lines = h.appendAttr(lines, h.groups, a)
		return true
	})

	if len(lines) > 0 {
		b.WriteString("\n```\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n```")
	}
	return b.String()
}

func (h *LogHandler) appendAttr(lines []string, groups []string, a slog.Attr) []string {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		childGroups := groups
		if a.Key != "" {
			childGroups = append(append([]string(nil), groups...), a.Key)
		}
		for _, child := range v.Group() {
			lines = h.appendAttr(lines, childGroups, child)
		}
		return lines
	}
	if a.Key == "" {
		return lines
	}

	if h.replaceAttr != nil {
		a = h.replaceAttr(groups, slog.Attr{Key: a.Key, Value: v})
		if a.Key == "" {
			return lines
		}
		v = a.Value.Resolve()
	}

	prefix := ""
	if len(groups) > 0 {
		prefix = strings.Join(groups, ".") + "."
	}
	return append(lines, fmt.Sprintf("%s%s: %s", prefix, a.Key, v.String()))
}
