package model

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"
)

const (
	metadataSeparator = "---"
	noDMModifier      = "no-dm"
	headerScanLines   = 2
)

// EventMetadata is the routing information carried in an event description.
// Events without it are not tracked for reminders.
type EventMetadata struct {
	Channel               Channel
	AdditionalChannels    []Channel
	MeetingLink           string
	DMSingleChannelGuests bool
}

// Channels returns the main channel followed by the additional ones
func (m *EventMetadata) Channels() []Channel {
	return append([]Channel{m.Channel}, m.AdditionalChannels...)
}

// footerBlock is the YAML mapping placed after a "---" line
type footerBlock struct {
	Channels    channelTokens `yaml:"channels"`
	MeetingLink string        `yaml:"meetingLink"`
}

type channelTokens []string

func (c *channelTokens) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*c = splitChannelTokens(node.Value)
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		for _, item := range items {
			*c = append(*c, splitChannelTokens(item)...)
		}
	default:
		return goerr.New("channels must be a string or a list", goerr.V("line", node.Line))
	}
	return nil
}

func splitChannelTokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimLeft(f, "#"); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// ParseDescription converts a calendar description into clean text and the
// event metadata it carries, if any.
//
// Two placements are recognized. When the text has a "---" line, everything
// after it is a YAML block with "channels" and an optional "meetingLink".
// Otherwise the first two lines may hold "#channel [no-dm]" and a meeting
// link; lines further down are always body text.
func ParseDescription(ctx context.Context, raw string, dir *ChannelDirectory) (string, *EventMetadata, error) {
	text := HTMLToText(raw)
	if text == "" {
		return "", nil, nil
	}

	lines := strings.Split(text, "\n")
	sepIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != metadataSeparator {
			continue
		}
		if sepIdx >= 0 {
			return "", nil, goerr.Wrap(ErrMultipleSeparators, "failed to split description",
				goerr.V("first_line", sepIdx+1), goerr.V("second_line", i+1))
		}
		sepIdx = i
	}

	if sepIdx >= 0 {
		body := strings.TrimSpace(strings.Join(lines[:sepIdx], "\n"))
		footer := strings.Join(lines[sepIdx+1:], "\n")
		meta, err := parseFooter(ctx, footer, dir)
		if err != nil {
			return "", nil, err
		}
		return body, meta, nil
	}

	return parseHeader(ctx, lines, dir)
}

func parseFooter(ctx context.Context, footer string, dir *ChannelDirectory) (*EventMetadata, error) {
	if strings.TrimSpace(footer) == "" {
		return nil, nil
	}

	var block footerBlock
	if err := yaml.Unmarshal([]byte(quoteChannelValues(footer)), &block); err != nil {
		return nil, goerr.Wrap(ErrMalformedMetadata, "failed to decode metadata block",
			goerr.V("cause", err.Error()))
	}

	return buildMetadata(ctx, block.Channels, strings.TrimSpace(block.MeetingLink), dir)
}

// quoteChannelValues quotes "channels" values and list items that contain
// '#', which YAML would otherwise read as the start of a comment.
func quoteChannelValues(footer string) string {
	lines := strings.Split(footer, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		indent := line[:len(line)-len(trimmed)]

		var prefix, value string
		switch {
		case strings.HasPrefix(trimmed, "channels:"):
			prefix, value = "channels: ", strings.TrimPrefix(trimmed, "channels:")
		case strings.HasPrefix(trimmed, "- "):
			prefix, value = "- ", strings.TrimPrefix(trimmed, "- ")
		default:
			continue
		}

		value = strings.TrimSpace(value)
		if !strings.Contains(value, "#") || strings.HasPrefix(value, `"`) || strings.HasPrefix(value, "'") {
			continue
		}
		lines[i] = indent + prefix + strconv.Quote(value)
	}
	return strings.Join(lines, "\n")
}

func parseHeader(ctx context.Context, lines []string, dir *ChannelDirectory) (string, *EventMetadata, error) {
	var channelLine, meetingLink string
	hasChannelLine := false
	consumed := 0

scan:
	for i := 0; i < len(lines) && i < headerScanLines; i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case !hasChannelLine && strings.HasPrefix(line, "#"):
			channelLine = line
			hasChannelLine = true
		case meetingLink == "" && strings.HasPrefix(line, "http"):
			meetingLink = line
		default:
			break scan
		}
		consumed = i + 1
	}

	body := strings.TrimSpace(strings.Join(lines[consumed:], "\n"))

	if !hasChannelLine {
		if meetingLink == "" {
			return body, nil, nil
		}
		// a bare link is part of the description, not routing data
		return strings.TrimSpace(meetingLink + "\n" + body), nil, nil
	}

	meta, err := buildMetadata(ctx, splitChannelTokens(channelLine), meetingLink, dir)
	if err != nil {
		return "", nil, err
	}
	return body, meta, nil
}

func buildMetadata(ctx context.Context, tokens []string, meetingLink string, dir *ChannelDirectory) (*EventMetadata, error) {
	meta := &EventMetadata{
		MeetingLink:           meetingLink,
		DMSingleChannelGuests: true,
	}

	names := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == noDMModifier {
			meta.DMSingleChannelGuests = false
			continue
		}
		names = append(names, t)
	}
	if len(names) == 0 {
		return nil, goerr.Wrap(ErrChannelsNotSpecified, "failed to build event metadata")
	}

	primary, err := dir.ResolveChannelByName(names[0])
	if err != nil {
		return nil, err
	}
	meta.Channel = primary

	for _, ch := range dir.ResolveChannels(ctx, names[1:]) {
		if ch.ID != primary.ID {
			meta.AdditionalChannels = append(meta.AdditionalChannels, ch)
		}
	}

	if meetingLink != "" && !isPlausibleURL(meetingLink) {
		logging.From(ctx).Warn("meeting link does not look like a URL", "meeting_link", meetingLink)
	}

	return meta, nil
}

func isPlausibleURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// HTMLToText converts calendar HTML to plain text. Block elements and <br>
// become line breaks and links collapse to their href. Plain text passes
// through unchanged apart from entity decoding, and <scheme:...> autolinks
// lose only their brackets.
func HTMLToText(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	inLink := false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return normalizeText(b.String())

		case html.TextToken:
			if !inLink {
				b.Write(z.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			// <https://...> in plain text descriptions is an autolink, not a tag
			if strings.ContainsAny(tok.Data, ":/") {
				if !inLink {
					b.WriteString(strings.TrimSuffix(strings.TrimPrefix(raw, "<"), ">"))
				}
				continue
			}
			switch tok.DataAtom {
			case atom.Br:
				b.WriteByte('\n')
			case atom.P, atom.Div, atom.Li, atom.Ul, atom.Ol:
				breakLine(&b)
			case atom.A:
				for _, attr := range tok.Attr {
					if attr.Key == "href" && attr.Val != "" {
						b.WriteString(attr.Val)
						inLink = tt == html.StartTagToken
						break
					}
				}
			}

		case html.EndTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.P, atom.Div, atom.Li:
				breakLine(&b)
				inLink = false
			case atom.A:
				inLink = false
			}
		}
	}
}

func breakLine(b *strings.Builder) {
	s := b.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
