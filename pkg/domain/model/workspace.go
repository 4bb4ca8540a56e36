package model

import (
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

const archivesPath = "/archives/"

// Workspace is the Slack workspace the bot serves, identified by its base URL
// such as "https://example.slack.com".
type Workspace struct {
	url string
}

// NewWorkspace validates rawURL and returns the workspace it identifies
func NewWorkspace(rawURL string) (*Workspace, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidWorkspaceURL, "failed to parse workspace URL",
			goerr.V(URLKey, rawURL), goerr.V("cause", err.Error()))
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, goerr.Wrap(ErrInvalidWorkspaceURL, "workspace URL must be absolute",
			goerr.V(URLKey, rawURL))
	}
	return &Workspace{url: trimmed}, nil
}

// URL returns the base URL without a trailing slash
func (w *Workspace) URL() string {
	return w.url
}

// IsPermalink reports whether link points at a message in this workspace
func (w *Workspace) IsPermalink(link string) bool {
	_, err := w.ChannelIDFromPermalink(link)
	return err == nil
}

// ChannelIDFromPermalink extracts the channel ID from a message permalink
// such as "https://example.slack.com/archives/C0123/p1700000000000000".
func (w *Workspace) ChannelIDFromPermalink(link string) (string, error) {
	rest, ok := strings.CutPrefix(link, w.url+archivesPath)
	if !ok {
		return "", goerr.Wrap(ErrNotWorkspacePermalink, "link is outside the workspace archives",
			goerr.V(URLKey, link), goerr.V("workspace", w.url))
	}

	channelID := rest
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		channelID = rest[:i]
	}
	if channelID == "" {
		return "", goerr.Wrap(ErrNotWorkspacePermalink, "permalink has no channel segment",
			goerr.V(URLKey, link))
	}
	return channelID, nil
}
