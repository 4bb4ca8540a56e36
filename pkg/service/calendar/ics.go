package calendar

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/domain/interfaces"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"github.com/minerva-bot/minerva/pkg/utils/safe"
)

const defaultFetchTimeout = 15 * time.Second

// icsSource reads events from an iCalendar feed. The last good body is kept
// in memory and revalidated with ETag / Last-Modified, and it is reused when
// the feed is unreachable.
type icsSource struct {
	url        string
	detailsURL string
	location   *time.Location
	client     *http.Client

	mu           sync.Mutex
	etag         string
	lastModified string
	body         []byte
}

var _ interfaces.CalendarSource = (*icsSource)(nil)

type ICSOption func(*icsSource)

// WithHTTPClient replaces the HTTP client used to fetch the feed
func WithHTTPClient(client *http.Client) ICSOption {
	return func(s *icsSource) {
		s.client = client
	}
}

// WithDetailsURL sets the link used as an event's permalink when the VEVENT
// has no URL property. Without it such events are skipped.
func WithDetailsURL(url string) ICSOption {
	return func(s *icsSource) {
		s.detailsURL = url
	}
}

// WithFloatingLocation sets the zone of date-times that carry no TZID
func WithFloatingLocation(loc *time.Location) ICSOption {
	return func(s *icsSource) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewICS creates a calendar source over the feed at url
func NewICS(url string, opts ...ICSOption) (interfaces.CalendarSource, error) {
	if url == "" {
		return nil, goerr.New("ICS feed URL is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, goerr.New("ICS feed URL must be http or https", goerr.V("url", redactURL(url)))
	}

	s := &icsSource{
		url:      url,
		location: time.UTC,
		client:   &http.Client{Timeout: defaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FetchEvents downloads the feed and expands it to occurrences starting in
// [from, to)
func (s *icsSource) FetchEvents(ctx context.Context, from, to time.Time) ([]model.RawEvent, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse ICS feed", goerr.V("url", redactURL(s.url)))
	}

	logger := logging.From(ctx)
	parsed := make([]vevent, 0, len(cal.Events()))
	for _, comp := range cal.Events() {
		ev, err := parseVEvent(comp, s.location)
		if err != nil {
			logger.Warn("skipping VEVENT", "error", err)
			continue
		}
		if ev.allDay {
			logger.Debug("skipping all-day VEVENT", "uid", ev.uid, "title", ev.summary)
			continue
		}
		parsed = append(parsed, ev)
	}

	events := expand(ctx, parsed, from, to)
	for i := range events {
		if events[i].Permalink == "" {
			events[i].Permalink = s.detailsURL
		}
	}

	logger.Debug("fetched ICS events", "url", redactURL(s.url), "vevents", len(parsed), "count", len(events))
	return events, nil
}

func (s *icsSource) fetch(ctx context.Context) ([]byte, error) {
	logger := logging.From(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create ICS request")
	}
	if s.etag != "" {
		req.Header.Set("If-None-Match", s.etag)
	}
	if s.lastModified != "" {
		req.Header.Set("If-Modified-Since", s.lastModified)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if len(s.body) > 0 {
			logger.Warn("ICS fetch failed, using cached feed", "url", redactURL(s.url), "error", err)
			return s.body, nil
		}
		return nil, goerr.Wrap(err, "failed to fetch ICS feed", goerr.V("url", redactURL(s.url)))
	}
	defer safe.Close(ctx, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read ICS feed", goerr.V("url", redactURL(s.url)))
		}
		s.body = body
		s.etag = resp.Header.Get("ETag")
		s.lastModified = resp.Header.Get("Last-Modified")
		return body, nil

	case http.StatusNotModified:
		if len(s.body) == 0 {
			return nil, goerr.New("ICS feed not modified but nothing is cached", goerr.V("url", redactURL(s.url)))
		}
		return s.body, nil

	default:
		if len(s.body) > 0 {
			logger.Warn("ICS feed returned an error status, using cached feed",
				"url", redactURL(s.url), "status", resp.StatusCode)
			return s.body, nil
		}
		return nil, goerr.New("unexpected ICS feed status",
			goerr.V("url", redactURL(s.url)),
			goerr.V("status", resp.StatusCode),
		)
	}
}

// redactURL keeps only scheme and host; private feed URLs carry a secret path
func redactURL(u string) string {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return "(redacted)"
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host + "/...(redacted)"
}
