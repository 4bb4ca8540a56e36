package calendar

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/domain/interfaces"
	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// DefaultCalendarID is the calendar of the authorized account
const DefaultCalendarID = "primary"

const googlePageSize = 250

// googleSource reads events from Google Calendar API v3
type googleSource struct {
	svc        *gcal.Service
	calendarID string
}

var _ interfaces.CalendarSource = (*googleSource)(nil)

// RefreshTokenSource returns a token source for an installed OAuth2 client
// that was granted offline access once. Access tokens are refreshed on demand.
func RefreshTokenSource(ctx context.Context, clientID, clientSecret, refreshToken string) (oauth2.TokenSource, error) {
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, goerr.New("Google OAuth2 client ID, client secret and refresh token are required")
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarReadonlyScope},
	}
	return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}), nil
}

// NewGoogle creates a Google Calendar source. Authentication is passed as a
// client option, usually option.WithTokenSource.
func NewGoogle(ctx context.Context, calendarID string, opts ...option.ClientOption) (interfaces.CalendarSource, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Google Calendar client")
	}

	return &googleSource{svc: svc, calendarID: calendarID}, nil
}

// FetchEvents lists single (already expanded) events starting in [from, to)
func (s *googleSource) FetchEvents(ctx context.Context, from, to time.Time) ([]model.RawEvent, error) {
	logger := logging.From(ctx)

	var events []model.RawEvent
	pageToken := ""
	for {
		call := s.svc.Events.List(s.calendarID).
			TimeMin(from.Format(time.RFC3339)).
			TimeMax(to.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(googlePageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list calendar events",
				goerr.V("calendar_id", s.calendarID),
				goerr.V("from", from),
				goerr.V("to", to),
			)
		}

		for _, item := range resp.Items {
			ev, ok := convertGoogleEvent(item)
			if !ok {
				logger.Debug("skipping all-day or undated calendar event", "id", item.Id, "title", item.Summary)
				continue
			}
			if ev.Start.Before(from) || !ev.Start.Before(to) {
				continue
			}
			events = append(events, ev)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	logger.Debug("fetched calendar events", "calendar_id", s.calendarID, "count", len(events))
	return events, nil
}

// convertGoogleEvent returns false for events without a start time, which
// is how the API represents all-day events.
func convertGoogleEvent(item *gcal.Event) (model.RawEvent, bool) {
	if item.Start == nil || item.End == nil || item.Start.DateTime == "" || item.End.DateTime == "" {
		return model.RawEvent{}, false
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return model.RawEvent{}, false
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return model.RawEvent{}, false
	}

	return model.RawEvent{
		Title:       item.Summary,
		Description: item.Description,
		Permalink:   item.HtmlLink,
		Location:    item.Location,
		Start:       start,
		End:         end,
		Status:      item.Status,
	}, true
}
