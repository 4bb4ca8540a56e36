package calendar_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/minerva-bot/minerva/pkg/service/calendar"
	"google.golang.org/api/option"
)

func newGoogleServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var queries []string

	pages := map[string]map[string]any{
		"": {
			"items": []map[string]any{
				{
					"id":          "e1",
					"summary":     "Sync",
					"description": "#propulsion<br>Weekly",
					"htmlLink":    "https://calendar.google.com/event?eid=e1",
					"location":    "Bay",
					"status":      "confirmed",
					"start":       map[string]string{"dateTime": "2026-10-14T16:00:00Z"},
					"end":         map[string]string{"dateTime": "2026-10-14T17:00:00Z"},
				},
				{
					"id":       "e2",
					"summary":  "Holiday",
					"htmlLink": "https://calendar.google.com/event?eid=e2",
					"start":    map[string]string{"date": "2026-10-14"},
					"end":      map[string]string{"date": "2026-10-15"},
				},
				{
					"id":       "e3",
					"summary":  "Already running",
					"htmlLink": "https://calendar.google.com/event?eid=e3",
					"start":    map[string]string{"dateTime": "2026-10-14T11:30:00Z"},
					"end":      map[string]string{"dateTime": "2026-10-14T13:00:00Z"},
				},
			},
			"nextPageToken": "page2",
		},
		"page2": {
			"items": []map[string]any{
				{
					"id":       "e4",
					"summary":  "Review",
					"htmlLink": "https://calendar.google.com/event?eid=e4",
					"status":   "cancelled",
					"start":    map[string]string{"dateTime": "2026-10-14T20:00:00-04:00"},
					"end":      map[string]string{"dateTime": "2026-10-14T21:00:00-04:00"},
				},
			},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calendars/team@example.com/events" {
			http.NotFound(w, r)
			return
		}
		queries = append(queries, r.URL.RawQuery)

		q := r.URL.Query()
		if q.Get("singleEvents") != "true" || q.Get("orderBy") != "startTime" {
			http.Error(w, "unexpected query", http.StatusBadRequest)
			return
		}
		page, ok := pages[q.Get("pageToken")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(srv.Close)
	return srv, &queries
}

func TestGoogle_FetchEvents(t *testing.T) {
	srv, queries := newGoogleServer(t)
	ctx := context.Background()

	src, err := calendar.NewGoogle(ctx, "team@example.com",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	gt.NoError(t, err).Required()

	from := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	events, err := src.FetchEvents(ctx, from, from.Add(24*time.Hour))
	gt.NoError(t, err).Required()

	gt.Array(t, *queries).Length(2)
	gt.Array(t, events).Length(2).Required()

	gt.Value(t, events[0].Title).Equal("Sync")
	gt.Value(t, events[0].Description).Equal("#propulsion<br>Weekly")
	gt.Value(t, events[0].Permalink).Equal("https://calendar.google.com/event?eid=e1")
	gt.Value(t, events[0].Location).Equal("Bay")
	gt.Value(t, events[0].Start.UTC()).Equal(time.Date(2026, 10, 14, 16, 0, 0, 0, time.UTC))

	gt.Value(t, events[1].Title).Equal("Review")
	gt.Value(t, events[1].Status).Equal("cancelled")
	gt.Value(t, events[1].Start.UTC()).Equal(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC))
}

func TestGoogle_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":401,"message":"invalid credentials"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()
	ctx := context.Background()

	src, err := calendar.NewGoogle(ctx, "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	gt.NoError(t, err).Required()

	_, err = src.FetchEvents(ctx, time.Now(), time.Now().Add(time.Hour))
	gt.Error(t, err)
}

func TestRefreshTokenSource(t *testing.T) {
	_, err := calendar.RefreshTokenSource(context.Background(), "id", "", "token")
	gt.Error(t, err)

	ts, err := calendar.RefreshTokenSource(context.Background(), "id", "secret", "token")
	gt.NoError(t, err).Required()
	gt.Value(t, ts).NotNil()
}

func TestGoogle_Integration(t *testing.T) {
	clientID := os.Getenv("TEST_GOOGLE_CLIENT_ID")
	secret := os.Getenv("TEST_GOOGLE_CLIENT_SECRET")
	token := os.Getenv("TEST_GOOGLE_REFRESH_TOKEN")
	if clientID == "" || secret == "" || token == "" {
		t.Skip("TEST_GOOGLE_CLIENT_ID, TEST_GOOGLE_CLIENT_SECRET and TEST_GOOGLE_REFRESH_TOKEN are not set")
	}
	ctx := context.Background()

	ts, err := calendar.RefreshTokenSource(ctx, clientID, secret, token)
	gt.NoError(t, err).Required()

	src, err := calendar.NewGoogle(ctx, os.Getenv("TEST_GOOGLE_CALENDAR_ID"), option.WithTokenSource(ts))
	gt.NoError(t, err).Required()

	_, err = src.FetchEvents(ctx, time.Now(), time.Now().Add(24*time.Hour))
	gt.NoError(t, err)
}
