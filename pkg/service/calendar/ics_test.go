package calendar_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/m-mizutani/gt"
	"github.com/minerva-bot/minerva/pkg/service/calendar"
)

const feed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//minerva//test//EN
BEGIN:VEVENT
UID:single@example.com
DTSTAMP:20261001T000000Z
DTSTART:20261014T160000Z
DTEND:20261014T170000Z
SUMMARY:Sync
DESCRIPTION:#propulsion\nWeekly sync\, all welcome
LOCATION:Bay
URL:https://cal.example.com/single
END:VEVENT
BEGIN:VEVENT
UID:standup@example.com
DTSTAMP:20261001T000000Z
DTSTART;TZID=America/Toronto:20261001T090000
DTEND;TZID=America/Toronto:20261001T093000
RRULE:FREQ=DAILY;COUNT=30
EXDATE;TZID=America/Toronto:20261015T090000
SUMMARY:Standup
URL:https://cal.example.com/standup
END:VEVENT
BEGIN:VEVENT
UID:standup@example.com
DTSTAMP:20261001T000000Z
RECURRENCE-ID;TZID=America/Toronto:20261014T090000
DTSTART;TZID=America/Toronto:20261014T110000
DTEND;TZID=America/Toronto:20261014T113000
SUMMARY:Moved standup
URL:https://cal.example.com/standup
END:VEVENT
BEGIN:VEVENT
UID:holiday@example.com
DTSTAMP:20261001T000000Z
DTSTART;VALUE=DATE:20261014
DTEND;VALUE=DATE:20261015
SUMMARY:Holiday
END:VEVENT
BEGIN:VEVENT
UID:later@example.com
DTSTAMP:20261001T000000Z
DTSTART:20261020T160000Z
DTEND:20261020T170000Z
SUMMARY:Later
END:VEVENT
BEGIN:VEVENT
UID:nolink@example.com
DTSTAMP:20261001T000000Z
DTSTART:20261014T200000Z
DTEND:20261014T210000Z
SUMMARY:Review
STATUS:CANCELLED
END:VEVENT
END:VCALENDAR
`

var (
	windowFrom = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	windowTo   = windowFrom.Add(48 * time.Hour)
)

func feedBody() string {
	return strings.ReplaceAll(feed, "\n", "\r\n")
}

func TestICS_FetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(feedBody()))
	}))
	defer srv.Close()

	src, err := calendar.NewICS(srv.URL+"/private/secret.ics",
		calendar.WithHTTPClient(srv.Client()),
		calendar.WithDetailsURL("https://cal.example.com/"),
	)
	gt.NoError(t, err).Required()

	events, err := src.FetchEvents(context.Background(), windowFrom, windowTo)
	gt.NoError(t, err).Required()
	gt.Array(t, events).Length(3).Required()

	moved := events[0]
	gt.Value(t, moved.Title).Equal("Moved standup")
	gt.Value(t, moved.Start.UTC()).Equal(time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC))
	gt.Value(t, moved.End.Sub(moved.Start)).Equal(30 * time.Minute)

	sync := events[1]
	gt.Value(t, sync.Title).Equal("Sync")
	gt.Value(t, sync.Description).Equal("#propulsion\nWeekly sync, all welcome")
	gt.Value(t, sync.Location).Equal("Bay")
	gt.Value(t, sync.Permalink).Equal("https://cal.example.com/single")

	review := events[2]
	gt.Value(t, review.Title).Equal("Review")
	gt.Value(t, review.Permalink).Equal("https://cal.example.com/")
	gt.Value(t, review.Status).Equal("cancelled")

	for _, ev := range events {
		gt.Value(t, ev.Title).NotEqual("Holiday")
		gt.Value(t, ev.Title).NotEqual("Later")
		// the 10/15 standup is excluded by EXDATE
		gt.Value(t, ev.Title).NotEqual("Standup")
	}
}

func TestICS_Recurrence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedBody()))
	}))
	defer srv.Close()

	src, err := calendar.NewICS(srv.URL, calendar.WithHTTPClient(srv.Client()))
	gt.NoError(t, err).Required()

	// 10/16 09:00 Toronto is 13:00 UTC
	from := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	events, err := src.FetchEvents(context.Background(), from, from.Add(24*time.Hour))
	gt.NoError(t, err).Required()
	gt.Array(t, events).Length(1).Required()
	gt.Value(t, events[0].Title).Equal("Standup")
	gt.Value(t, events[0].Start.UTC()).Equal(time.Date(2026, 10, 16, 13, 0, 0, 0, time.UTC))
}

func TestICS_Cache(t *testing.T) {
	var calls atomic.Int32
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(feedBody()))
	}))
	defer srv.Close()

	src, err := calendar.NewICS(srv.URL, calendar.WithHTTPClient(srv.Client()))
	gt.NoError(t, err).Required()
	ctx := context.Background()

	first, err := src.FetchEvents(ctx, windowFrom, windowTo)
	gt.NoError(t, err).Required()

	second, err := src.FetchEvents(ctx, windowFrom, windowTo)
	gt.NoError(t, err).Required()
	gt.Array(t, second).Length(len(first))

	fail.Store(true)
	third, err := src.FetchEvents(ctx, windowFrom, windowTo)
	gt.NoError(t, err).Required()
	gt.Array(t, third).Length(len(first))

	gt.Number(t, calls.Load()).Equal(3)
}

func TestICS_Errors(t *testing.T) {
	t.Run("status without cache", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		src, err := calendar.NewICS(srv.URL, calendar.WithHTTPClient(srv.Client()))
		gt.NoError(t, err).Required()

		_, err = src.FetchEvents(context.Background(), windowFrom, windowTo)
		gt.Error(t, err)
	})

	t.Run("malformed feed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not a calendar"))
		}))
		defer srv.Close()

		src, err := calendar.NewICS(srv.URL, calendar.WithHTTPClient(srv.Client()))
		gt.NoError(t, err).Required()

		_, err = src.FetchEvents(context.Background(), windowFrom, windowTo)
		gt.Error(t, err)
	})

	testCases := []struct {
		name string
		url  string
	}{
		{name: "empty", url: ""},
		{name: "not http", url: "webcal://example.com/feed.ics"},
	}
	for _, tt := range testCases {
		t.Run("rejects "+tt.name+" URL", func(t *testing.T) {
			_, err := calendar.NewICS(tt.url)
			gt.Error(t, err)
		})
	}
}
