package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
)

// StatusCancelled is the calendar status of a cancelled event
const StatusCancelled = "cancelled"

var cancelledMarkers = []string{"[cancelled]", "[canceled]"}

// RawEvent is a calendar record as returned by a calendar source
type RawEvent struct {
	Title       string
	Description string
	Permalink   string
	Location    string
	Start       time.Time
	End         time.Time
	Status      string
}

// CalendarEvent is an event built for one evaluation pass
type CalendarEvent struct {
	Title       string
	Description string
	Permalink   string
	Location    string
	Start       time.Time
	End         time.Time
	IsCancelled bool
	Metadata    *EventMetadata
}

// IsTracked reports whether the event carries routing metadata
func (e *CalendarEvent) IsTracked() bool {
	return e.Metadata != nil
}

// SendsTo reports whether channelID is one of the event's channels
func (e *CalendarEvent) SendsTo(channelID string) bool {
	if e.Metadata == nil {
		return false
	}
	for _, ch := range e.Metadata.Channels() {
		if ch.ID == channelID {
			return true
		}
	}
	return false
}

// NewCalendarEvent builds an event from a raw record, parsing the description
// against the channel directory.
func NewCalendarEvent(ctx context.Context, raw RawEvent, dir *ChannelDirectory) (*CalendarEvent, error) {
	switch {
	case strings.TrimSpace(raw.Title) == "":
		return nil, missingField("title", raw)
	case raw.Start.IsZero():
		return nil, missingField("start", raw)
	case raw.End.IsZero():
		return nil, missingField("end", raw)
	case raw.Permalink == "":
		return nil, missingField("permalink", raw)
	}

	title, cancelled := stripCancelledMarker(strings.TrimSpace(raw.Title))
	if strings.EqualFold(raw.Status, StatusCancelled) {
		cancelled = true
	}

	description, meta, err := ParseDescription(ctx, raw.Description, dir)
	if err != nil {
		return nil, goerr.Wrap(err, fmt.Sprintf("failed to parse description for event '%s'", raw.Title),
			goerr.V("title", raw.Title), goerr.V("start", raw.Start))
	}

	return &CalendarEvent{
		Title:       title,
		Description: description,
		Permalink:   raw.Permalink,
		Location:    strings.TrimSpace(raw.Location),
		Start:       raw.Start,
		End:         raw.End,
		IsCancelled: cancelled,
		Metadata:    meta,
	}, nil
}

func missingField(field string, raw RawEvent) error {
	return goerr.Wrap(ErrMissingField, "calendar record is incomplete",
		goerr.V(FieldKey, field), goerr.V("title", raw.Title), goerr.V("permalink", raw.Permalink))
}

func stripCancelledMarker(title string) (string, bool) {
	lower := strings.ToLower(title)
	for _, marker := range cancelledMarkers {
		if strings.HasPrefix(lower, marker) {
			return strings.TrimSpace(title[len(marker):]), true
		}
	}
	return title, false
}

// ParseEvents builds every record it can. A record that fails is logged and
// skipped so one bad description never hides the rest of the batch.
func ParseEvents(ctx context.Context, raws []RawEvent, dir *ChannelDirectory) []*CalendarEvent {
	logger := logging.From(ctx)
	events := make([]*CalendarEvent, 0, len(raws))
	for _, raw := range raws {
		ev, err := NewCalendarEvent(ctx, raw, dir)
		if err != nil {
			var values map[string]any
			var ge *goerr.Error
			if errors.As(err, &ge) {
				values = ge.Values()
			}
			logger.Warn("skipping calendar event",
				"title", raw.Title,
				"start", raw.Start,
				"error", err.Error(),
				"values", values,
			)
			continue
		}
		events = append(events, ev)
	}
	return events
}

// FilterEventsForChannel returns the tracked events that send to channelID,
// soonest first.
func FilterEventsForChannel(events []*CalendarEvent, channelID string) []*CalendarEvent {
	var result []*CalendarEvent
	for _, ev := range events {
		if ev.SendsTo(channelID) {
			result = append(result, ev)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})
	return result
}
