package calendar

import (
	"context"
	"sort"
	"time"

	"github.com/minerva-bot/minerva/pkg/domain/model"
	"github.com/minerva-bot/minerva/pkg/utils/logging"
	"github.com/teambition/rrule-go"
)

// maxOccurrences caps expansion of a single recurring event
const maxOccurrences = 500

// expand turns parsed VEVENTs into the occurrences starting in [from, to),
// applying EXDATE and RECURRENCE-ID overrides, soonest first.
func expand(ctx context.Context, events []vevent, from, to time.Time) []model.RawEvent {
	logger := logging.From(ctx)

	base := make([]vevent, 0, len(events))
	overrides := make(map[string][]vevent)
	for _, ev := range events {
		if ev.recurrenceID != nil {
			overrides[ev.uid] = append(overrides[ev.uid], ev)
			continue
		}
		base = append(base, ev)
	}

	var out []model.RawEvent
	for _, ev := range base {
		if ev.rrule == "" {
			if inRange(ev.start, from, to) {
				out = append(out, toRawEvent(ev, ev.start, ev.end))
			}
			continue
		}

		rule, err := rrule.StrToRRule(ev.rrule)
		if err != nil {
			logger.Warn("skipping VEVENT with invalid RRULE", "uid", ev.uid, "rrule", ev.rrule, "error", err)
			continue
		}
		rule.DTStart(ev.start)

		var set rrule.Set
		set.RRule(rule)
		for _, ex := range ev.exdates {
			set.ExDate(ex.In(ev.start.Location()))
		}

		// an override may move an instance into or out of the window, so
		// instances are searched one duration earlier than from
		duration := ev.end.Sub(ev.start)
		starts := set.Between(from.Add(-duration).In(ev.start.Location()), to.In(ev.start.Location()), true)
		if len(starts) > maxOccurrences {
			logger.Warn("truncating recurring VEVENT", "uid", ev.uid, "occurrences", len(starts))
			starts = starts[:maxOccurrences]
		}

		for _, start := range starts {
			instance := ev
			end := start.Add(duration)
			if o, ok := findOverride(overrides[ev.uid], start); ok {
				instance, start, end = o, o.start, o.end
			}
			if inRange(start, from, to) {
				out = append(out, toRawEvent(instance, start, end))
			}
		}
	}

	// overrides whose base event is missing from the feed are kept as is
	for uid, list := range overrides {
		if hasBase(base, uid) {
			continue
		}
		for _, o := range list {
			if inRange(o.start, from, to) {
				out = append(out, toRawEvent(o, o.start, o.end))
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func findOverride(overrides []vevent, start time.Time) (vevent, bool) {
	for _, o := range overrides {
		if o.recurrenceID.Equal(start) {
			return o, true
		}
	}
	return vevent{}, false
}

func hasBase(base []vevent, uid string) bool {
	for _, ev := range base {
		if ev.uid == uid {
			return true
		}
	}
	return false
}

func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func toRawEvent(ev vevent, start, end time.Time) model.RawEvent {
	return model.RawEvent{
		Title:       ev.summary,
		Description: ev.description,
		Permalink:   ev.url,
		Location:    ev.location,
		Start:       start,
		End:         end,
		Status:      ev.status,
	}
}
