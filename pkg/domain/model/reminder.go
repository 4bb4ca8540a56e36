package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/minerva-bot/minerva/pkg/domain/types"
)

const (
	// EvaluationInterval is how often the reminder pass runs
	EvaluationInterval = 5 * time.Minute
	// ReminderHalfWindow is the tolerance around each reminder target
	ReminderHalfWindow = EvaluationInterval / 2

	SixHoursLead    = 6 * time.Hour
	FiveMinutesLead = 5 * time.Minute

	// DefaultFallbackMeetingLink is used when neither the event nor the
	// configuration names an online meeting link
	DefaultFallbackMeetingLink = "https://meet.waterloorocketry.com/bay_area"

	broadcastPrefix = "<!channel>\n"
	dateLayoutMonth = "January"
	dateLayoutRest  = "2006 at 3:04 PM"
)

// Reactions seeded onto six-hour reminders so members can RSVP
const (
	ReactionAttending    = "white_check_mark"
	ReactionNotAttending = "x"
)

// IsWithinWindow reports whether now falls in (target-half, target+half].
// Windows of adjacent targets spaced 2*half apart never overlap.
func IsWithinWindow(now, target time.Time, half time.Duration) bool {
	return now.After(target.Add(-half)) && !now.After(target.Add(half))
}

// ReminderKindFor returns the timer reminder due for the event at now, if any.
// Events without metadata never get one.
func ReminderKindFor(ev *CalendarEvent, now time.Time) (types.ReminderKind, bool) {
	if ev == nil || !ev.IsTracked() {
		return "", false
	}
	if IsWithinWindow(now, ev.Start.Add(-SixHoursLead), ReminderHalfWindow) {
		return types.ReminderSixHours, true
	}
	if IsWithinWindow(now, ev.Start.Add(-FiveMinutesLead), ReminderHalfWindow) {
		return types.ReminderFiveMinutes, true
	}
	return "", false
}

// RenderOptions holds the workspace settings reminder text depends on
type RenderOptions struct {
	// Location is the timezone absolute start times are shown in
	Location            *time.Location
	FallbackMeetingLink string
}

func (o RenderOptions) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o RenderOptions) fallbackLink() string {
	if o.FallbackMeetingLink == "" {
		return DefaultFallbackMeetingLink
	}
	return o.FallbackMeetingLink
}

// RenderChannelMessage composes the reminder posted to the event's channels
func RenderChannelMessage(ev *CalendarEvent, kind types.ReminderKind, now time.Time, opts RenderOptions) string {
	var b strings.Builder

	if kind.Pings() && !ev.IsCancelled {
		b.WriteString(broadcastPrefix)
	}

	verb := "is occurring"
	if ev.IsCancelled {
		verb = "has been cancelled"
	}
	fmt.Fprintf(&b, "Reminder: *%s* %s", ev.Title, verb)

	if kind.ShowsRelativeTime() {
		minutes := int(math.Ceil(ev.Start.Sub(now).Minutes()))
		fmt.Fprintf(&b, " in *%d minutes*", minutes)
	} else {
		fmt.Fprintf(&b, " at *%s*", FormatEventTime(ev.Start, opts.location()))
	}

	if ev.Permalink != "" {
		fmt.Fprintf(&b, "\n<%s|Event Details>", ev.Permalink)
	}

	b.WriteString("\nWays to attend:")
	if ev.Location != "" {
		fmt.Fprintf(&b, "\n\t:office: In person @ %s", ev.Location)
	}

	link := opts.fallbackLink()
	if ev.Metadata != nil && ev.Metadata.MeetingLink != "" {
		link = ev.Metadata.MeetingLink
	}
	fmt.Fprintf(&b, "\n\t:globe_with_meridians: Online @ %s", link)

	if kind == types.ReminderSixHours {
		fmt.Fprintf(&b, "\nReact with :%s: if you're coming, or :%s: if you're not!",
			ReactionAttending, ReactionNotAttending)
	}

	return b.String()
}

// ReminderReactions returns the emoji to seed on a posted reminder
func ReminderReactions(kind types.ReminderKind) []string {
	if kind == types.ReminderSixHours {
		return []string{ReactionAttending, ReactionNotAttending}
	}
	return nil
}

// FormatEventTime renders t like "January 2nd, 2006 at 3:04 PM" in loc
func FormatEventTime(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return fmt.Sprintf("%s %s, %s",
		local.Format(dateLayoutMonth), humanize.Ordinal(local.Day()), local.Format(dateLayoutRest))
}

// RenderGuestMessage wraps the permalink of a channel post for a DM to a guest
func RenderGuestMessage(permalink string) string {
	return permalink + "\n_You have been sent this message because you are a single channel guest who might have otherwise missed this alert._"
}
