package calendar

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/m-mizutani/goerr/v2"
)

// vevent is one VEVENT reduced to what reminders need
type vevent struct {
	uid         string
	summary     string
	description string
	location    string
	url         string
	status      string

	start  time.Time
	end    time.Time
	allDay bool

	rrule        string
	exdates      []time.Time
	recurrenceID *time.Time
}

func parseVEvent(ve *ical.VEvent, floating *time.Location) (vevent, error) {
	var out vevent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, goerr.New("VEVENT has no UID")
	}
	out.uid = uid.Value

	out.summary = unescapeText(propValue(ve, ical.ComponentPropertySummary))
	out.description = unescapeText(propValue(ve, ical.ComponentPropertyDescription))
	out.location = unescapeText(propValue(ve, ical.ComponentPropertyLocation))
	out.url = propValue(ve, ical.ComponentPropertyUrl)
	out.status = strings.ToLower(propValue(ve, ical.ComponentPropertyStatus))

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return out, goerr.New("VEVENT has no DTSTART", goerr.V("uid", out.uid))
	}
	if isDateValue(dtstart) {
		out.allDay = true
		return out, nil
	}

	start, err := propTime(dtstart, floating)
	if err != nil {
		return out, goerr.Wrap(err, "invalid DTSTART", goerr.V("uid", out.uid))
	}
	out.start = start

	if dtend := ve.GetProperty(ical.ComponentPropertyDtEnd); dtend != nil {
		end, err := propTime(dtend, floating)
		if err != nil {
			return out, goerr.Wrap(err, "invalid DTEND", goerr.V("uid", out.uid))
		}
		out.end = end
	} else {
		out.end = start
	}

	out.rrule = propValue(ve, ical.ComponentPropertyRrule)

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := parseICSTime(part, paramLocation(p, floating))
			if err == nil {
				out.exdates = append(out.exdates, t)
			}
		}
	}

	if rid := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); rid != nil {
		t, err := propTime(rid, floating)
		if err == nil {
			out.recurrenceID = &t
		}
	}

	return out, nil
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

var textUnescaper = strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)

// unescapeText decodes RFC 5545 TEXT escapes
func unescapeText(s string) string {
	return textUnescaper.Replace(s)
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// paramLocation resolves the TZID parameter, falling back to floating
func paramLocation(p *ical.IANAProperty, floating *time.Location) *time.Location {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if loc, err := time.LoadLocation(tzs[0]); err == nil {
			return loc
		}
	}
	return floating
}

func propTime(p *ical.IANAProperty, floating *time.Location) (time.Time, error) {
	return parseICSTime(p.Value, paramLocation(p, floating))
}

// parseICSTime parses DATE-TIME values in UTC ("...Z") or local form
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}
