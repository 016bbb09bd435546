package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "tutorpage/internal/log"
	"tutorpage/internal/model"
	"tutorpage/internal/schedule"
)

const (
	defaultCalendarName = "Office Hours"
	defaultProductID    = "-//tutorpage//office hours//EN"
	defaultUIDDomain    = "tutorpage.local"

	icalLocalFormat = "20060102T150405"
)

// uidNamespace seeds the name-based UUIDs so a block keeps its UID across
// exports and calendar clients update instead of duplicating events.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("tutorpage"))

var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ExportOptions controls calendar metadata.
type ExportOptions struct {
	// Name is shown by calendar clients (X-WR-CALNAME).
	Name string
	// Description is an optional X-WR-CALDESC.
	Description string
	// UIDDomain is appended to event UIDs.
	UIDDomain string
	// Now is used for DTSTAMP. Defaults to time.Now.
	Now func() time.Time
}

// Export renders blocks as an iCalendar feed. Each block becomes one weekly
// recurring VEVENT whose first instance falls in the week starting at
// weekStart. Times carry a TZID for weekStart's location, described by a
// VTIMEZONE, so the wall-clock time stays fixed across DST changes. Blocks
// with bad times are skipped.
func Export(blocks []model.TimeBlock, weekStart time.Time, opts ExportOptions) (string, error) {
	if opts.Name == "" {
		opts.Name = defaultCalendarName
	}
	if opts.UIDDomain == "" {
		opts.UIDDomain = defaultUIDDomain
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	loc := weekStart.Location()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(defaultProductID)
	cal.SetXWRCalName(opts.Name)
	cal.SetXWRTimezone(loc.String())
	if opts.Description != "" {
		cal.SetXWRCalDesc(opts.Description)
	}

	cal.AddVTimezone(buildTimezone(loc, weekStart.Year()))

	stamp := now().UTC()
	exported := 0
	for _, b := range blocks {
		occ, err := FirstOccurrence(b, weekStart)
		if err != nil {
			appLog.Error("ics export: skipping block", err, "day", b.Day.String(), "title", b.Title)
			continue
		}

		ev := cal.AddEvent(BlockUID(b, opts.UIDDomain))
		ev.SetDtStampTime(stamp)
		tzid := &ical.KeyValues{Key: string(ical.ParameterTzid), Value: []string{loc.String()}}
		ev.SetProperty(ical.ComponentPropertyDtStart, occ.Start.Format(icalLocalFormat), tzid)
		ev.SetProperty(ical.ComponentPropertyDtEnd, occ.End.Format(icalLocalFormat), tzid)
		ev.AddRrule(weeklyRule(b.Day))

		title := b.Title
		if title == "" {
			title = "Busy"
		}
		ev.SetSummary(title)
		if b.Tip != "" {
			ev.SetLocation(b.Tip)
		}
		exported++
	}

	if exported == 0 && len(blocks) > 0 {
		return "", fmt.Errorf("ics export: none of %d blocks could be exported", len(blocks))
	}
	return cal.Serialize(), nil
}

// BlockUID returns the stable UID for a block.
func BlockUID(b model.TimeBlock, domain string) string {
	key := fmt.Sprintf("%d|%s|%s|%s|%s", b.Day, b.Start, b.End, b.Title, b.Tip)
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@" + domain
}

// FirstOccurrence returns the block's instance inside the week starting at
// weekStart, in weekStart's location.
func FirstOccurrence(b model.TimeBlock, weekStart time.Time) (model.Occurrence, error) {
	if b.Day < time.Sunday || b.Day > time.Saturday {
		return model.Occurrence{}, fmt.Errorf("invalid weekday %d", int(b.Day))
	}
	startM, err := schedule.TimeToMinutes(b.Start)
	if err != nil {
		return model.Occurrence{}, err
	}
	endM, err := schedule.TimeToMinutes(b.End)
	if err != nil {
		return model.Occurrence{}, err
	}
	if endM <= startM {
		return model.Occurrence{}, fmt.Errorf("end %s is not after start %s", b.End, b.Start)
	}

	offset := (int(b.Day) - int(weekStart.Weekday()) + 7) % 7
	y, m, d := weekStart.Date()
	loc := weekStart.Location()
	return model.Occurrence{
		Block: b,
		Start: time.Date(y, m, d+offset, startM/60, startM%60, 0, 0, loc),
		End:   time.Date(y, m, d+offset, endM/60, endM%60, 0, 0, loc),
	}, nil
}

func weeklyRule(day time.Weekday) string {
	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rruleWeekdays[day]},
	}
	return opt.RRuleString()
}
