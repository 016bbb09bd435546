package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "tutorpage/internal/log"
	"tutorpage/internal/model"
	"tutorpage/internal/schedule"
)

// ErrNotWeekly is returned for events that cannot become weekly blocks.
var ErrNotWeekly = errors.New("event does not repeat weekly")

// Import reads an iCalendar file and turns every weekly recurring VEVENT
// into one TimeBlock per weekday it repeats on. Wall-clock times are taken in
// loc. One-off events, all-day events, overridden instances and events that
// cross midnight are skipped and logged. Duplicates are dropped.
func Import(r io.Reader, loc *time.Location) ([]model.TimeBlock, error) {
	if loc == nil {
		loc = time.Local
	}
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("ics: parse: %w", err)
	}

	var out []model.TimeBlock
	seen := make(map[model.TimeBlock]bool)
	skipped := 0
	for _, ve := range cal.Events() {
		blocks, err := blocksFromEvent(ve, loc)
		if err != nil {
			skipped++
			appLog.Debug("ics import: skipping event", "uid", ve.Id(), "reason", err.Error())
			continue
		}
		for _, b := range blocks {
			if seen[b] {
				continue
			}
			seen[b] = true
			out = append(out, b)
		}
	}

	appLog.Info("ics import completed", "blocks", len(out), "skipped_events", skipped)
	return out, nil
}

func blocksFromEvent(ve *ical.VEvent, loc *time.Location) ([]model.TimeBlock, error) {
	if ve.GetProperty(ical.ComponentPropertyRecurrenceId) != nil {
		return nil, errors.New("overridden instance")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return nil, errors.New("missing DTSTART")
	}
	if isAllDay(dtStart) {
		return nil, errors.New("all-day event")
	}

	srcStart, err := eventTime(dtStart, loc)
	if err != nil {
		return nil, err
	}
	start := srcStart.In(loc)
	dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd)
	if dtEnd == nil {
		return nil, errors.New("missing DTEND")
	}
	end, err := eventTime(dtEnd, loc)
	if err != nil {
		return nil, err
	}
	end = end.In(loc)
	if !end.After(start) {
		return nil, errors.New("DTEND is not after DTSTART")
	}

	endClock, err := clockString(start, end)
	if err != nil {
		return nil, err
	}

	// BYDAY is relative to the event's own zone.
	days, err := weeklyDays(ve, srcStart.Weekday())
	if err != nil {
		return nil, err
	}
	shift := dayShift(srcStart, start)
	for i, d := range days {
		days[i] = time.Weekday((int(d) + shift + 7) % 7)
	}

	var title, tip string
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		title = ical.FromText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		tip = ical.FromText(p.Value)
	}

	blocks := make([]model.TimeBlock, 0, len(days))
	for _, d := range days {
		blocks = append(blocks, model.TimeBlock{
			Day:   d,
			Start: fmt.Sprintf("%d:%02d", start.Hour(), start.Minute()),
			End:   endClock,
			Title: title,
			Tip:   tip,
		})
	}
	return blocks, nil
}

// weeklyDays reads the RRULE. Without BYDAY the rule repeats on the start
// weekday.
func weeklyDays(ve *ical.VEvent, startDay time.Weekday) ([]time.Weekday, error) {
	p := ve.GetProperty(ical.ComponentPropertyRrule)
	if p == nil {
		return nil, ErrNotWeekly
	}
	opt, err := rrule.StrToROption(p.Value)
	if err != nil {
		return nil, fmt.Errorf("RRULE %q: %w", p.Value, err)
	}
	if opt.Freq != rrule.WEEKLY || opt.Interval > 1 {
		return nil, ErrNotWeekly
	}
	if len(opt.Byweekday) == 0 {
		return []time.Weekday{startDay}, nil
	}

	days := make([]time.Weekday, 0, len(opt.Byweekday))
	for _, wd := range opt.Byweekday {
		// rrule counts Monday as 0.
		days = append(days, time.Weekday((wd.Day()+1)%7))
	}
	return days, nil
}

func isAllDay(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters[string(ical.ParameterValue)]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// eventTime parses a DATE-TIME value in its own zone: UTC, the TZID zone,
// or loc for floating values.
func eventTime(p *ical.IANAProperty, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(p.Value)
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	in := loc
	if tzs, ok := p.ICalParameters[string(ical.ParameterTzid)]; ok && len(tzs) > 0 {
		tz, err := time.LoadLocation(tzs[0])
		if err != nil {
			return time.Time{}, fmt.Errorf("TZID %q: %w", tzs[0], err)
		}
		in = tz
	}
	return time.ParseInLocation(icalLocalFormat, v, in)
}

// dayShift is the number of calendar days between the wall dates of the same
// instant in two zones (-1, 0 or 1).
func dayShift(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// clockString renders end as H:MM, or 24:00 when it is the midnight right
// after start's day.
func clockString(start, end time.Time) (string, error) {
	if schedule.SameDate(start, end) {
		return fmt.Sprintf("%d:%02d", end.Hour(), end.Minute()), nil
	}
	if end.Hour() == 0 && end.Minute() == 0 && schedule.SameDate(schedule.AddDays(start, 1), end) {
		return "24:00", nil
	}
	return "", errors.New("event crosses midnight")
}
