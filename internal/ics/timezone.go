package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// observance is one STANDARD or DAYLIGHT onset of a zone.
type observance struct {
	at       time.Time // first instant with the new offset
	from, to int       // UTC offsets in seconds
	name     string
	dst      bool
}

// buildTimezone describes loc as a VTIMEZONE. The offset changes of the
// year before year are turned into yearly rules so the component covers
// events on or after that year. Zones without changes get a single fixed
// STANDARD observance.
func buildTimezone(loc *time.Location, year int) *ical.VTimezone {
	tz := ical.NewTimezone(loc.String())

	obs := zoneTransitions(loc, year-1)
	if len(obs) == 0 {
		ref := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		name, off := ref.Zone()
		std := tz.AddStandard()
		std.SetProperty(ical.ComponentPropertyDtStart, "19700101T000000")
		std.SetProperty(ical.ComponentProperty(ical.PropertyTzoffsetfrom), utcOffset(off))
		std.SetProperty(ical.ComponentProperty(ical.PropertyTzoffsetto), utcOffset(off))
		std.SetProperty(ical.ComponentProperty(ical.PropertyTzname), name)
		return tz
	}

	for _, o := range obs {
		var cb *ical.ComponentBase
		if o.dst {
			d := &ical.Daylight{}
			tz.Components = append(tz.Components, d)
			cb = &d.ComponentBase
		} else {
			cb = &tz.AddStandard().ComponentBase
		}
		// DTSTART is the wall time of the onset under the old offset.
		onset := o.at.Add(time.Duration(o.from) * time.Second).UTC()
		cb.SetProperty(ical.ComponentPropertyDtStart, onset.Format(icalLocalFormat))
		cb.SetProperty(ical.ComponentProperty(ical.PropertyTzoffsetfrom), utcOffset(o.from))
		cb.SetProperty(ical.ComponentProperty(ical.PropertyTzoffsetto), utcOffset(o.to))
		cb.SetProperty(ical.ComponentProperty(ical.PropertyTzname), o.name)
		cb.SetProperty(ical.ComponentPropertyRrule, yearlyRule(onset))
	}
	return tz
}

// zoneTransitions finds every UTC offset change of loc during year.
func zoneTransitions(loc *time.Location, year int) []observance {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, loc)

	var out []observance
	for t := start; t.Before(end); t = t.Add(24 * time.Hour) {
		next := t.Add(24 * time.Hour)
		_, before := t.Zone()
		if _, after := next.Zone(); after == before {
			continue
		}

		lo, hi := t, next
		for hi.Sub(lo) > time.Second {
			mid := lo.Add(hi.Sub(lo) / 2)
			if _, off := mid.Zone(); off == before {
				lo = mid
			} else {
				hi = mid
			}
		}
		name, to := hi.Zone()
		out = append(out, observance{at: hi, from: before, to: to, name: name, dst: hi.IsDST()})
	}
	return out
}

// yearlyRule expresses a wall-clock onset as "nth weekday of the month".
// An onset in the month's last seven days is written as the last weekday.
func yearlyRule(onset time.Time) string {
	day := onset.Day()
	n := (day-1)/7 + 1
	daysInMonth := time.Date(onset.Year(), onset.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day+7 > daysInMonth {
		n = -1
	}
	opt := rrule.ROption{
		Freq:      rrule.YEARLY,
		Bymonth:   []int{int(onset.Month())},
		Byweekday: []rrule.Weekday{rruleWeekdays[onset.Weekday()].Nth(n)},
	}
	return opt.RRuleString()
}

// utcOffset formats seconds east of UTC as +HHMM, or +HHMMSS when needed.
func utcOffset(sec int) string {
	sign := '+'
	if sec < 0 {
		sign = '-'
		sec = -sec
	}
	h, m, s := sec/3600, sec%3600/60, sec%60
	if s != 0 {
		return fmt.Sprintf("%c%02d%02d%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%c%02d%02d", sign, h, m)
}
