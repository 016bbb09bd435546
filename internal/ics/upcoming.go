package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "tutorpage/internal/log"
	"tutorpage/internal/model"
	"tutorpage/internal/schedule"
)

// Upcoming expands the weekly blocks into concrete occurrences and returns the
// first n that have not ended at from, ordered by start time. Occurrences are
// built in loc so wall-clock times survive DST changes. If loc is nil, from's
// location is used.
func Upcoming(blocks []model.TimeBlock, from time.Time, loc *time.Location, n int) []model.Occurrence {
	if n <= 0 {
		return nil
	}
	if loc == nil {
		loc = from.Location()
	}
	from = from.In(loc)
	weekStart := schedule.StartOfWeek(from, time.Sunday)

	// Each block contributes at most one occurrence per week, so n+1 weeks
	// always cover n occurrences even when the current week's have passed.
	var out []model.Occurrence
	for _, b := range blocks {
		first, err := FirstOccurrence(b, weekStart)
		if err != nil {
			appLog.Error("upcoming: skipping block", err, "day", b.Day.String(), "title", b.Title)
			continue
		}
		occ, err := expandWeekly(first, n+1)
		if err != nil {
			appLog.Error("upcoming: expand failed", err, "title", b.Title)
			continue
		}
		for _, o := range occ {
			if o.End.After(from) {
				out = append(out, o)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// expandWeekly repeats first for count weeks. The end keeps the same
// wall-clock time as first.End on every instance.
func expandWeekly(first model.Occurrence, count int) ([]model.Occurrence, error) {
	if !first.End.After(first.Start) {
		return nil, errors.New("occurrence ends before it starts")
	}
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: first.Start,
		Count:   count,
	})
	if err != nil {
		return nil, err
	}

	endH, endM, _ := first.End.Clock()
	endShift := 0
	if !schedule.SameDate(first.Start, first.End) {
		endShift = 1
	}
	starts := rule.All()
	out := make([]model.Occurrence, 0, len(starts))
	for _, s := range starts {
		y, m, d := s.Date()
		out = append(out, model.Occurrence{
			Block: first.Block,
			Start: s,
			End:   time.Date(y, m, d+endShift, endH, endM, 0, 0, s.Location()),
		})
	}
	return out, nil
}
