// Package schedule lays out the weekly office-hours calendar: a header of
// day cells, a half-hour grid, the configured blocks positioned in pixels
// and a "now" indicator. Layout is a pure function of a Config, a Layout
// and a clock, so it can run server-side and in tests without a browser.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"tutorpage/internal/model"
)

const (
	// DaysPerWeek is the number of day columns in the grid.
	DaysPerWeek = 7
	// SlotMinutes is the height of one grid row in minutes.
	SlotMinutes = 30
)

// Config is the calendar configuration: the visible hour window, the first
// weekday of the week and the office-hours blocks.
type Config struct {
	StartHour    int
	EndHour      int
	WeekStartsOn time.Weekday
	Blocks       []model.TimeBlock
}

// Validate checks the visible window.
func (c Config) Validate() error {
	if c.StartHour < 0 || c.StartHour > 23 {
		return fmt.Errorf("schedule: start hour %d out of range 0-23", c.StartHour)
	}
	if c.EndHour < 1 || c.EndHour > 24 {
		return fmt.Errorf("schedule: end hour %d out of range 1-24", c.EndHour)
	}
	if c.EndHour <= c.StartHour {
		return errors.New("schedule: end hour must be after start hour")
	}
	if c.WeekStartsOn < time.Sunday || c.WeekStartsOn > time.Saturday {
		return fmt.Errorf("schedule: week start %d out of range 0-6", c.WeekStartsOn)
	}
	return nil
}

// Slots returns the number of half-hour rows in the visible window.
func (c Config) Slots() int {
	return (c.EndHour - c.StartHour) * 60 / SlotMinutes
}

func (c Config) windowStart() int { return c.StartHour * 60 }
func (c Config) windowEnd() int   { return c.EndHour * 60 }

// HeaderCell is one day label above the grid.
type HeaderCell struct {
	Date     time.Time `json:"date"`
	Name     string    `json:"name"`
	MonthDay string    `json:"month_day"`
	IsToday  bool      `json:"is_today"`
}

// TimeSlot is one row of the time-label column. Label is empty on the half hour.
type TimeSlot struct {
	Minutes int    `json:"minutes"`
	Label   string `json:"label,omitempty"`
}

// DayColumn is one day of the grid.
type DayColumn struct {
	Index   int           `json:"index"`
	Date    time.Time     `json:"date"`
	IsToday bool          `json:"is_today"`
	Slots   int           `json:"slots"`
	Blocks  []PlacedBlock `json:"blocks"`
}

// BuildHeader returns the seven day cells starting at weekStart.
func BuildHeader(weekStart, today time.Time) []HeaderCell {
	cells := make([]HeaderCell, 0, DaysPerWeek)
	for i := 0; i < DaysPerWeek; i++ {
		d := AddDays(weekStart, i)
		cells = append(cells, HeaderCell{
			Date:     d,
			Name:     DayName(d.Weekday()),
			MonthDay: fmt.Sprintf("%d/%d", int(d.Month()), d.Day()),
			IsToday:  SameDate(d, today),
		})
	}
	return cells
}

// BuildGrid returns the time-label column and the seven empty day columns for
// the week starting at weekStart. The column whose date is today is flagged.
func BuildGrid(weekStart, today time.Time, cfg Config) ([]TimeSlot, []DayColumn) {
	slots := cfg.Slots()

	timeCol := make([]TimeSlot, 0, slots)
	for i := 0; i < slots; i++ {
		mins := cfg.windowStart() + i*SlotMinutes
		slot := TimeSlot{Minutes: mins}
		if i%2 == 0 {
			slot.Label = MinsToLabel(mins)
		}
		timeCol = append(timeCol, slot)
	}

	cols := make([]DayColumn, 0, DaysPerWeek)
	for i := 0; i < DaysPerWeek; i++ {
		d := AddDays(weekStart, i)
		cols = append(cols, DayColumn{
			Index:   i,
			Date:    d,
			IsToday: SameDate(d, today),
			Slots:   slots,
			Blocks:  []PlacedBlock{},
		})
	}
	return timeCol, cols
}
