package schedule

import (
	"time"

	appLog "tutorpage/internal/log"
)

// Options carries the clock and reference timezone for a render.
type Options struct {
	// Now returns the current instant. Defaults to time.Now.
	Now func() time.Time
	// Location is the reference timezone every viewer sees. Defaults to time.Local.
	Location *time.Location
	// Week selects the week to render (any instant inside it). Zero means the
	// week containing Now.
	Week time.Time
}

func (o Options) now() time.Time {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return now().In(o.location())
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

// Calendar is one fully laid out week. It is rebuilt from scratch on every
// Render call; nothing is shared between calls.
type Calendar struct {
	WeekStart time.Time    `json:"week_start"`
	Timezone  string       `json:"timezone"`
	StartHour int          `json:"start_hour"`
	EndHour   int          `json:"end_hour"`
	Layout    Layout       `json:"layout"`
	Header    []HeaderCell `json:"header"`
	TimeSlots []TimeSlot   `json:"time_slots"`
	Columns   []DayColumn  `json:"columns"`
	Blocks    int          `json:"block_count"`
	NowLine   NowLine      `json:"now_line"`
}

// GridHeight is the pixel height of the slot area.
func (c *Calendar) GridHeight() float64 {
	return float64(c.EndHour-c.StartHour) * c.Layout.HourHeight
}

// PrevWeek / NextWeek return the neighbouring week starts.
func (c *Calendar) PrevWeek() time.Time { return AddDays(c.WeekStart, -DaysPerWeek) }
func (c *Calendar) NextWeek() time.Time { return AddDays(c.WeekStart, DaysPerWeek) }

// Render lays out the calendar: week start, header, grid, blocks, now-line.
func Render(cfg Config, layout Layout, opts Options) (*Calendar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	layout = layout.withDefaults()

	loc := opts.location()
	now := opts.now()

	ref := now
	if !opts.Week.IsZero() {
		ref = opts.Week.In(loc)
	}
	weekStart := StartOfWeek(ref, cfg.WeekStartsOn)

	cal := &Calendar{
		WeekStart: weekStart,
		Timezone:  loc.String(),
		StartHour: cfg.StartHour,
		EndHour:   cfg.EndHour,
		Layout:    layout,
	}

	cal.Header = BuildHeader(weekStart, now)
	cal.TimeSlots, cal.Columns = BuildGrid(weekStart, now, cfg)

	for _, pb := range PlaceBlocks(cfg, layout) {
		col := &cal.Columns[pb.Column]
		col.Blocks = append(col.Blocks, pb)
		cal.Blocks++
	}

	cal.NowLine = PositionNowLine(now, weekStart, cfg, layout)

	appLog.Debug("schedule rendered",
		"week_start", weekStart.Format(time.DateOnly),
		"timezone", cal.Timezone,
		"blocks", cal.Blocks,
		"now_visible", cal.NowLine.Visible,
	)
	return cal, nil
}
