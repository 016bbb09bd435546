package schedule

import "time"

// OffscreenY is the vertical offset used to park the now-line out of view.
const OffscreenY = -9999.0

// NowLine is the current-time indicator. When Visible is false the line is
// parked at OffscreenY instead of being removed.
type NowLine struct {
	Visible bool      `json:"visible"`
	Column  int       `json:"column"`
	Y       float64   `json:"y"`
	Left    float64   `json:"left"`
	Right   float64   `json:"right"`
	Width   float64   `json:"width"`
	At      time.Time `json:"at"`
}

// PositionNowLine places the indicator for now (already in the reference
// timezone) within the week starting at weekStart. It only depends on the
// layout, so it can be recomputed for a new grid width without rebuilding
// the grid.
func PositionNowLine(now, weekStart time.Time, cfg Config, layout Layout) NowLine {
	layout = layout.withDefaults()
	now = now.In(weekStart.Location())

	offscreen := NowLine{Y: OffscreenY, At: now}

	weekEnd := AddDays(weekStart, DaysPerWeek)
	if now.Before(weekStart) || !now.Before(weekEnd) {
		return offscreen
	}
	if now.Hour() < cfg.StartHour || now.Hour() >= cfg.EndHour {
		return offscreen
	}

	minsIntoView := now.Hour()*60 + now.Minute() - cfg.windowStart()
	colWidth := layout.ColumnWidth()
	column := columnOf(now.Weekday(), cfg.WeekStartsOn)
	left := layout.TimeColWidth + float64(column)*colWidth

	return NowLine{
		Visible: true,
		Column:  column,
		Y:       float64(minsIntoView) / 60 * layout.HourHeight,
		Left:    left,
		Right:   max(0, layout.GridWidth-left-colWidth),
		Width:   colWidth,
		At:      now,
	}
}
