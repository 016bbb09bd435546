package schedule

import (
	"time"

	appLog "tutorpage/internal/log"
	"tutorpage/internal/model"
)

const defaultBlockTitle = "Busy"

// Layout holds the pixel constants the block placer and the now-line need.
// The page stylesheet is rendered from the same values.
type Layout struct {
	// HourHeight is the height of one hour of grid in pixels.
	HourHeight float64 `json:"hour_height"`
	// TimeColWidth is the width of the time-label column in pixels.
	TimeColWidth float64 `json:"time_col_width"`
	// GridWidth is the full grid width (time column + 7 day columns).
	GridWidth float64 `json:"grid_width"`
}

// DefaultLayout matches the bundled stylesheet.
func DefaultLayout() Layout {
	return Layout{
		HourHeight:   48,
		TimeColWidth: 72,
		GridWidth:    912,
	}
}

// withDefaults fills zero or negative fields from DefaultLayout.
func (l Layout) withDefaults() Layout {
	def := DefaultLayout()
	if l.HourHeight <= 0 {
		l.HourHeight = def.HourHeight
	}
	if l.TimeColWidth <= 0 {
		l.TimeColWidth = def.TimeColWidth
	}
	if l.GridWidth <= l.TimeColWidth {
		l.GridWidth = l.TimeColWidth + (def.GridWidth - def.TimeColWidth)
	}
	return l
}

// ColumnWidth is the width of a single day column.
func (l Layout) ColumnWidth() float64 {
	w := (l.GridWidth - l.TimeColWidth) / DaysPerWeek
	if w < 0 {
		return 0
	}
	return w
}

// MinBlockHeight is one quarter hour, so short blocks stay visible.
func (l Layout) MinBlockHeight() float64 {
	return l.HourHeight / 4
}

// PlacedBlock is a TimeBlock positioned inside its day column.
type PlacedBlock struct {
	Block     model.TimeBlock `json:"block"`
	Column    int             `json:"column"`
	Top       float64         `json:"top"`
	Height    float64         `json:"height"`
	Title     string          `json:"title"`
	TimeLabel string          `json:"time_label"`
	Tip       string          `json:"tip"`

	// Clamped is set when the block was cut at the visible window edge.
	Clamped bool `json:"clamped"`
}

// PlaceBlocks positions every block of cfg that is at least partly inside the
// visible window. Blocks with an invalid day, malformed times or nothing left
// after clamping are skipped.
func PlaceBlocks(cfg Config, layout Layout) []PlacedBlock {
	layout = layout.withDefaults()
	out := make([]PlacedBlock, 0, len(cfg.Blocks))

	for _, b := range cfg.Blocks {
		pb, ok := placeBlock(b, cfg, layout)
		if ok {
			out = append(out, pb)
		}
	}
	return out
}

func placeBlock(b model.TimeBlock, cfg Config, layout Layout) (PlacedBlock, bool) {
	if b.Day < time.Sunday || b.Day > time.Saturday {
		appLog.Debug("schedule: skipping block with invalid day", "day", int(b.Day), "title", b.Title)
		return PlacedBlock{}, false
	}

	startM, err := TimeToMinutes(b.Start)
	if err != nil {
		appLog.Error("schedule: skipping block", err, "day", b.Day.String(), "title", b.Title)
		return PlacedBlock{}, false
	}
	endM, err := TimeToMinutes(b.End)
	if err != nil {
		appLog.Error("schedule: skipping block", err, "day", b.Day.String(), "title", b.Title)
		return PlacedBlock{}, false
	}

	clampedStart := max(startM, cfg.windowStart())
	clampedEnd := min(endM, cfg.windowEnd())
	if clampedEnd <= clampedStart {
		return PlacedBlock{}, false
	}

	top := float64(clampedStart-cfg.windowStart()) / 60 * layout.HourHeight
	height := max(layout.MinBlockHeight(), float64(clampedEnd-clampedStart)/60*layout.HourHeight)

	title := b.Title
	if title == "" {
		title = defaultBlockTitle
	}

	return PlacedBlock{
		Block:     b,
		Column:    columnOf(b.Day, cfg.WeekStartsOn),
		Top:       top,
		Height:    height,
		Title:     title,
		TimeLabel: MinsToLabel(startM) + " – " + MinsToLabel(endM),
		Tip:       b.Tip,
		Clamped:   clampedStart != startM || clampedEnd != endM,
	}, true
}
