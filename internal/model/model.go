package model

import "time"

// TimeBlock is a recurring weekly office-hours interval as configured.
// Blocks are loaded once and never mutated.
type TimeBlock struct {
	// Day is the weekday the block recurs on (Sunday=0 .. Saturday=6).
	// Values outside that range are skipped at layout time.
	Day time.Weekday `json:"day"`

	// Start / End are wall-clock "HH:MM" strings in the reference timezone.
	Start string `json:"start"`
	End   string `json:"end"`

	Title string `json:"title"`

	// Tip is the hover text, typically the room.
	Tip string `json:"tip"`
}

// Occurrence is a single dated instance of a TimeBlock.
type Occurrence struct {
	Block TimeBlock

	// Start / End are in the reference timezone.
	Start time.Time
	End   time.Time
}
