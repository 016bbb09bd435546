package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorpage/internal/model"
)

func TestUpcoming_Order(t *testing.T) {
	loc := newYork(t)
	// Wednesday 10:30 local.
	from := time.Date(2026, 10, 14, 10, 30, 0, 0, loc)

	got := Upcoming(officeHours(), from, loc, 4)
	require.Len(t, got, 4)

	want := []time.Time{
		time.Date(2026, 10, 15, 9, 15, 0, 0, loc),
		time.Date(2026, 10, 16, 14, 0, 0, 0, loc),
		time.Date(2026, 10, 19, 17, 30, 0, 0, loc),
		time.Date(2026, 10, 20, 9, 15, 0, 0, loc),
	}
	for i, occ := range got {
		assert.True(t, want[i].Equal(occ.Start), "occurrence %d: got %s want %s", i, occ.Start, want[i])
		assert.True(t, occ.End.After(occ.Start))
	}
}

func TestUpcoming_IncludesInProgress(t *testing.T) {
	loc := newYork(t)
	from := time.Date(2026, 10, 13, 9, 45, 0, 0, loc)

	got := Upcoming(officeHours(), from, loc, 1)
	require.Len(t, got, 1)
	assert.Equal(t, time.Tuesday, got[0].Block.Day)
	assert.True(t, time.Date(2026, 10, 13, 9, 15, 0, 0, loc).Equal(got[0].Start))
}

func TestUpcoming_KeepsWallClockAcrossDST(t *testing.T) {
	loc := newYork(t)
	mon := []model.TimeBlock{{Day: time.Monday, Start: "17:30", End: "19:00"}}
	// US DST ends on Sunday 2026-11-01.
	from := time.Date(2026, 10, 20, 0, 0, 0, 0, loc)

	got := Upcoming(mon, from, loc, 2)
	require.Len(t, got, 2)
	for _, occ := range got {
		h, m, _ := occ.Start.Clock()
		assert.Equal(t, 17, h)
		assert.Equal(t, 30, m)
		assert.Equal(t, 90*time.Minute, occ.End.Sub(occ.Start))
	}
	assert.Equal(t, 26, got[0].Start.Day())
	assert.Equal(t, 2, got[1].Start.Day())
	assert.Equal(t, 7*24*time.Hour+time.Hour, got[1].Start.Sub(got[0].Start))
}

func TestUpcoming_Empty(t *testing.T) {
	from := time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC)
	assert.Empty(t, Upcoming(officeHours(), from, nil, 0))
	assert.Empty(t, Upcoming(nil, from, nil, 3))
}
