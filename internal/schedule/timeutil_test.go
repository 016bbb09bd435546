package schedule

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var est = time.FixedZone("EST", -5*3600)

func TestStartOfWeek_WednesdayToMonday(t *testing.T) {
	wed := time.Date(2026, 10, 14, 15, 42, 7, 99, est)

	got := StartOfWeek(wed, time.Monday)

	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, est), got)
	assert.Equal(t, time.Monday, got.Weekday())
}

func TestStartOfWeek_Properties(t *testing.T) {
	base := time.Date(2026, 10, 1, 13, 5, 0, 0, est)
	for day := 0; day < 21; day++ {
		date := AddDays(base, day)
		for ws := time.Sunday; ws <= time.Saturday; ws++ {
			got := StartOfWeek(date, ws)

			assert.False(t, got.After(date), "result after input for %s ws=%s", date, ws)
			assert.Equal(t, ws, got.Weekday())
			assert.Zero(t, got.Hour()+got.Minute()+got.Second()+got.Nanosecond())
			assert.Less(t, date.Sub(got), 7*24*time.Hour)
			assert.Equal(t, got, StartOfWeek(got, ws), "not idempotent")
		}
	}
}

func TestStartOfWeek_SundayStart(t *testing.T) {
	sun := time.Date(2026, 10, 18, 9, 0, 0, 0, est)
	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, est), StartOfWeek(sun, time.Sunday))
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, est), StartOfWeek(sun, time.Monday))
}

func TestAddDays_KeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// US DST ends on 2026-11-01.
	start := time.Date(2026, 10, 26, 0, 0, 0, 0, ny)
	end := AddDays(start, 7)

	assert.Equal(t, time.Date(2026, 11, 2, 0, 0, 0, 0, ny), end)
	assert.Equal(t, 7*24*time.Hour+time.Hour, end.Sub(start))
}

func TestTimeToMinutes(t *testing.T) {
	cases := map[string]int{
		"09:15": 555,
		"9:15":  555,
		"00:00": 0,
		"17:30": 1050,
		"24:00": 1440,
	}
	for in, want := range cases {
		got, err := TimeToMinutes(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestTimeToMinutes_Malformed(t *testing.T) {
	for _, in := range []string{"", "9", "9:5", "ab:cd", "25:00", "12:60", "24:30", "-1:00", "9:15:00", "+9:15", "9:+5", "-0:15", "009:15", "9: 5"} {
		_, err := TimeToMinutes(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrBadClock), in)
	}
}

func TestMinsToLabel(t *testing.T) {
	assert.Equal(t, "9:15am", MinsToLabel(555))
	assert.Equal(t, "1pm", MinsToLabel(780))
	assert.Equal(t, "12am", MinsToLabel(0))
	assert.Equal(t, "12pm", MinsToLabel(720))
	assert.Equal(t, "12:30pm", MinsToLabel(750))
	assert.Equal(t, "5:30pm", MinsToLabel(1050))
	assert.Equal(t, "8am", MinsToLabel(480))
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "Sun", DayName(time.Sunday))
	assert.Equal(t, "Sat", DayName(time.Saturday))
}
