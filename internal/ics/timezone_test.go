package ics

import (
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func propValue(t *testing.T, cb *ical.ComponentBase, p ical.ComponentProperty) string {
	t.Helper()
	prop := cb.GetProperty(p)
	require.NotNil(t, prop, string(p))
	return prop.Value
}

func TestExport_DescribesTZIDWithVTimezone(t *testing.T) {
	weekStart := time.Date(2026, 10, 12, 0, 0, 0, 0, newYork(t))

	out, err := Export(officeHours(), weekStart, ExportOptions{Now: fixedNow})
	require.NoError(t, err)

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	zones := cal.Timezones()
	require.Len(t, zones, 1)
	assert.Equal(t, "America/New_York", propValue(t, &zones[0].ComponentBase, ical.ComponentPropertyTzid))

	subs := zones[0].SubComponents()
	require.Len(t, subs, 2)

	daylight, ok := subs[0].(*ical.Daylight)
	require.True(t, ok, "first onset of the year is daylight time")
	assert.Equal(t, "20250309T020000", propValue(t, &daylight.ComponentBase, ical.ComponentPropertyDtStart))
	assert.Equal(t, "-0500", propValue(t, &daylight.ComponentBase, ical.ComponentProperty(ical.PropertyTzoffsetfrom)))
	assert.Equal(t, "-0400", propValue(t, &daylight.ComponentBase, ical.ComponentProperty(ical.PropertyTzoffsetto)))
	assert.Equal(t, "EDT", propValue(t, &daylight.ComponentBase, ical.ComponentProperty(ical.PropertyTzname)))
	assert.Equal(t, "FREQ=YEARLY;BYMONTH=3;BYDAY=+2SU", propValue(t, &daylight.ComponentBase, ical.ComponentPropertyRrule))

	standard, ok := subs[1].(*ical.Standard)
	require.True(t, ok)
	assert.Equal(t, "20251102T020000", propValue(t, &standard.ComponentBase, ical.ComponentPropertyDtStart))
	assert.Equal(t, "-0400", propValue(t, &standard.ComponentBase, ical.ComponentProperty(ical.PropertyTzoffsetfrom)))
	assert.Equal(t, "-0500", propValue(t, &standard.ComponentBase, ical.ComponentProperty(ical.PropertyTzoffsetto)))
	assert.Equal(t, "EST", propValue(t, &standard.ComponentBase, ical.ComponentProperty(ical.PropertyTzname)))
	assert.Equal(t, "FREQ=YEARLY;BYMONTH=11;BYDAY=+1SU", propValue(t, &standard.ComponentBase, ical.ComponentPropertyRrule))
}

func TestBuildTimezone_FixedOffset(t *testing.T) {
	tz := buildTimezone(time.FixedZone("IST", 19800), 2026)

	subs := tz.SubComponents()
	require.Len(t, subs, 1)
	std, ok := subs[0].(*ical.Standard)
	require.True(t, ok)
	assert.Equal(t, "+0530", propValue(t, &std.ComponentBase, ical.ComponentProperty(ical.PropertyTzoffsetfrom)))
	assert.Equal(t, "+0530", propValue(t, &std.ComponentBase, ical.ComponentProperty(ical.PropertyTzoffsetto)))
	assert.Equal(t, "IST", propValue(t, &std.ComponentBase, ical.ComponentProperty(ical.PropertyTzname)))
}

func TestZoneTransitions_Berlin(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	obs := zoneTransitions(berlin, 2026)
	require.Len(t, obs, 2)
	assert.True(t, time.Date(2026, 3, 29, 1, 0, 0, 0, time.UTC).Equal(obs[0].at), obs[0].at)
	assert.True(t, obs[0].dst)
	assert.True(t, time.Date(2026, 10, 25, 1, 0, 0, 0, time.UTC).Equal(obs[1].at), obs[1].at)
	assert.False(t, obs[1].dst)
}

func TestYearlyRule(t *testing.T) {
	// Last Sunday of March falls in the month's final week.
	assert.Equal(t, "FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU", yearlyRule(time.Date(2026, 3, 29, 2, 0, 0, 0, time.UTC)))
	assert.Equal(t, "FREQ=YEARLY;BYMONTH=3;BYDAY=+2SU", yearlyRule(time.Date(2026, 3, 8, 2, 0, 0, 0, time.UTC)))
}

func TestUTCOffset(t *testing.T) {
	assert.Equal(t, "+0000", utcOffset(0))
	assert.Equal(t, "-0330", utcOffset(-12600))
	assert.Equal(t, "+010755", utcOffset(4075))
}
