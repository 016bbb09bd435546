package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutorpage/internal/config"
	"tutorpage/internal/courses"
	"tutorpage/internal/schedule"
	"tutorpage/internal/theme"
)

// Wednesday 2026-10-14, 11:30 in New York (EDT).
var testNow = time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}
	s, err := NewServer(cfg, WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, s, httptest.NewRequest(http.MethodGet, target, nil))
}

func postForm(t *testing.T, s *Server, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return do(t, s, req)
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestIndexPage(t *testing.T) {
	rec := get(t, newTestServer(t), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, `data-theme="dark"`)
	assert.Contains(t, body, "Light Mode")
	assert.Contains(t, body, `data-ready="true"`)
	assert.Contains(t, body, `data-week="2026-10-12"`)
	assert.Contains(t, body, courses.Placeholder)
	assert.Contains(t, body, "--hour-height: 48px")
	assert.Contains(t, body, "<p>Drop by during office hours")
	assert.Equal(t, 4, strings.Count(body, `<div class="block`))
	assert.Contains(t, body, "5:30pm – 7:30pm")
}

func TestIndexPage_UnknownPath(t *testing.T) {
	rec := get(t, newTestServer(t), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSchedulePage(t *testing.T) {
	rec := get(t, newTestServer(t), "/schedule?week=2026-10-21")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `data-ready="true"`)
	assert.Contains(t, body, `data-week="2026-10-19"`)
	assert.Contains(t, body, `data-visible="false"`)
	assert.NotContains(t, body, "contactForm")
}

func TestScheduleAPI(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/schedule")
	require.Equal(t, http.StatusOK, rec.Code)

	var cal schedule.Calendar
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cal))
	assert.Equal(t, "2026-10-12", cal.WeekStart.Format(time.DateOnly))
	assert.Equal(t, "America/New_York", cal.Timezone)
	assert.Equal(t, 4, cal.Blocks)
	assert.Len(t, cal.Columns, 7)
	assert.True(t, cal.Columns[2].IsToday)

	require.True(t, cal.NowLine.Visible)
	assert.Equal(t, 2, cal.NowLine.Column)
	// 11:30 is 3.5 hours into an 8am window.
	assert.InDelta(t, 3.5*48, cal.NowLine.Y, 1e-9)
}

func TestScheduleAPI_BadWeek(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/schedule?week=10/12/2026")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["error"])
}

func TestNowLineAPI_Width(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/now-line?width=772")
	require.Equal(t, http.StatusOK, rec.Code)

	var nl schedule.NowLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nl))
	assert.True(t, nl.Visible)
	assert.InDelta(t, 100, nl.Width, 1e-9)
	assert.InDelta(t, 272, nl.Left, 1e-9)
	assert.InDelta(t, 400, nl.Right, 1e-9)
	assert.InDelta(t, 168, nl.Y, 1e-9)
}

func TestNowLineAPI_OtherWeek(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/now-line?week=2026-10-19")
	require.Equal(t, http.StatusOK, rec.Code)

	var nl schedule.NowLine
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nl))
	assert.False(t, nl.Visible)
	assert.Equal(t, schedule.OffscreenY, nl.Y)
}

func TestNowLineAPI_TooNarrow(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/now-line?width=50")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNowLineAPI_NonFiniteWidth(t *testing.T) {
	srv := newTestServer(t)
	for _, width := range []string{"NaN", "Inf", "-Inf", "1e400", "wide"} {
		rec := get(t, srv, "/api/now-line?width="+width)
		assert.Equal(t, http.StatusBadRequest, rec.Code, width)
		assert.Contains(t, rec.Body.String(), "error", width)
	}
}

func TestCoursesAPI(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/courses")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []courses.Course
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.NotEmpty(t, list)
	assert.True(t, list[0].IsPlaceholder())
}

func TestUpcomingAPI(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/upcoming")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []upcomingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "Thu", list[0].Day)
	assert.Equal(t, "9:15am – 10:15am", list[0].Time)
	assert.Equal(t, "Fri", list[1].Day)
	assert.Equal(t, "Mon", list[2].Day)
	assert.Equal(t, "Oct 19", list[2].Date)
}

func TestContact_Valid(t *testing.T) {
	rec := postForm(t, newTestServer(t), "/contact", url.Values{
		"name":    {"Ada"},
		"course":  {"Other/misc question"},
		"message": {"Can we go over recursion?"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Thank you for reaching out Ada!")
	assert.Contains(t, body, "mailto:tutor@example.edu?subject=Tutoring%20Contact%20Form%20Submission%20-%20Ada")
}

func TestContact_Invalid(t *testing.T) {
	rec := postForm(t, newTestServer(t), "/contact", url.Values{
		"name":    {"  "},
		"course":  {courses.Placeholder},
		"message": {"hi"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "name is required")
	assert.Contains(t, body, "choose a course")
	assert.NotContains(t, body, "mailto:")
}

func TestTheme_Toggle(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(t, s, "/theme", url.Values{"return": {"/schedule?week=2026-10-12"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/schedule?week=2026-10-12", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, theme.StorageKey, cookies[0].Name)
	assert.Equal(t, "light", cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	page := do(t, s, req).Body.String()
	assert.Contains(t, page, `data-theme="light"`)
	assert.Contains(t, page, "Dark Mode")

	req = httptest.NewRequest(http.MethodPost, "/theme", nil)
	req.AddCookie(cookies[0])
	rec = do(t, s, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "dark", rec.Result().Cookies()[0].Value)
}

func TestTheme_RejectsOffsiteReturn(t *testing.T) {
	rec := postForm(t, newTestServer(t), "/theme", url.Values{"return": {"//evil.example"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestICSFeed(t *testing.T) {
	rec := get(t, newTestServer(t), "/office-hours.ics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Equal(t, 4, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "DTSTART;TZID=America/New_York:20261012T173000")
}

func TestPreview(t *testing.T) {
	rec := get(t, newTestServer(t), "/preview.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	path := filepath.Join(t.TempDir(), "preview.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG"), 0o644))

	s := newTestServer(t, func(c *config.Config) {
		c.Preview.Enabled = true
		c.Preview.Output = path
	})
	rec = get(t, s, "/preview.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\x89PNG", rec.Body.String())
}

func TestStatic(t *testing.T) {
	s := newTestServer(t)
	for _, p := range []string{"/static/site.css", "/static/schedule.css", "/static/schedule.js"} {
		rec := get(t, s, p)
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}
}

func TestSetConfig_KeepsOldOnError(t *testing.T) {
	s := newTestServer(t)

	bad := config.DefaultConfig()
	bad.StartHour, bad.EndHour = 18, 9
	require.Error(t, s.SetConfig(bad))

	good := config.DefaultConfig()
	good.Title = "Study Hall"
	good.OfficeHours = good.OfficeHours[:1]
	require.NoError(t, s.SetConfig(good))

	body := get(t, s, "/").Body.String()
	assert.Contains(t, body, "<title>Study Hall</title>")
	assert.Equal(t, 1, strings.Count(body, `<div class="block`))
}

func TestSafeReturn(t *testing.T) {
	assert.Equal(t, "/", safeReturn(""))
	assert.Equal(t, "/", safeReturn("https://evil.example"))
	assert.Equal(t, "/", safeReturn(`/\evil.example`))
	assert.Equal(t, "/?week=2026-10-12", safeReturn("/?week=2026-10-12"))
}
