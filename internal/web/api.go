package web

import (
	"net/http"
	"time"

	"tutorpage/internal/courses"
	"tutorpage/internal/ics"
	appLog "tutorpage/internal/log"
	"tutorpage/internal/schedule"
)

const (
	defaultUpcoming = 3
	maxUpcoming     = 50
)

// render lays out the requested week with the current config.
func (s *Server) render(st *siteState, week time.Time) (*schedule.Calendar, error) {
	return schedule.Render(st.cal, st.layout, schedule.Options{
		Now:      s.now,
		Location: st.loc,
		Week:     week,
	})
}

// handleScheduleAPI returns the laid out week as JSON.
//
// GET /api/schedule?week=2026-10-12
//   - week: any date inside the wanted week (default: this week)
func (s *Server) handleScheduleAPI(w http.ResponseWriter, r *http.Request) {
	_, st := s.snapshot()

	week, err := weekParam(r, st.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "week must be YYYY-MM-DD")
		return
	}
	cal, err := s.render(st, week)
	if err != nil {
		appLog.Error("api schedule: render failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render schedule")
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// handleNowLine recomputes only the current-time indicator. The page calls it
// after a resize with the measured grid width, so the grid itself is never
// rebuilt.
//
// GET /api/now-line?width=1040&week=2026-10-12
func (s *Server) handleNowLine(w http.ResponseWriter, r *http.Request) {
	_, st := s.snapshot()

	week, err := weekParam(r, st.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "week must be YYYY-MM-DD")
		return
	}

	layout := st.layout
	width, ok := parseFloatDefault(r.URL.Query().Get("width"), layout.GridWidth)
	if !ok {
		writeError(w, http.StatusBadRequest, "width must be a finite number")
		return
	}
	layout.GridWidth = width
	if layout.GridWidth <= layout.TimeColWidth {
		writeError(w, http.StatusBadRequest, "width must exceed the time column")
		return
	}

	now := s.now().In(st.loc)
	ref := now
	if !week.IsZero() {
		ref = week
	}
	weekStart := schedule.StartOfWeek(ref, st.cal.WeekStartsOn)

	writeJSON(w, http.StatusOK, schedule.PositionNowLine(now, weekStart, st.cal, layout))
}

func (s *Server) handleCourses(w http.ResponseWriter, _ *http.Request) {
	cfg, _ := s.snapshot()
	writeJSON(w, http.StatusOK, courses.ParseAll(cfg.Courses))
}

// upcomingView is the JSON/HTML shape of one upcoming office-hours slot.
type upcomingView struct {
	Title    string    `json:"title"`
	Tip      string    `json:"tip,omitempty"`
	Day      string    `json:"day"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	InFuture bool      `json:"in_future"`
}

func (s *Server) upcoming(st *siteState, n int) []upcomingView {
	now := s.now().In(st.loc)
	occ := ics.Upcoming(st.cal.Blocks, now, st.loc, n)

	out := make([]upcomingView, 0, len(occ))
	for _, o := range occ {
		title := o.Block.Title
		if title == "" {
			title = "Busy"
		}
		out = append(out, upcomingView{
			Title:    title,
			Tip:      o.Block.Tip,
			Day:      schedule.DayName(o.Start.Weekday()),
			Date:     o.Start.Format("Jan 2"),
			Time:     clockLabel(o.Start) + " – " + clockLabel(o.End),
			Start:    o.Start,
			End:      o.End,
			InFuture: o.Start.After(now),
		})
	}
	return out
}

// GET /api/upcoming?n=5
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	_, st := s.snapshot()
	n := parseIntDefault(r.URL.Query().Get("n"), defaultUpcoming)
	if n <= 0 || n > maxUpcoming {
		n = defaultUpcoming
	}
	writeJSON(w, http.StatusOK, s.upcoming(st, n))
}

// handleICS exports the office hours as a subscribable iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	cfg, st := s.snapshot()

	weekStart := schedule.StartOfWeek(s.now().In(st.loc), st.cal.WeekStartsOn)
	body, err := ics.Export(st.cal.Blocks, weekStart, ics.ExportOptions{
		Name:        cfg.Title,
		Description: "Weekly office hours",
		Now:         s.now,
	})
	if err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="office-hours.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func clockLabel(t time.Time) string {
	return schedule.MinsToLabel(t.Hour()*60 + t.Minute())
}
