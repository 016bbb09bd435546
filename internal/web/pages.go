package web

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tutorpage/internal/config"
	"tutorpage/internal/contact"
	"tutorpage/internal/courses"
	appLog "tutorpage/internal/log"
	"tutorpage/internal/schedule"
	"tutorpage/internal/theme"
)

var templateFuncs = template.FuncMap{
	"px": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64) + "px"
	},
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
	"isoDate": func(t time.Time) string {
		return t.Format(time.DateOnly)
	},
	"weekLabel": func(t time.Time) string {
		return "Week of " + t.Format("Jan 2, 2006")
	},
}

// pageData feeds index.html and schedule.html.
type pageData struct {
	Title       string
	About       template.HTML
	Theme       theme.Theme
	ThemeToggle string
	ReturnTo    string

	Calendar *schedule.Calendar
	Upcoming []upcomingView
	ThisWeek bool

	Courses    []courses.Course
	Form       contact.Submission
	FormErrors []string
	ThankYou   string
	Mailto     template.URL
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	cfg, st := s.snapshot()
	data, err := s.buildPage(r, cfg, st)
	if err != nil {
		appLog.Error("index: render failed", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, http.StatusOK, "index.html", data)
}

// handleSchedulePage serves the calendar on its own. Its root element carries
// data-ready="true" and is the screenshot target.
func (s *Server) handleSchedulePage(w http.ResponseWriter, r *http.Request) {
	cfg, st := s.snapshot()
	data, err := s.buildPage(r, cfg, st)
	if err != nil {
		appLog.Error("schedule page: render failed", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	s.renderPage(w, http.StatusOK, "schedule.html", data)
}

// handleContact validates the form and, on success, hands the message to the
// visitor's mail client through a mailto: link.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	cfg, st := s.snapshot()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	sub := contact.Submission{
		Name:    r.PostForm.Get("name"),
		Course:  r.PostForm.Get("course"),
		Message: r.PostForm.Get("message"),
	}.Normalize()

	data, err := s.buildPage(r, cfg, st)
	if err != nil {
		appLog.Error("contact: render failed", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	data.Form = sub

	if err := sub.Validate(data.Courses); err != nil {
		data.FormErrors = formErrors(err)
		s.renderPage(w, http.StatusBadRequest, "index.html", data)
		return
	}

	data.ThankYou = contact.ThankYou(sub.Name)
	// Built by contact.BuildMailto, which percent-encodes subject and body.
	data.Mailto = template.URL(contact.BuildMailto(cfg.Contact.Email, cfg.Contact.SubjectPrefix, sub))
	data.Form = contact.Submission{}

	appLog.Info("contact form accepted", "course", sub.Course)
	s.renderPage(w, http.StatusOK, "index.html", data)
}

// handleTheme flips the stored theme and sends the visitor back.
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	cfg, _ := s.snapshot()
	current := theme.FromRequest(r, theme.Theme(cfg.DefaultTheme))
	theme.Store(w, current.Toggle())

	_ = r.ParseForm()
	http.Redirect(w, r, safeReturn(r.PostForm.Get("return")), http.StatusSeeOther)
}

func (s *Server) buildPage(r *http.Request, cfg *config.Config, st *siteState) (*pageData, error) {
	week, err := weekParam(r, st.loc)
	if err != nil {
		appLog.Debug("ignoring malformed week parameter", "week", r.URL.Query().Get("week"))
		week = time.Time{}
	}
	cal, err := s.render(st, week)
	if err != nil {
		return nil, err
	}

	t := theme.FromRequest(r, theme.Theme(cfg.DefaultTheme))
	thisWeek := schedule.StartOfWeek(s.now().In(st.loc), st.cal.WeekStartsOn)

	return &pageData{
		Title:       cfg.Title,
		About:       st.about,
		Theme:       t,
		ThemeToggle: t.ButtonLabel(),
		ReturnTo:    returnPath(r),
		Calendar:    cal,
		Upcoming:    s.upcoming(st, defaultUpcoming),
		ThisWeek:    cal.WeekStart.Equal(thisWeek),
		Courses:     courses.ParseAll(cfg.Courses),
	}, nil
}

// renderPage executes into a buffer first so a template error never leaves
// a half-written page behind.
func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data *pageData) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		appLog.Error("template execution failed", err, "template", name)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func formErrors(err error) []string {
	var msgs []string
	for _, e := range []error{contact.ErrNameRequired, contact.ErrCourseRequired, contact.ErrMessageRequired} {
		if errors.Is(err, e) {
			msgs = append(msgs, strings.TrimPrefix(e.Error(), "contact: "))
		}
	}
	if len(msgs) == 0 {
		msgs = append(msgs, err.Error())
	}
	return msgs
}

// returnPath is where the theme toggle should send the visitor back to.
func returnPath(r *http.Request) string {
	if r.Method != http.MethodGet {
		return "/"
	}
	return r.URL.RequestURI()
}

// safeReturn only allows local absolute paths.
func safeReturn(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}
