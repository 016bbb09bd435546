package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"tutorpage/internal/config"
	appLog "tutorpage/internal/log"
	"tutorpage/internal/preview"
	"tutorpage/internal/schedule"
)

// Server serves the tutoring page, the calendar API and the ICS feed.
type Server struct {
	mux *http.ServeMux
	now func() time.Time

	// previewStatus reports the background snapshot job, if one runs.
	previewStatus func() preview.Status

	// Guarded by mu; replaced wholesale on config reload.
	mu    sync.RWMutex
	cfg   *config.Config
	state *siteState

	pages *template.Template
}

// siteState is everything derived from a config that does not depend on the
// request or the clock.
type siteState struct {
	cal    schedule.Config
	layout schedule.Layout
	loc    *time.Location
	about  template.HTML
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces time.Now. Used by tests and the render command.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithPreviewStatus exposes the snapshot job under /api/preview.
func WithPreviewStatus(fn func() preview.Status) Option {
	return func(s *Server) { s.previewStatus = fn }
}

//go:embed templates/*.html
var templateFS embed.FS

//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a Server for cfg. It fails only when the embedded
// templates are broken or cfg does not describe a valid calendar.
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	pages, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		mux:   http.NewServeMux(),
		now:   time.Now,
		pages: pages,
	}
	for _, o := range opts {
		o(s)
	}
	if err := s.SetConfig(cfg); err != nil {
		return nil, err
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// SetConfig swaps the active configuration. The old config stays in place
// when the new one is invalid.
func (s *Server) SetConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("web: config is nil")
	}
	cal, err := cfg.Calendar()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", cfg.Timezone)
	}

	about, err := renderMarkdown(cfg.About)
	if err != nil {
		appLog.Error("about text could not be rendered", err)
	}

	st := &siteState{
		cal:    cal,
		layout: cfg.LayoutConstants(),
		loc:    loc,
		about:  about,
	}

	s.mu.Lock()
	s.cfg = cfg
	s.state = st
	s.mu.Unlock()

	appLog.Info("site config applied",
		"timezone", loc.String(),
		"blocks", len(cal.Blocks),
		"courses", len(cfg.Courses),
	)
	return nil
}

// snapshot returns the config and derived state for one request.
func (s *Server) snapshot() (*config.Config, *siteState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.state
}

// StartServer runs the HTTP server on cfg.Listen until ctx is cancelled, then
// shuts it down gracefully.
func StartServer(ctx context.Context, s *Server, listen string) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /schedule", s.handleSchedulePage)
	s.mux.HandleFunc("POST /contact", s.handleContact)
	s.mux.HandleFunc("POST /theme", s.handleTheme)

	s.mux.HandleFunc("GET /api/schedule", s.handleScheduleAPI)
	s.mux.HandleFunc("GET /api/now-line", s.handleNowLine)
	s.mux.HandleFunc("GET /api/courses", s.handleCourses)
	s.mux.HandleFunc("GET /api/upcoming", s.handleUpcoming)
	s.mux.HandleFunc("GET /api/preview", s.handlePreviewStatus)

	s.mux.HandleFunc("GET /office-hours.ics", s.handleICS)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)

	s.mux.Handle("GET /static/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// staticFileServer serves the embedded stylesheets and scripts under /static/.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static files not available", http.StatusServiceUnavailable)
		})
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// handlePreview serves the last captured PNG from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	cfg, _ := s.snapshot()
	if !cfg.Preview.Enabled {
		writeError(w, http.StatusNotFound, "preview disabled")
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, cfg.Preview.Output)
}

func (s *Server) handlePreviewStatus(w http.ResponseWriter, _ *http.Request) {
	if s.previewStatus == nil {
		writeError(w, http.StatusNotFound, "preview disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.previewStatus())
}

// weekParam resolves ?week=YYYY-MM-DD in loc. An empty value is the zero time.
func weekParam(r *http.Request, loc *time.Location) (time.Time, error) {
	v := r.URL.Query().Get("week")
	if v == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(time.DateOnly, v, loc)
}

func renderMarkdown(src string) (template.HTML, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src)), err
	}
	// goldmark drops raw HTML unless WithUnsafe is set.
	return template.HTML(buf.String()), nil
}

// parseFloatDefault returns def for an empty s. Unparsable and non-finite
// values report false.
func parseFloatDefault(s string, def float64) (float64, bool) {
	if s == "" {
		return def, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def, false
	}
	return f, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start).String(),
		)
	})
}
