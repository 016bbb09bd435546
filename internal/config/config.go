package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tutorpage/internal/courses"
	"tutorpage/internal/model"
	"tutorpage/internal/schedule"
)

// BlockConfig describes a single office-hours block as written in YAML.
type BlockConfig struct {
	// Day is a weekday name ("monday", "Tue") or a number 0-6 with Sunday=0.
	Day   string `yaml:"day" json:"day"`
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
	Title string `yaml:"title" json:"title"`
	Tip   string `yaml:"tip,omitempty" json:"tip,omitempty"`
}

// LayoutConfig carries the pixel constants shared by the layout code and the
// rendered stylesheet.
type LayoutConfig struct {
	HourHeight   float64 `yaml:"hour_height" json:"hour_height"`
	TimeColWidth float64 `yaml:"time_col_width" json:"time_col_width"`
	GridWidth    float64 `yaml:"grid_width" json:"grid_width"`
}

// ContactConfig controls the mailto contact form.
type ContactConfig struct {
	// Email is the mailto recipient.
	Email string `yaml:"email" json:"email"`
	// SubjectPrefix is prepended to the sender name in the subject line.
	SubjectPrefix string `yaml:"subject_prefix" json:"subject_prefix"`
}

// PreviewConfig controls the headless-browser snapshot of the calendar.
type PreviewConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Cron is a cron-style schedule string (e.g. "*/30 * * * *").
	Cron string `yaml:"cron" json:"cron"`

	// Output is where the PNG is written and served from.
	Output string `yaml:"output" json:"output"`

	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA reference timezone for the calendar and the now-line
	// (e.g. "America/New_York"). Every viewer sees the same zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is the weekday the calendar week begins on ("monday" by default).
	WeekStart string `yaml:"week_start" json:"week_start"`

	// StartHour / EndHour bound the visible window, 24-hour clock.
	StartHour int `yaml:"start_hour" json:"start_hour"`
	EndHour   int `yaml:"end_hour" json:"end_hour"`

	Layout LayoutConfig `yaml:"layout" json:"layout"`

	OfficeHours []BlockConfig `yaml:"office_hours" json:"office_hours"`

	// Courses is the course dropdown, in display order. The first entry is the
	// placeholder option.
	Courses []string `yaml:"courses" json:"courses"`

	Contact ContactConfig `yaml:"contact" json:"contact"`

	// DefaultTheme is used when the visitor has no stored theme ("dark" or "light").
	DefaultTheme string `yaml:"default_theme" json:"default_theme"`

	// Title and About (Markdown) are shown at the top of the page.
	Title string `yaml:"title" json:"title"`
	About string `yaml:"about" json:"about"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	Preview PreviewConfig `yaml:"preview" json:"preview"`
}

const (
	defaultListen       = "127.0.0.1:8080"
	defaultTimezone     = "America/New_York"
	defaultWeekStart    = "monday"
	defaultStartHour    = 8
	defaultEndHour      = 20
	defaultTheme        = "dark"
	defaultTitle        = "Tutoring & Office Hours"
	defaultEmail        = "tutor@example.edu"
	defaultSubject      = "Tutoring Contact Form Submission"
	defaultPreviewCron  = "*/30 * * * *"
	defaultPreviewPath  = "./cache/preview.png"
	defaultPreviewW     = 1280
	defaultPreviewH     = 900
	defaultLogLevel     = "info"
	officeHoursTitle    = "Office Hours"
	officeHoursLocation = "TETC111"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	layout := schedule.DefaultLayout()
	return &Config{
		Listen:    defaultListen,
		Timezone:  defaultTimezone,
		WeekStart: defaultWeekStart,
		StartHour: defaultStartHour,
		EndHour:   defaultEndHour,
		Layout: LayoutConfig{
			HourHeight:   layout.HourHeight,
			TimeColWidth: layout.TimeColWidth,
			GridWidth:    layout.GridWidth,
		},
		OfficeHours: []BlockConfig{
			{Day: "monday", Start: "17:30", End: "19:30", Title: officeHoursTitle, Tip: officeHoursLocation},
			{Day: "tuesday", Start: "9:15", End: "10:15", Title: officeHoursTitle, Tip: officeHoursLocation},
			{Day: "friday", Start: "14:00", End: "15:00", Title: officeHoursTitle, Tip: officeHoursLocation},
			{Day: "thursday", Start: "9:15", End: "10:15", Title: officeHoursTitle, Tip: officeHoursLocation},
		},
		Courses: courses.Default(),
		Contact: ContactConfig{
			Email:         defaultEmail,
			SubjectPrefix: defaultSubject,
		},
		DefaultTheme: defaultTheme,
		Title:        defaultTitle,
		About:        "Drop by during office hours or use the form below to reach out about any course.",
		LogLevel:     defaultLogLevel,
		Preview: PreviewConfig{
			Enabled: false,
			Cron:    defaultPreviewCron,
			Output:  defaultPreviewPath,
			Width:   defaultPreviewW,
			Height:  defaultPreviewH,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if strings.TrimSpace(c.WeekStart) == "" {
		c.WeekStart = defaultWeekStart
	}
	if c.StartHour == 0 && c.EndHour == 0 {
		c.StartHour = defaultStartHour
		c.EndHour = defaultEndHour
	}

	def := schedule.DefaultLayout()
	if c.Layout.HourHeight <= 0 {
		c.Layout.HourHeight = def.HourHeight
	}
	if c.Layout.TimeColWidth <= 0 {
		c.Layout.TimeColWidth = def.TimeColWidth
	}
	if c.Layout.GridWidth <= c.Layout.TimeColWidth {
		c.Layout.GridWidth = c.Layout.TimeColWidth + (def.GridWidth - def.TimeColWidth)
	}

	if c.OfficeHours == nil {
		c.OfficeHours = []BlockConfig{}
	}
	if len(c.Courses) == 0 {
		c.Courses = courses.Default()
	}
	if c.Contact.SubjectPrefix == "" {
		c.Contact.SubjectPrefix = defaultSubject
	}
	switch c.DefaultTheme {
	case "dark", "light":
	default:
		c.DefaultTheme = defaultTheme
	}
	if c.Title == "" {
		c.Title = defaultTitle
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Preview.Cron == "" {
		c.Preview.Cron = defaultPreviewCron
	}
	if c.Preview.Output == "" {
		c.Preview.Output = defaultPreviewPath
	}
	if c.Preview.Width <= 0 {
		c.Preview.Width = defaultPreviewW
	}
	if c.Preview.Height <= 0 {
		c.Preview.Height = defaultPreviewH
	}
}

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if _, err := c.Calendar(); err != nil {
		errs = append(errs, err)
	}
	if c.Contact.Email == "" {
		errs = append(errs, errors.New("contact.email is empty"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, err
	}
	return loc, nil
}

// Calendar converts the YAML view into the layout configuration.
func (c *Config) Calendar() (schedule.Config, error) {
	ws, err := ParseWeekday(c.WeekStart)
	if err != nil {
		return schedule.Config{}, fmt.Errorf("week_start: %w", err)
	}

	blocks := make([]model.TimeBlock, 0, len(c.OfficeHours))
	var errs []error
	for i, b := range c.OfficeHours {
		tb, err := b.TimeBlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("office_hours[%d]: %w", i, err))
			continue
		}
		blocks = append(blocks, tb)
	}

	cal := schedule.Config{
		StartHour:    c.StartHour,
		EndHour:      c.EndHour,
		WeekStartsOn: ws,
		Blocks:       blocks,
	}
	if err := cal.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return cal, errors.Join(errs...)
	}
	return cal, nil
}

// LayoutConstants returns the pixel constants for the layout code.
func (c *Config) LayoutConstants() schedule.Layout {
	return schedule.Layout{
		HourHeight:   c.Layout.HourHeight,
		TimeColWidth: c.Layout.TimeColWidth,
		GridWidth:    c.Layout.GridWidth,
	}
}

// TimeBlock converts and checks a single block.
func (b BlockConfig) TimeBlock() (model.TimeBlock, error) {
	day, err := ParseWeekday(b.Day)
	if err != nil {
		return model.TimeBlock{}, err
	}
	start, err := schedule.TimeToMinutes(b.Start)
	if err != nil {
		return model.TimeBlock{}, err
	}
	end, err := schedule.TimeToMinutes(b.End)
	if err != nil {
		return model.TimeBlock{}, err
	}
	if end <= start {
		return model.TimeBlock{}, fmt.Errorf("end %s is not after start %s", b.End, b.Start)
	}
	return model.TimeBlock{
		Day:   day,
		Start: b.Start,
		End:   b.End,
		Title: b.Title,
		Tip:   b.Tip,
	}, nil
}

// FromTimeBlock is the inverse of BlockConfig.TimeBlock.
func FromTimeBlock(b model.TimeBlock) BlockConfig {
	return BlockConfig{
		Day:   strings.ToLower(b.Day.String()),
		Start: b.Start,
		End:   b.End,
		Title: b.Title,
		Tip:   b.Tip,
	}
}

// ParseWeekday accepts full or three-letter English weekday names in any case,
// or a number 0-6 with Sunday=0.
func ParseWeekday(s string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday %d out of range 0-6", n)
		}
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML and normalizes defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the given configuration to path atomically (temp file + rename)
// with 0600 permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tutorpage-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
