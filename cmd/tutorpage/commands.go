package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tutorpage/internal/capture"
	"tutorpage/internal/config"
	"tutorpage/internal/ics"
	appLog "tutorpage/internal/log"
	"tutorpage/internal/preview"
	"tutorpage/internal/schedule"
	"tutorpage/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	Long: `Serves the page, the JSON API and the iCalendar feed. Changes to the config
file are applied without a restart. When preview.enabled is set, a headless
Chromium snapshot of /schedule is refreshed on preview.cron.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Lay out one week and print it",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

var icsCmd = &cobra.Command{
	Use:   "ics",
	Short: "Export office hours as an iCalendar feed",
	Args:  cobra.NoArgs,
	RunE:  runICS,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the weekly calendar as a PNG with headless Chromium",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

func runServe(cmd *cobra.Command, _ []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		conf.Listen = listen
	}
	noWatch, _ := cmd.Flags().GetBool("no-watch")

	appLog.Info("tutorpage starting",
		"version", version,
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"office_hours", len(conf.OfficeHours),
		"preview", conf.Preview.Enabled,
	)

	var opts []web.Option
	var sched *preview.Scheduler
	if conf.Preview.Enabled {
		loc, _ := conf.Location()
		sched, err = preview.NewScheduler(conf.Preview.Cron, loc, captureJob(conf, localURL(conf.Listen)+"/schedule"))
		if err != nil {
			return fmt.Errorf("preview: cron %q: %w", conf.Preview.Cron, err)
		}
		opts = append(opts, web.WithPreviewStatus(sched.Status))
	}

	srv, err := web.NewServer(conf, opts...)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		return web.StartServer(ctx, srv, conf.Listen)
	})

	if !noWatch {
		listen := conf.Listen
		w, err := config.NewWatcher(configPath, func(next *config.Config) {
			if next.Listen != listen {
				appLog.Warn("listen address changes need a restart", "current", listen, "configured", next.Listen)
				next.Listen = listen
			}
			if err := srv.SetConfig(next); err != nil {
				appLog.Error("config reload rejected", err)
				return
			}
			if !debug {
				appLog.SetLevel(appLog.ParseLevel(next.LogLevel))
			}
		})
		if err != nil {
			appLog.Error("config watcher unavailable; reload disabled", err)
		} else {
			g.Go(func() error { return w.Run(ctx) })
		}
	}

	if sched != nil {
		g.Go(func() error {
			// Give the listener a moment so the first capture finds the page.
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
				return nil
			}
			return sched.Run(ctx)
		})
	}

	err = g.Wait()
	appLog.Info("tutorpage exiting")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runRender(cmd *cobra.Command, _ []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	cal, err := renderWeek(conf, mustFlag(cmd, "week"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format := mustFlag(cmd, "format"); format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cal)
	case "text", "":
		return writeText(out, cal)
	default:
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}
}

func renderWeek(conf *config.Config, week string) (*schedule.Calendar, error) {
	calCfg, err := conf.Calendar()
	if err != nil {
		return nil, err
	}
	loc, err := conf.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", conf.Timezone)
	}

	opts := schedule.Options{Location: loc}
	if week != "" {
		opts.Week, err = time.ParseInLocation(time.DateOnly, week, loc)
		if err != nil {
			return nil, fmt.Errorf("--week: %w", err)
		}
	}
	return schedule.Render(calCfg, conf.LayoutConstants(), opts)
}

func writeText(w io.Writer, cal *schedule.Calendar) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Week of %s (%s), %s to %s\n",
		cal.WeekStart.Format("Mon Jan 2, 2006"), cal.Timezone,
		schedule.MinsToLabel(cal.StartHour*60), schedule.MinsToLabel(cal.EndHour*60))

	for i, col := range cal.Columns {
		h := cal.Header[i]
		marker := " "
		if col.IsToday {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s %-5s", marker, h.Name, h.MonthDay)
		if len(col.Blocks) == 0 {
			b.WriteString("  -\n")
			continue
		}
		for j, pb := range col.Blocks {
			if j > 0 {
				b.WriteString(strings.Repeat(" ", 12))
			}
			fmt.Fprintf(&b, "  %-18s %s", pb.TimeLabel, pb.Title)
			if pb.Tip != "" {
				fmt.Fprintf(&b, " (%s)", pb.Tip)
			}
			b.WriteByte('\n')
		}
	}
	if cal.NowLine.Visible {
		fmt.Fprintf(&b, "now: %s, %.0fpx from the top of column %d\n",
			cal.NowLine.At.Format("Mon 3:04pm"), cal.NowLine.Y, cal.NowLine.Column)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func runICS(cmd *cobra.Command, _ []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	calCfg, err := conf.Calendar()
	if err != nil {
		return err
	}
	loc, err := conf.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", conf.Timezone)
	}
	weekStart := schedule.StartOfWeek(time.Now().In(loc), calCfg.WeekStartsOn)

	body, err := ics.Export(calCfg.Blocks, weekStart, ics.ExportOptions{
		Name:        conf.Title,
		Description: "Weekly office hours",
	})
	if err != nil {
		return err
	}

	if path := mustFlag(cmd, "out"); path != "" {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("ics: write %s: %w", path, err)
		}
		appLog.Info("ics feed written", "path", path, "events", len(calCfg.Blocks))
		return nil
	}
	_, err = io.WriteString(cmd.OutOrStdout(), body)
	return err
}

// runSnapshot captures --url, or serves /schedule on a loopback port for the
// duration of the capture.
func runSnapshot(cmd *cobra.Command, _ []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	if out := mustFlag(cmd, "out"); out != "" {
		conf.Preview.Output = out
	}

	target := mustFlag(cmd, "url")
	if target != "" {
		return captureJob(conf, target)(cmd.Context())
	}

	srv, err := web.NewServer(conf)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	httpSrv := &http.Server{Handler: srv.Handler(), ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
		return captureJob(conf, "http://"+ln.Addr().String()+"/schedule")(ctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	appLog.Info("snapshot written", "path", conf.Preview.Output)
	return nil
}

func captureJob(conf *config.Config, url string) preview.Job {
	opts := capture.Options{
		URL:        url,
		OutputPath: conf.Preview.Output,
		Width:      conf.Preview.Width,
		Height:     conf.Preview.Height,
	}
	return func(ctx context.Context) error {
		return capture.SchedulePNG(ctx, opts)
	}
}

// localURL turns a listen address into a URL reachable from this host.
func localURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func mustFlag(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("flag %q not registered: %v", name, err))
	}
	return v
}
