package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"tutorpage/internal/config"
	appLog "tutorpage/internal/log"
)

const version = "0.3.0"

var (
	// Global flags
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "tutorpage",
	Short: "Tutoring page with a weekly office-hours calendar",
	Long: `tutorpage serves a tutoring page: an about blurb, a weekly office-hours
calendar with a current-time line, a contact form that opens the visitor's mail
client, and a subscribable iCalendar feed.

Office hours, courses and layout live in a YAML config file that is created
with defaults on first run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			appLog.SetLevel(appLog.LevelDebug)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		appLog.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./tutorpage.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	serveCmd.Flags().String("listen", "", "HTTP listen address (overrides config if set)")
	serveCmd.Flags().Bool("no-watch", false, "Do not reload the config file on change")

	renderCmd.Flags().String("week", "", "Any date inside the week to render (YYYY-MM-DD, default: this week)")
	renderCmd.Flags().String("format", "text", "Output format: text or json")

	icsCmd.Flags().StringP("out", "o", "", "Write the feed to a file instead of stdout")

	snapshotCmd.Flags().String("url", "", "Page to capture (default: serve /schedule in-process)")
	snapshotCmd.Flags().StringP("out", "o", "", "PNG output path (default: preview.output from config)")

	importCmd.Flags().Bool("replace", false, "Replace office_hours in the config file instead of printing YAML")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(icsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("tutorpage " + version)
	},
}

func main() {
	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			appLog.Error("tutorpage failed", err)
		}
		appLog.Sync()
		os.Exit(1)
	}
}

// loadConfig reads the config file (creating it on first run), validates it
// and applies its log level unless --debug is set.
func loadConfig() (*config.Config, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", configPath)
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if !debug {
		appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	}
	return conf, nil
}
