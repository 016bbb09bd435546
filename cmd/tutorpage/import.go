package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tutorpage/internal/config"
	"tutorpage/internal/ics"
	appLog "tutorpage/internal/log"
)

var importCmd = &cobra.Command{
	Use:   "import [file.ics]",
	Short: "Turn weekly events from an iCalendar file into office hours",
	Long: `Reads a local .ics file and converts every weekly recurring event into
office_hours entries, using the configured timezone for wall-clock times.

By default the entries are printed as YAML. With --replace they overwrite
office_hours in the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := conf.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", conf.Timezone)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	blocks, err := ics.Import(f, loc)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return fmt.Errorf("import: no weekly events found in %s", args[0])
	}

	entries := make([]config.BlockConfig, 0, len(blocks))
	for _, b := range blocks {
		entries = append(entries, config.FromTimeBlock(b))
	}

	replace, _ := cmd.Flags().GetBool("replace")
	if !replace {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		defer enc.Close()
		return enc.Encode(map[string]any{"office_hours": entries})
	}

	conf.OfficeHours = entries
	if err := conf.Validate(); err != nil {
		return err
	}
	if err := conf.Save(configPath); err != nil {
		return err
	}
	appLog.Info("office hours replaced", "config_path", configPath, "blocks", len(entries))
	return nil
}
