package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/watchfire-io/logtray/internal/config"
	"github.com/watchfire-io/logtray/internal/models"
)

var settingsInit bool

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Aliases: []string{"config"},
	Short:   "Show the effective settings",
	Long: `Show the effective settings from ~/.logtray/settings.yaml, with defaults
filled in for missing keys.

A running logtray picks up changes to logging.level and worker.tag_lines
without a restart.`,
	Args: cobra.NoArgs,
	RunE: runSettings,
}

func init() {
	settingsCmd.Flags().BoolVar(&settingsInit, "init", false, "Write a settings file with the defaults if none exists")
}

func runSettings(cmd *cobra.Command, args []string) error {
	path, err := config.GlobalSettingsFile()
	if err != nil {
		return err
	}

	if settingsInit {
		if config.FileExists(path) {
			fmt.Println(styleWarning.Render("Settings file already exists: ") + path)
		} else {
			if err := config.EnsureGlobalDir(); err != nil {
				return fmt.Errorf("failed to create global directory: %w", err)
			}
			if err := config.SaveSettings(models.NewSettings()); err != nil {
				return fmt.Errorf("failed to write settings: %w", err)
			}
			fmt.Println(styleSuccess.Render("Wrote ") + path)
		}
	}

	settings, err := config.LoadSettingsFile(path)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	fmt.Println(styleHint.Render("# " + path))
	fmt.Print(string(data))
	return nil
}
