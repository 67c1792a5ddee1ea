// Package cli implements the logtray commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/watchfire-io/logtray/internal/worker"
)

var (
	flagWorker     bool
	flagForeground bool
	flagPort       int
)

var rootCmd = &cobra.Command{
	Use:   "logtray",
	Short: "Tray controller with an on-demand log console",
	Long: `logtray runs in the notification area and keeps every log line in memory.
"Show Logs" opens a console and replays the history into it, "Hide Logs"
closes it again. "Launch Worker" starts a worker process whose output is
folded into the same log.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagWorker {
			return runWorker(cmd.Context())
		}
		return runController(cmd.Context(), controllerOptions{
			Foreground: flagForeground,
			Port:       flagPort,
		})
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Launched from Explorer the tray must start, not print cobra's
	// "this is a command line tool" notice.
	cobra.MousetrapHelpText = ""

	rootCmd.Flags().BoolVar(&flagWorker, worker.DefaultFlag[2:], false, "Run as a worker process")
	rootCmd.Flags().BoolVar(&flagForeground, "foreground", false, "Run without a tray icon (control service and signals only)")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "Control service port (0 for dynamic allocation)")

	// Add subcommands (alphabetical)
	rootCmd.AddCommand(ctlCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(versionCmd)
}
