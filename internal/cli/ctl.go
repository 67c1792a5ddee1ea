package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"

	"github.com/watchfire-io/logtray/internal/config"
	"github.com/watchfire-io/logtray/internal/daemon/server"
	"github.com/watchfire-io/logtray/internal/tui"
)

const ctlTimeout = 5 * time.Second

var ctlCmd = &cobra.Command{
	Use:   "ctl <command>",
	Short: "Control a running logtray",
	Long: `Send a command to the running logtray, as if chosen from its tray menu.

Commands:
  show-logs       open the log console and replay the history
  hide-logs       close the log console
  launch-worker   start a worker process
  activate        same as clicking the tray icon
  menu            re-render the tray menu
  exit            shut logtray down`,
	Args: cobra.ExactArgs(1),
	ValidArgs: []string{
		"show-logs", "hide-logs", "launch-worker", server.CommandActivate, server.CommandMenu, "exit",
	},
	RunE: runCtlCommand,
}

var ctlStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show controller status",
	Args:  cobra.NoArgs,
	RunE:  runCtlStatus,
}

var ctlWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live status view with keys for the tray commands",
	Args:  cobra.NoArgs,
	RunE:  runCtlWatch,
}

var ctlStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the controller and wait for it to exit",
	Args:  cobra.NoArgs,
	RunE:  runCtlStop,
}

func init() {
	ctlCmd.AddCommand(ctlStatusCmd)
	ctlCmd.AddCommand(ctlStopCmd)
	ctlCmd.AddCommand(ctlWatchCmd)
}

func sendCommand(ctx context.Context, name string) error {
	if _, err := server.ParseNotification(name); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, ctlTimeout)
	defer cancel()

	conn, _, err := connectDaemon(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := server.NewControlClient(conn).Command(ctx, name); err != nil {
		return fmt.Errorf("%s: %s", name, status.Convert(err).Message())
	}
	return nil
}

func runCtlCommand(cmd *cobra.Command, args []string) error {
	if err := sendCommand(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println(styleSuccess.Render("ok"))
	return nil
}

func runCtlStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), ctlTimeout)
	defer cancel()

	conn, info, err := connectDaemon(ctx)
	if errors.Is(err, errNotRunning) {
		fmt.Println(styleHint.Render("logtray is not running."))
		return nil
	}
	if err != nil {
		return err
	}
	defer conn.Close()

	st, err := server.NewControlClient(conn).Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %s", status.Convert(err).Message())
	}
	m := st.AsMap()

	consoleState, _ := m["console"].(string)
	badge := badgeDetached
	if consoleState == "attached" {
		badge = badgeAttached
	}

	fmt.Println(styleBrand.Render("logtray") + " is running.")
	fmt.Printf("  %s %v\n", styleLabel.Render("Version:"), styleValue.Render(fmt.Sprint(m["version"])))
	fmt.Printf("  %s     %s\n", styleLabel.Render("PID:"), styleValue.Render(fmt.Sprint(info.PID)))
	fmt.Printf("  %s    %s\n", styleLabel.Render("Port:"), styleValue.Render(fmt.Sprint(info.Port)))
	fmt.Printf("  %s  %s\n", styleLabel.Render("Uptime:"), styleValue.Render(time.Since(info.StartedAt).Truncate(time.Second).String()))
	fmt.Printf("  %s %s\n", styleLabel.Render("Console:"), badge.Render(consoleState))

	workers, _ := m["workers"].([]any)
	if len(workers) == 0 {
		fmt.Println("\n" + styleHint.Render("No running workers."))
		return nil
	}
	fmt.Printf("\nRunning workers (%d):\n", len(workers))
	for _, w := range workers {
		wm, ok := w.(map[string]any)
		if !ok {
			continue
		}
		fmt.Printf("  %v  pid %v  since %v\n", wm["id"], wm["pid"], wm["started_at"])
	}
	return nil
}

func runCtlWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), ctlTimeout)
	conn, _, err := connectDaemon(ctx)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close()

	return tui.Run(server.NewControlClient(conn))
}

func runCtlStop(cmd *cobra.Command, args []string) error {
	err := sendCommand(cmd.Context(), "exit")
	if errors.Is(err, errNotRunning) {
		fmt.Println(styleHint.Render("logtray is not running."))
		return nil
	}
	if err != nil {
		return err
	}

	// Poll for shutdown (max 5 seconds)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		stillRunning, _, err := config.IsDaemonRunning()
		if err == nil && !stillRunning {
			fmt.Println(styleSuccess.Render("logtray stopped."))
			return nil
		}
	}
	return fmt.Errorf("logtray did not stop within timeout")
}
