package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/watchfire-io/logtray/internal/buildinfo"
	"github.com/watchfire-io/logtray/internal/config"
	"github.com/watchfire-io/logtray/internal/logging"
	"github.com/watchfire-io/logtray/internal/models"
	"github.com/watchfire-io/logtray/internal/worker"
)

// runWorker is the --worker entry point. Its stdout and stderr are pipes
// read by the controller, so everything goes to plain stderr here.
func runWorker(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	settings, settingsErr := config.LoadSettings()
	if settingsErr != nil {
		settings = models.NewSettings()
	}

	lg, err := logging.Setup(logging.Options{Sink: io.Discard, Stderr: os.Stderr, Level: settings.Logging.Level})
	if err != nil {
		return err
	}
	if settingsErr != nil {
		lg.Logger.Warn("Using default settings", "err", settingsErr)
	}

	fmt.Fprintf(os.Stdout, "logtray worker %s (pid %d)\n", buildinfo.Version, os.Getpid())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return worker.RunEntry(ctx, lg.Logger, settings.Worker.Heartbeat)
}
