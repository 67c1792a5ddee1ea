package worker

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// RunEntry is the worker-mode entry point. It stands in for the worker's
// application: it reports its start, emits a heartbeat until ctx ends, and
// exits cleanly. Everything it logs reaches the controller through the
// stderr pipe.
func RunEntry(ctx context.Context, logger *slog.Logger, heartbeat time.Duration) error {
	if heartbeat <= 0 {
		heartbeat = 2 * time.Second
	}
	logger = logger.With("component", "worker-entry")
	logger.Info("Worker started", "pid", os.Getpid(), "ppid", os.Getppid())

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	beats := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("Worker stopping", "beats", beats)
			return nil
		case <-ticker.C:
			beats++
			logger.Debug("Worker heartbeat", "beats", beats)
		}
	}
}
