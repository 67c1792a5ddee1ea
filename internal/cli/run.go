package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/watchfire-io/logtray/internal/config"
	"github.com/watchfire-io/logtray/internal/console"
	"github.com/watchfire-io/logtray/internal/daemon/server"
	"github.com/watchfire-io/logtray/internal/daemon/tray"
	"github.com/watchfire-io/logtray/internal/daemon/watcher"
	"github.com/watchfire-io/logtray/internal/dispatch"
	"github.com/watchfire-io/logtray/internal/logging"
	"github.com/watchfire-io/logtray/internal/logsink"
	"github.com/watchfire-io/logtray/internal/models"
	"github.com/watchfire-io/logtray/internal/worker"
)

type controllerOptions struct {
	Foreground bool
	Port       int
}

// controller holds everything the tray process wires together.
type controller struct {
	logger     *slog.Logger
	logging    *logging.Logging
	launcher   *worker.Launcher
	dispatcher *dispatch.Dispatcher
	server     *server.Server
	watcher    *watcher.Watcher
	signals    chan os.Signal
	cleanup    sync.Once
}

// runController runs the tray process until Exit or a window-destroy. It
// returns nil in both cases so the process exits with status 0.
func runController(ctx context.Context, opts controllerOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Capture starts before anything else logs.
	sink := logsink.New()

	settings, settingsErr := config.LoadSettings()
	if settingsErr != nil {
		settings = models.NewSettings()
	}
	lg, err := logging.Setup(logging.Options{Sink: sink, Stderr: os.Stderr, Level: settings.Logging.Level})
	if err != nil {
		return err
	}
	logger := lg.Logger
	if settingsErr != nil {
		logger.Warn("Failed to load settings, using defaults", "err", settingsErr)
	}

	if err := config.EnsureGlobalDir(); err != nil {
		return fmt.Errorf("failed to create global directory: %w", err)
	}
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("logtray already running on port %d (PID %d)", info.Port, info.PID)
	}

	c := &controller{
		logger:  logger,
		logging: lg,
		signals: make(chan os.Signal, 1),
	}

	rearm := func() {
		signal.Notify(c.signals, os.Interrupt, syscall.SIGTERM)
	}
	ctrl := console.NewController(console.ControllerOptions{
		Device:         console.NewDevice(),
		Sink:           sink,
		Stderr:         lg.Stderr,
		Fallback:       os.Stderr,
		Rearm:          rearm,
		ReattachParent: settings.Console.ReattachParent,
		Logger:         logger,
	})
	initial := ctrl.Startup()
	rearm()
	logger.Info("Starting logtray", "pid", os.Getpid(), "console", initial.String(), "foreground", opts.Foreground)

	c.launcher = worker.New(worker.Options{
		Executable:  settings.Worker.Executable,
		Args:        []string{settings.Worker.Flag},
		Output:      lg.Output,
		TagLines:    settings.Worker.TagLines,
		StopTimeout: settings.Worker.StopTimeout,
		Logger:      logger,
	})

	var icon dispatch.Tray
	var sysTray *tray.Tray
	if opts.Foreground {
		icon = headlessTray{logger: logger}
	} else {
		sysTray = tray.New(tray.Options{
			Title:   settings.Tray.Title,
			Tooltip: settings.Tray.Tooltip,
			Notify:  func(n dispatch.Notification) { c.dispatcher.Send(n) },
			Logger:  logger,
		})
		icon = sysTray
	}

	var errorFiles *dispatch.ErrorFiles
	if settings.Logging.ErrorFiles {
		errorFiles = &dispatch.ErrorFiles{Dir: settings.Logging.ErrorDir}
	}
	c.dispatcher = dispatch.New(dispatch.Options{
		Console:    ctrl,
		Launcher:   c.launcher,
		Tray:       icon,
		State:      console.NewStateBox(initial),
		ErrorFiles: errorFiles,
		Logger:     logger,
	})

	if err := c.startServices(opts.Port); err != nil {
		c.shutdown()
		return err
	}
	go c.forwardSignals()

	if sysTray == nil {
		logger.Info("Running in foreground mode (no system tray)")
		err := c.dispatcher.Run(ctx)
		c.shutdown()
		return ignoreCanceled(err)
	}

	// systray.Run must occupy the main goroutine on macOS.
	runDone := make(chan error, 1)
	sysTray.Run(func() {
		go func() {
			err := c.dispatcher.Run(ctx)
			_ = sysTray.Remove()
			runDone <- err
		}()
		// Bring the menu label in line with the initial state.
		c.dispatcher.Send(dispatch.TrayMenuRequested{})
	}, nil)

	// The icon can also go away without Exit, e.g. at session end.
	go c.dispatcher.Send(dispatch.WindowDestroyed{})
	err = <-runDone
	c.shutdown()
	return ignoreCanceled(err)
}

// startServices brings up the control service and the settings watcher.
func (c *controller) startServices(port int) error {
	srv, err := server.New(server.Options{
		Port:       port,
		Dispatcher: c.dispatcher,
		Workers:    c.launcher,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	c.server = srv

	info := models.NewDaemonInfo(srv.Host(), srv.Port(), os.Getpid())
	if err := config.SaveDaemonInfo(info); err != nil {
		return fmt.Errorf("failed to write daemon info: %w", err)
	}

	go func() {
		if err := srv.Serve(); err != nil {
			c.logger.Error("Server error", "err", err)
		}
	}()
	c.logger.Info("Control service started", "port", srv.Port())

	w, err := watcher.New("", c.logger)
	if err != nil {
		c.logger.Warn("Settings hot reload disabled", "err", err)
		return nil
	}
	if err := w.Start(); err != nil {
		c.logger.Warn("Settings hot reload disabled", "err", err)
		w.Stop()
		return nil
	}
	c.watcher = w
	go c.reloadSettings(w.Events())
	return nil
}

// forwardSignals turns SIGINT/SIGTERM into a window-destroy so shutdown
// follows the same path as Exit.
func (c *controller) forwardSignals() {
	for {
		select {
		case sig := <-c.signals:
			c.logger.Info("Received signal, shutting down", "signal", sig.String())
			c.dispatcher.Send(dispatch.WindowDestroyed{})
		case <-c.dispatcher.Stopped():
			return
		}
	}
}

func (c *controller) reloadSettings(events <-chan watcher.Event) {
	for {
		select {
		case e := <-events:
			if e.Type == watcher.EventSettingsRemoved {
				c.logger.Info("Settings file removed, keeping current settings")
				continue
			}
			settings, err := config.LoadSettingsFile(e.Path)
			if err != nil {
				c.logger.Warn("Failed to reload settings", "path", e.Path, "err", err)
				continue
			}
			if err := c.logging.SetLevel(settings.Logging.Level); err != nil {
				c.logger.Warn("Ignoring log level", "err", err)
			}
			c.launcher.SetTagLines(settings.Worker.TagLines)
			c.logger.Info("Settings reloaded", "level", settings.Logging.Level, "tag_lines", settings.Worker.TagLines)
		case <-c.dispatcher.Stopped():
			return
		}
	}
}

// shutdown stops services and workers. Runs once, after the dispatcher
// loop has returned.
func (c *controller) shutdown() {
	c.cleanup.Do(func() {
		signal.Stop(c.signals)
		if c.watcher != nil {
			c.watcher.Stop()
		}
		if c.server != nil {
			c.server.Stop()
		}

		c.launcher.StopAll()
		c.launcher.Wait()

		if err := config.RemoveDaemonInfo(); err != nil {
			c.logger.Warn("Failed to remove daemon info", "err", err)
		}
		c.logger.Info("logtray stopped")
	})
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// headlessTray stands in for the icon in foreground mode.
type headlessTray struct {
	logger *slog.Logger
}

func (headlessTray) Register() error { return nil }
func (headlessTray) Remove() error   { return nil }

func (t headlessTray) ShowMenu(m dispatch.Menu) error {
	if it, ok := m.Toggle(); ok {
		t.logger.Debug("Menu", "toggle", it.Label)
	}
	return nil
}
