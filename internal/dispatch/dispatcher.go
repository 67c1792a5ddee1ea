package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/watchfire-io/logtray/internal/console"
	"github.com/watchfire-io/logtray/internal/worker"
)

// ErrStopped is returned when posting to a dispatcher that has shut down.
var ErrStopped = errors.New("dispatcher stopped")

// ConsoleController performs console transitions.
type ConsoleController interface {
	Show() error
	Replay() error
	Hide() error
}

// WorkerLauncher starts worker processes.
type WorkerLauncher interface {
	Launch() (*worker.Handle, error)
}

// Tray is the notification-area icon and its context menu.
type Tray interface {
	// Register adds the icon. Calling it while registered is harmless.
	Register() error
	// Remove deletes the icon.
	Remove() error
	// ShowMenu renders m as the icon's context menu.
	ShowMenu(m Menu) error
}

// Options configures a Dispatcher.
type Options struct {
	Console  ConsoleController
	Launcher WorkerLauncher
	Tray     Tray
	Default  DefaultHandler
	State    *console.StateBox
	// ErrorFiles persists boundary errors; nil disables side files.
	ErrorFiles *ErrorFiles
	// OnShutdown runs once when Exit or a window close/destroy is handled.
	OnShutdown func()
	Logger     *slog.Logger
}

type envelope struct {
	n     Notification
	reply chan reply
}

type reply struct {
	res Result
	err error
}

// Dispatcher handles notifications one at a time. Run owns the loop; Post
// and Send feed it from other goroutines.
type Dispatcher struct {
	console    ConsoleController
	launcher   WorkerLauncher
	tray       Tray
	fallback   DefaultHandler
	state      *console.StateBox
	errorFiles *ErrorFiles
	onShutdown func()
	logger     *slog.Logger

	queue        chan envelope
	stopped      chan struct{}
	shutdownOnce sync.Once
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	state := opts.State
	if state == nil {
		state = console.NewStateBox(console.Detached)
	}
	fallback := opts.Default
	if fallback == nil {
		fallback = DefaultHandlerFunc(func(Notification) Result { return Handled })
	}
	return &Dispatcher{
		console:    opts.Console,
		launcher:   opts.Launcher,
		tray:       opts.Tray,
		fallback:   fallback,
		state:      state,
		errorFiles: opts.ErrorFiles,
		onShutdown: opts.OnShutdown,
		logger:     logger.With("component", "dispatch"),
		queue:      make(chan envelope),
		stopped:    make(chan struct{}),
	}
}

// State returns the current console state.
func (d *Dispatcher) State() console.State {
	return d.state.Load()
}

// Stopped is closed once shutdown has been requested.
func (d *Dispatcher) Stopped() <-chan struct{} {
	return d.stopped
}

// Run processes queued notifications until ctx ends or shutdown is
// requested. It must be the only caller of Handle while it runs.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.stopped:
			return nil
		case env := <-d.queue:
			res, err := d.Handle(env.n)
			if env.reply != nil {
				env.reply <- reply{res: res, err: err}
			}
		}
	}
}

// Post hands n to the loop and waits for its result. The returned error is the
// handler failure, already logged; the result is still Handled.
func (d *Dispatcher) Post(ctx context.Context, n Notification) (Result, error) {
	env := envelope{n: n, reply: make(chan reply, 1)}
	select {
	case d.queue <- env:
	case <-d.stopped:
		return Handled, ErrStopped
	case <-ctx.Done():
		return Handled, ctx.Err()
	}

	// Run replies to every envelope it receives.
	select {
	case r := <-env.reply:
		return r.res, r.err
	case <-ctx.Done():
		return Handled, ctx.Err()
	}
}

// Send hands n to the loop without waiting for it to be handled.
func (d *Dispatcher) Send(n Notification) {
	select {
	case d.queue <- envelope{n: n}:
	case <-d.stopped:
	}
}

// Handle processes one notification synchronously. Any failure is logged,
// persisted and turned into Handled so one bad operation never takes the
// loop down. Not safe for concurrent use.
func (d *Dispatcher) Handle(n Notification) (Result, error) {
	res, err := d.handle(n)
	if err != nil {
		d.report(n, err)
		return Handled, err
	}
	return res, nil
}

func (d *Dispatcher) handle(n Notification) (Result, error) {
	switch n := n.(type) {
	case TrayActivated:
		d.logger.Info("Tray icon activated - launching worker")
		if _, err := d.launcher.Launch(); err != nil {
			d.logger.Error("Failed to launch worker", "err", err)
		}
		return Handled, nil

	case TrayMenuRequested:
		return Handled, d.renderMenu()

	case TaskbarCreated:
		d.logger.Debug("Taskbar recreated - re-registering tray icon")
		return Handled, d.tray.Register()

	case MenuSelected:
		cmd, ok := CommandForID(n.ID)
		if !ok {
			d.logger.Debug("Ignoring unknown menu id", "id", n.ID)
			return Handled, nil
		}
		return Handled, d.execute(cmd)

	case WindowClosed:
		d.removeTray()
		d.requestShutdown()
		return Handled, nil

	case WindowDestroyed:
		d.removeTray()
		d.requestShutdown()
		return Handled, nil

	default:
		return d.fallback.Default(n), nil
	}
}

func (d *Dispatcher) execute(cmd Command) error {
	switch cmd {
	case ShowLogs:
		return d.showLogs()
	case HideLogs:
		return d.hideLogs()
	case LaunchWorker:
		d.logger.Info("Launching worker")
		if _, err := d.launcher.Launch(); err != nil {
			return fmt.Errorf("failed to launch worker: %w", err)
		}
		return nil
	case Exit:
		d.logger.Info("Exiting")
		_, err := d.handle(WindowClosed{})
		return err
	}
	return fmt.Errorf("unhandled command %v", cmd)
}

func (d *Dispatcher) showLogs() error {
	d.logger.Info("Showing logs")
	if err := d.console.Show(); err != nil {
		d.refreshMenu()
		return err
	}

	d.logger.Debug("Updating log status", "state", console.Attached)
	d.state.Store(console.Attached)
	d.refreshMenu()

	if err := d.console.Replay(); err != nil {
		return fmt.Errorf("failed to replay logs: %w", err)
	}
	d.logger.Info("You may use the 'Hide Logs' tray action to hide the console again.")
	return nil
}

func (d *Dispatcher) hideLogs() error {
	d.logger.Info("Hiding logs")
	if err := d.console.Hide(); err != nil {
		d.refreshMenu()
		return err
	}

	d.logger.Debug("Updating log status", "state", console.Detached)
	d.state.Store(console.Detached)
	d.refreshMenu()
	return nil
}

// renderMenu builds the menu from the live state and hands it to the tray.
func (d *Dispatcher) renderMenu() error {
	if err := d.tray.ShowMenu(MenuFor(d.state.Load())); err != nil {
		return fmt.Errorf("failed to render tray menu: %w", err)
	}
	return nil
}

// refreshMenu re-renders after a transition. The tray cannot tell us when
// its menu is about to open, so every state change pushes a fresh render.
func (d *Dispatcher) refreshMenu() {
	if err := d.renderMenu(); err != nil {
		d.logger.Warn("Menu refresh failed", "err", err)
	}
}

func (d *Dispatcher) removeTray() {
	if err := d.tray.Remove(); err != nil {
		d.logger.Warn("Failed to remove tray icon", "err", err)
	}
}

func (d *Dispatcher) requestShutdown() {
	d.shutdownOnce.Do(func() {
		close(d.stopped)
		if d.onShutdown != nil {
			d.onShutdown()
		}
	})
}

// report logs a boundary error and, if enabled, persists it to a side file.
func (d *Dispatcher) report(n Notification, err error) {
	d.logger.Error("Error handling notification",
		"notification", n.String(),
		"console_state", d.state.Load().String(),
		"err", err)

	if d.errorFiles == nil {
		return
	}
	path, werr := d.errorFiles.Write("dispatcher", err)
	if werr != nil {
		d.logger.Error("Failed to write error log", "path", path, "err", werr)
		return
	}
	d.logger.Error("Wrote error log", "path", path)
}
