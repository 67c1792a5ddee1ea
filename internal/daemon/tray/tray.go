package tray

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/watchfire-io/logtray/internal/dispatch"
)

// ErrNotReady is returned by ShowMenu before the icon has been registered.
var ErrNotReady = errors.New("tray not ready")

// Options configures a Tray.
type Options struct {
	Title   string
	Tooltip string
	// Notify receives every click as a notification. It is called from the
	// tray's click goroutine.
	Notify func(dispatch.Notification)
	Logger *slog.Logger
}

// Tray adapts getlantern/systray to the dispatcher's Tray interface.
type Tray struct {
	title   string
	tooltip string
	notify  func(dispatch.Notification)
	logger  *slog.Logger

	mu         sync.Mutex
	registered bool
	toggle     toggleState
	toggleItem *systray.MenuItem
	launchItem *systray.MenuItem
	exitItem   *systray.MenuItem

	quitOnce sync.Once
}

// New creates a Tray. Nothing is shown until Run.
func New(opts Options) *Tray {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notify := opts.Notify
	if notify == nil {
		notify = func(dispatch.Notification) {}
	}
	return &Tray{
		title:   opts.Title,
		tooltip: opts.Tooltip,
		notify:  notify,
		logger:  logger.With("component", "tray"),
		toggle:  toggleState{id: dispatch.IDShowLogs, label: "Show Logs"},
	}
}

// Run starts the tray loop. This blocks the calling goroutine (must be main).
// onReady runs once the icon exists; onExit runs after Remove.
func (t *Tray) Run(onReady, onExit func()) {
	systray.Run(func() {
		if err := t.Register(); err != nil {
			t.logger.Error("Failed to register tray icon", "err", err)
		}
		if onReady != nil {
			onReady()
		}
	}, func() {
		if onExit != nil {
			onExit()
		}
	})
}

// Register sets the icon and builds the menu. Calling it again only
// refreshes the icon, title and tooltip.
func (t *Tray) Register() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	systray.SetIcon(iconData)
	systray.SetTitle(t.title)
	systray.SetTooltip(formatTooltip(t.tooltip, t.toggle.id))

	if t.registered {
		return nil
	}

	t.toggleItem = systray.AddMenuItem(t.toggle.label, "Toggle the log console")
	systray.AddSeparator()
	t.launchItem = systray.AddMenuItem("Launch Worker", "Start a worker process")
	systray.AddSeparator()
	t.exitItem = systray.AddMenuItem("Exit", "Stop logtray")
	t.registered = true

	go t.handleClicks()
	return nil
}

// Remove deletes the icon and ends Run.
func (t *Tray) Remove() error {
	t.quitOnce.Do(systray.Quit)
	return nil
}

// ShowMenu applies m to the menu items.
func (t *Tray) ShowMenu(m dispatch.Menu) error {
	next, err := toggleFromMenu(m)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.registered {
		return ErrNotReady
	}
	t.toggle = next
	t.toggleItem.SetTitle(next.label)
	systray.SetTooltip(formatTooltip(t.tooltip, next.id))
	return nil
}

// handleClicks forwards menu clicks. systray exposes no icon click, so
// TrayActivated only arrives through the control service ("activate").
func (t *Tray) handleClicks() {
	for {
		select {
		case <-t.toggleItem.ClickedCh:
			t.mu.Lock()
			id := t.toggle.id
			t.mu.Unlock()
			t.notify(dispatch.MenuSelected{ID: id})

		case <-t.launchItem.ClickedCh:
			t.notify(dispatch.MenuSelected{ID: dispatch.IDLaunchWorker})

		case <-t.exitItem.ClickedCh:
			t.notify(dispatch.MenuSelected{ID: dispatch.IDExit})
			return
		}
	}
}
