package console

import (
	"fmt"
	"io"
	"log/slog"
)

// Replayer writes buffered log history into a writer.
type Replayer interface {
	Replay(w io.Writer) error
}

// Rebinder receives the writer that stderr output should go to.
type Rebinder interface {
	Set(w io.Writer)
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Device Device
	Sink   Replayer
	Stderr Rebinder
	// Fallback is where stderr output goes when no console is attached,
	// normally the process's original stderr.
	Fallback io.Writer
	// Rearm re-installs the interrupt handler. Console interrupt handlers are
	// scoped to a console instance, so this runs after every attach/create.
	Rearm func()
	// ReattachParent makes Hide try to re-attach to the parent console.
	ReattachParent bool
	Logger         *slog.Logger
}

// Controller performs console transitions. It does not own the State; the
// dispatcher records the outcome of each operation.
type Controller struct {
	device         Device
	sink           Replayer
	stderr         Rebinder
	fallback       io.Writer
	rearm          func()
	reattachParent bool
	logger         *slog.Logger

	out io.Writer // writer of the console created by Show, if any
}

// NewController creates a Controller.
func NewController(opts ControllerOptions) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rearm := opts.Rearm
	if rearm == nil {
		rearm = func() {}
	}
	return &Controller{
		device:         opts.Device,
		sink:           opts.Sink,
		stderr:         opts.Stderr,
		fallback:       opts.Fallback,
		rearm:          rearm,
		reattachParent: opts.ReattachParent,
		logger:         logger.With("component", "console"),
	}
}

// Startup settles the console at process start and returns the initial
// state. An inherited console is kept as is; otherwise the default console
// the OS may have allocated is released.
func (c *Controller) Startup() State {
	if c.device.Inherited() {
		c.logger.Debug("Inheriting parent console")
		c.rearm()
		return Attached
	}
	if err := c.device.Detach(); err != nil {
		c.logger.Debug("Failed to release default console", "err", err)
	}
	c.bind(c.fallback)
	return Detached
}

// Show detaches any current console, creates a new one and rebinds stderr
// to it. On error no console is bound and the caller must not change state.
func (c *Controller) Show() error {
	c.logger.Debug("Detaching any existing console")
	if err := c.device.Detach(); err != nil {
		c.logger.Debug("Detach before create failed", "err", err)
	}
	c.out = nil
	c.bind(c.fallback)

	c.logger.Debug("Creating new console")
	w, err := c.device.Create()
	if err != nil {
		// A half-created console must not outlive the failure.
		if derr := c.device.Detach(); derr != nil {
			c.logger.Warn("Failed to release console after create error", "err", derr)
		}
		return fmt.Errorf("failed to create console: %w", err)
	}

	c.out = w
	c.bind(w)
	c.rearm()
	return nil
}

// Replay writes the log history into the console created by Show.
func (c *Controller) Replay() error {
	if c.out == nil {
		return fmt.Errorf("failed to replay logs: no console created")
	}
	c.logger.Debug("Replaying log buffer to new console")
	return c.sink.Replay(c.out)
}

// Hide detaches the current console. With ReattachParent set it then tries
// the parent console so interrupts still reach the process; failing that is
// not an error.
func (c *Controller) Hide() error {
	c.logger.Debug("Detaching console")
	if err := c.device.Detach(); err != nil {
		return fmt.Errorf("failed to detach console: %w", err)
	}
	c.out = nil
	c.bind(c.fallback)

	if !c.reattachParent {
		return nil
	}

	c.logger.Debug("Attaching to parent console if present")
	w, err := c.device.AttachParent()
	if err != nil {
		c.logger.Debug("Staying fully detached", "err", err)
		return nil
	}
	c.bind(w)
	c.rearm()
	return nil
}

func (c *Controller) bind(w io.Writer) {
	if c.stderr != nil {
		c.stderr.Set(w)
	}
}
