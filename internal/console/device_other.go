//go:build !windows

package console

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ttyDevice maps the console verbs onto the controlling terminal: "create"
// opens /dev/tty, "attach parent" reuses an inherited terminal on stderr.
type ttyDevice struct {
	tty *os.File
}

// NewDevice returns the console device for this platform.
func NewDevice() Device {
	return &ttyDevice{}
}

func (d *ttyDevice) Create() (io.Writer, error) {
	f, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}
	d.tty = f
	return f, nil
}

func (d *ttyDevice) AttachParent() (io.Writer, error) {
	if !d.Inherited() {
		return nil, ErrNoParentConsole
	}
	return os.Stderr, nil
}

func (d *ttyDevice) Detach() error {
	if d.tty == nil {
		return nil
	}
	err := d.tty.Close()
	d.tty = nil
	if err != nil {
		return fmt.Errorf("close /dev/tty: %w", err)
	}
	return nil
}

func (d *ttyDevice) Inherited() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
