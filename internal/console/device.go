package console

import (
	"errors"
	"io"
)

// ErrNoParentConsole is returned by AttachParent when there is no parent
// console to attach to.
var ErrNoParentConsole = errors.New("no parent console")

// Device is the OS console the controller drives. Implementations wrap the
// four console verbs and nothing else.
type Device interface {
	// Create allocates a new console window and returns a writer to it.
	Create() (io.Writer, error)
	// AttachParent attaches to the console of the parent process.
	AttachParent() (io.Writer, error)
	// Detach releases the current console. Detaching with no console
	// attached is a no-op and returns nil.
	Detach() error
	// Inherited reports whether the process was started from a console it
	// shares with its parent.
	Inherited() bool
}
