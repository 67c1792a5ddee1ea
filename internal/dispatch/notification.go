// Package dispatch turns tray and window notifications into console and
// worker commands on a single goroutine.
package dispatch

import "fmt"

// Notification is a closed set of events delivered to the dispatcher. Only
// the types in this file implement it.
type Notification interface {
	fmt.Stringer
	notification()
}

// TrayActivated is the tray icon's primary activation (left click).
type TrayActivated struct{}

// TrayMenuRequested is a secondary activation or context-menu request.
type TrayMenuRequested struct{}

// TaskbarCreated is sent when the shell (and its notification area) restarts.
type TaskbarCreated struct{}

// MenuSelected is a tray menu item selection.
type MenuSelected struct {
	ID MenuID
}

// WindowClosed asks the controller to close.
type WindowClosed struct{}

// WindowDestroyed reports that the controller's window is going away.
type WindowDestroyed struct{}

// Unrecognized carries any notification the dispatcher does not handle. It
// is forwarded to the default handler untouched.
type Unrecognized struct {
	Code    uint32
	Payload any
}

func (TrayActivated) notification()     {}
func (TrayMenuRequested) notification() {}
func (TaskbarCreated) notification()    {}
func (MenuSelected) notification()      {}
func (WindowClosed) notification()      {}
func (WindowDestroyed) notification()   {}
func (Unrecognized) notification()      {}

func (TrayActivated) String() string     { return "tray-activated" }
func (TrayMenuRequested) String() string { return "tray-menu-requested" }
func (TaskbarCreated) String() string    { return "taskbar-created" }
func (n MenuSelected) String() string    { return fmt.Sprintf("menu-selected(%d)", n.ID) }
func (WindowClosed) String() string      { return "window-closed" }
func (WindowDestroyed) String() string   { return "window-destroyed" }
func (n Unrecognized) String() string    { return fmt.Sprintf("unrecognized(%#x)", n.Code) }

// Result is what the dispatcher reports back to the notification source.
type Result uintptr

// Handled is the neutral result returned for every processed notification.
const Handled Result = 0

// DefaultHandler processes notifications the dispatcher does not recognize.
type DefaultHandler interface {
	Default(n Notification) Result
}

// DefaultHandlerFunc adapts a function to DefaultHandler.
type DefaultHandlerFunc func(n Notification) Result

// Default calls f(n).
func (f DefaultHandlerFunc) Default(n Notification) Result {
	return f(n)
}
