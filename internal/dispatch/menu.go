package dispatch

import (
	"fmt"
	"strings"

	"github.com/watchfire-io/logtray/internal/console"
)

// MenuID is the stable id of a tray menu item.
type MenuID uint32

// Menu item ids. They never change meaning between renders.
const (
	IDShowLogs     MenuID = 1
	IDHideLogs     MenuID = 2
	IDLaunchWorker MenuID = 3
	IDExit         MenuID = 4
)

// Command is a domain command produced from a menu selection.
type Command int

// Commands.
const (
	ShowLogs Command = iota + 1
	HideLogs
	LaunchWorker
	Exit
)

// String returns the command's wire name, as used by the control service.
func (c Command) String() string {
	switch c {
	case ShowLogs:
		return "show-logs"
	case HideLogs:
		return "hide-logs"
	case LaunchWorker:
		return "launch-worker"
	case Exit:
		return "exit"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// ID returns the menu id bound to the command.
func (c Command) ID() MenuID {
	switch c {
	case ShowLogs:
		return IDShowLogs
	case HideLogs:
		return IDHideLogs
	case LaunchWorker:
		return IDLaunchWorker
	case Exit:
		return IDExit
	}
	return 0
}

// CommandForID maps a menu id to its command.
func CommandForID(id MenuID) (Command, bool) {
	switch id {
	case IDShowLogs:
		return ShowLogs, true
	case IDHideLogs:
		return HideLogs, true
	case IDLaunchWorker:
		return LaunchWorker, true
	case IDExit:
		return Exit, true
	}
	return 0, false
}

// ParseCommand maps a wire name such as "show-logs" to its command.
func ParseCommand(name string) (Command, bool) {
	for _, c := range []Command{ShowLogs, HideLogs, LaunchWorker, Exit} {
		if strings.EqualFold(name, c.String()) {
			return c, true
		}
	}
	return 0, false
}

// MenuItem is one entry of the tray context menu.
type MenuItem struct {
	ID        MenuID
	Label     string
	Separator bool
}

// Menu is the ordered tray context menu.
type Menu []MenuItem

// Toggle returns the visibility-toggle item.
func (m Menu) Toggle() (MenuItem, bool) {
	for _, it := range m {
		if it.ID == IDShowLogs || it.ID == IDHideLogs {
			return it, true
		}
	}
	return MenuItem{}, false
}

// ToggleCommand returns the visibility command offered in state s.
func ToggleCommand(s console.State) Command {
	if s == console.Attached {
		return HideLogs
	}
	return ShowLogs
}

// ToggleLabel returns the label of the visibility item in state s.
func ToggleLabel(s console.State) string {
	if ToggleCommand(s) == HideLogs {
		return "Hide Logs"
	}
	return "Show Logs"
}

// MenuFor renders the context menu for state s.
func MenuFor(s console.State) Menu {
	toggle := ToggleCommand(s)
	return Menu{
		{ID: toggle.ID(), Label: ToggleLabel(s)},
		{Separator: true},
		{ID: IDLaunchWorker, Label: "Launch Worker"},
		{Separator: true},
		{ID: IDExit, Label: "Exit"},
	}
}
