// Package tray is the notification-area icon of the controller. It renders
// the menu model it is given and reports clicks as notifications; it never
// decides anything itself.
package tray

import (
	"fmt"

	"github.com/watchfire-io/logtray/internal/dispatch"
)

// toggleState is what the visibility item currently shows and which
// command a click on it selects.
type toggleState struct {
	id    dispatch.MenuID
	label string
}

// toggleFromMenu extracts the visibility item from a rendered menu. The
// tray's item layout is fixed, so only the toggle may vary.
func toggleFromMenu(m dispatch.Menu) (toggleState, error) {
	it, ok := m.Toggle()
	if !ok {
		return toggleState{}, fmt.Errorf("menu has no visibility item")
	}
	return toggleState{id: it.ID, label: it.Label}, nil
}

func formatTooltip(base string, state dispatch.MenuID) string {
	if state == dispatch.IDHideLogs {
		return base + " (console open)"
	}
	return base
}
