// Package console controls whether the process owns a visible console.
package console

import "sync/atomic"

// State is the console visibility state.
type State int32

const (
	// Detached means no console is visible for this process.
	Detached State = iota
	// Attached means the process owns (or inherited) a visible console.
	Attached
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Attached:
		return "attached"
	case Detached:
		return "detached"
	default:
		return "unknown"
	}
}

// StateBox holds the single process-wide State. Only the dispatcher writes
// it; other goroutines (the control service) may read it at any time.
type StateBox struct {
	v atomic.Int32
}

// NewStateBox returns a box holding s.
func NewStateBox(s State) *StateBox {
	b := &StateBox{}
	b.v.Store(int32(s))
	return b
}

// Load returns the current state.
func (b *StateBox) Load() State {
	return State(b.v.Load())
}

// Store replaces the current state.
func (b *StateBox) Store(s State) {
	b.v.Store(int32(s))
}
