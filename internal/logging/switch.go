package logging

import (
	"io"
	"sync"
)

// Switch is an io.Writer that delegates to an underlying writer which can be
// swapped at runtime, e.g. when stderr is rebound to a freshly created console.
type Switch struct {
	mu sync.RWMutex
	w  io.Writer
}

// NewSwitch returns a Switch writing to w.
func NewSwitch(w io.Writer) *Switch {
	return &Switch{w: w}
}

// Write implements io.Writer.
func (s *Switch) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.w == nil {
		return len(p), nil
	}
	return s.w.Write(p)
}

// Set changes the underlying writer. A nil writer discards output.
func (s *Switch) Set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

// Current returns the underlying writer.
func (s *Switch) Current() io.Writer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w
}
