// Package logsink captures every log record in memory so it can be replayed
// into a console that did not exist when the record was written.
package logsink

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Replay banners written around the buffered records.
const (
	Preamble  = "=== Previous Logs ==="
	Postamble = "=== End of Previous Logs ==="
)

// Sink is an append-only, concurrency-safe byte buffer. Bytes are never
// removed, reordered or modified once appended.
type Sink struct {
	mu  sync.Mutex
	buf []byte
}

// New creates an empty sink.
func New() *Sink {
	return &Sink{buf: make([]byte, 0, 64*1024)}
}

// Append copies p onto the end of the buffer as a single unit. It never fails.
func (s *Sink) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	s.mu.Lock()
	s.buf = append(s.buf, p...)
	s.mu.Unlock()
}

// Write implements io.Writer so the sink can sit behind a log handler.
// It always reports success.
func (s *Sink) Write(p []byte) (int, error) {
	s.Append(p)
	return len(p), nil
}

// Len returns the number of buffered bytes.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Bytes returns a copy of the buffered bytes.
func (s *Sink) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

// Replay writes the preamble, a snapshot of the buffer and the postamble to w.
// The lock is held only while copying, never during the write. An empty
// buffer is not an error; only a failing destination is.
func (s *Sink) Replay(w io.Writer) error {
	snapshot := s.Bytes()

	r := lipgloss.NewRenderer(w)
	banner := r.NewStyle().Bold(true)

	if _, err := fmt.Fprintln(w, banner.Render(Preamble)); err != nil {
		return fmt.Errorf("failed to write replay preamble: %w", err)
	}
	if _, err := w.Write(snapshot); err != nil {
		return fmt.Errorf("failed to write log buffer to writer: %w", err)
	}
	if _, err := fmt.Fprintln(w, banner.Render(Postamble)); err != nil {
		return fmt.Errorf("failed to write replay postamble: %w", err)
	}
	return nil
}
