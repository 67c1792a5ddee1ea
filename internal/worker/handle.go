package worker

import (
	"os/exec"
	"time"
)

// Handle refers to one launched worker process. Its streams are drained by
// background goroutines; nothing has to wait on it.
type Handle struct {
	ID        string
	PID       int
	StartedAt time.Time

	cmd     *exec.Cmd
	done    chan struct{}
	exitErr error
}

// Done returns a channel that is closed once the worker exited and both of
// its streams reached EOF.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// ExitErr returns the process exit error (nil if exited cleanly). Only valid
// after Done is closed.
func (h *Handle) ExitErr() error {
	return h.exitErr
}

// IsRunning returns true if the worker has not exited yet.
func (h *Handle) IsRunning() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// ShortID returns the first eight characters of the id, used as line tag.
func (h *Handle) ShortID() string {
	if len(h.ID) > 8 {
		return h.ID[:8]
	}
	return h.ID
}

// Stop terminates the worker. It asks politely, waits up to timeout, then
// kills it.
func (h *Handle) Stop(timeout time.Duration) {
	if h.cmd.Process == nil || !h.IsRunning() {
		return
	}

	_ = terminate(h.cmd.Process)

	select {
	case <-h.done:
		return
	case <-time.After(timeout):
	}

	_ = h.cmd.Process.Kill()
	<-h.done
}
