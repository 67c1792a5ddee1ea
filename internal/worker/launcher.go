// Package worker launches worker processes and folds their output into the
// controller's log stream.
package worker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultFlag selects the worker entry point of the executable.
const DefaultFlag = "--worker"

// Options configures a Launcher.
type Options struct {
	// Executable to spawn. Empty means the current executable.
	Executable string
	// Args passed to the worker. Nil means []string{DefaultFlag}.
	Args []string
	// Env is appended to the parent's environment.
	Env []string
	// Output receives every line the worker writes on either stream.
	Output io.Writer
	// TagLines prefixes forwarded lines with "[worker <id> <stream>] ".
	TagLines bool
	// StopTimeout bounds the graceful part of StopAll.
	StopTimeout time.Duration
	Logger      *slog.Logger
}

// Launcher spawns workers. Launches are independent: nothing is
// deduplicated or rate limited.
type Launcher struct {
	exe         string
	args        []string
	env         []string
	out         io.Writer
	tagLines    atomic.Bool
	stopTimeout time.Duration
	logger      *slog.Logger
	job         killJob

	mu      sync.Mutex
	workers map[string]*Handle // keyed by Handle.ID
	wg      sync.WaitGroup
}

// New creates a Launcher.
func New(opts Options) *Launcher {
	args := opts.Args
	if args == nil {
		args = []string{DefaultFlag}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stopTimeout := opts.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = 5 * time.Second
	}
	out := opts.Output
	if out == nil {
		out = io.Discard
	}

	l := &Launcher{
		exe:         opts.Executable,
		args:        args,
		env:         opts.Env,
		out:         out,
		stopTimeout: stopTimeout,
		logger:      logger.With("component", "worker"),
		workers:     make(map[string]*Handle),
	}
	l.tagLines.Store(opts.TagLines)
	return l
}

// SetTagLines toggles per-line source tags for subsequently read lines.
func (l *Launcher) SetTagLines(on bool) {
	l.tagLines.Store(on)
}

// Launch starts a worker and returns as soon as the process exists. Its
// output is forwarded on background goroutines until both pipes close.
func (l *Launcher) Launch() (*Handle, error) {
	exe := l.exe
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve executable: %w", err)
		}
		exe = self
	}

	cmd := exec.Command(exe, l.args...)
	cmd.Env = append(os.Environ(), l.env...)
	configureCmd(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to pipe worker stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to pipe worker stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker %s: %w", exe, err)
	}

	h := &Handle{
		ID:        uuid.New().String(),
		PID:       cmd.Process.Pid,
		StartedAt: time.Now().UTC(),
		cmd:       cmd,
		done:      make(chan struct{}),
	}

	if err := l.job.assign(h.PID); err != nil {
		l.logger.Warn("Worker not bound to controller lifetime", "pid", h.PID, "err", err)
	}

	l.mu.Lock()
	l.workers[h.ID] = h
	l.mu.Unlock()

	l.logger.Info("Worker launched", "worker", h.ShortID(), "pid", h.PID)

	var streams sync.WaitGroup
	streams.Add(2)
	l.wg.Add(1)
	go l.forward(h, "stdout", stdout, &streams)
	go l.forward(h, "stderr", stderr, &streams)
	go l.monitor(h, &streams)

	return h, nil
}

// forward copies lines from r into the output, one Write per line so lines
// from different workers never tear.
func (l *Launcher) forward(h *Handle, stream string, r io.Reader, streams *sync.WaitGroup) {
	defer streams.Done()

	br := bufio.NewReaderSize(r, 32*1024)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			l.emit(h, stream, line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				l.logger.Debug("Worker stream ended", "worker", h.ShortID(), "stream", stream, "err", err)
			}
			return
		}
	}
}

func (l *Launcher) emit(h *Handle, stream string, line []byte) {
	var prefix string
	if l.tagLines.Load() {
		prefix = fmt.Sprintf("[worker %s %s] ", h.ShortID(), stream)
	}
	record := make([]byte, 0, len(prefix)+len(line)+1)
	record = append(record, prefix...)
	record = append(record, line...)
	if line[len(line)-1] != '\n' {
		record = append(record, '\n')
	}
	_, _ = l.out.Write(record)
}

// monitor reaps the worker once both streams are drained.
func (l *Launcher) monitor(h *Handle, streams *sync.WaitGroup) {
	defer l.wg.Done()

	streams.Wait()
	h.exitErr = h.cmd.Wait()
	close(h.done)

	l.mu.Lock()
	delete(l.workers, h.ID)
	l.mu.Unlock()

	if h.exitErr != nil {
		l.logger.Info("Worker exited", "worker", h.ShortID(), "pid", h.PID, "err", h.exitErr)
	} else {
		l.logger.Info("Worker exited", "worker", h.ShortID(), "pid", h.PID)
	}
}

// Running returns the live workers, oldest first.
func (l *Launcher) Running() []*Handle {
	l.mu.Lock()
	out := make([]*Handle, 0, len(l.workers))
	for _, h := range l.workers {
		out = append(out, h)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// StopAll stops every running worker. Used during controller shutdown.
func (l *Launcher) StopAll() {
	for _, h := range l.Running() {
		l.logger.Info("Stopping worker", "worker", h.ShortID(), "pid", h.PID)
		h.Stop(l.stopTimeout)
	}
}

// Wait blocks until every launched worker has exited and its output has
// been forwarded.
func (l *Launcher) Wait() {
	l.wg.Wait()
}
