// Package logging wires the structured log front end: every record goes to
// the in-memory log sink and to a swappable stderr destination.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Options configures Setup.
type Options struct {
	Sink   io.Writer // durable destination (the log sink)
	Stderr io.Writer // live destination, normally os.Stderr
	Level  string
}

// Logging is the configured front end.
type Logging struct {
	Logger *slog.Logger
	Level  *slog.LevelVar
	Stderr *Switch
	Output io.Writer // sink + stderr tee, shared with worker forwarding
}

// Setup builds the logger and installs it as the slog and log default.
func Setup(opts Options) (*Logging, error) {
	level := new(slog.LevelVar)
	if opts.Level != "" {
		lvl, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		level.Set(lvl)
	}

	l := New(opts.Sink, opts.Stderr, level)
	slog.SetDefault(l.Logger)
	return l, nil
}

// New builds the front end without touching process-wide defaults.
func New(sink, stderr io.Writer, level *slog.LevelVar) *Logging {
	sw := NewSwitch(stderr)
	out := Tee{Primary: sink, Secondary: sw}
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return &Logging{
		Logger: slog.New(handler),
		Level:  level,
		Stderr: sw,
		Output: out,
	}
}

// SetLevel parses name and applies it.
func (l *Logging) SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	l.Level.Set(lvl)
	return nil
}

// ParseLevel parses a slog level name such as "debug" or "warn".
func ParseLevel(name string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return lvl, nil
}
