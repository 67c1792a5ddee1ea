package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/watchfire-io/logtray/internal/config"
)

func newTestWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := New(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	w.delay = 20 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(w.Stop)
	return w, dir
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case e := <-w.Events():
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no event within 5s")
		return Event{}
	}
}

func TestWatcherSettingsChanged(t *testing.T) {
	w, dir := newTestWatcher(t)
	path := filepath.Join(dir, config.SettingsFileName)

	// Several writes in a burst collapse into one event.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	e := waitEvent(t, w)
	if e.Type != EventSettingsChanged || e.Path != path {
		t.Errorf("event = {%v %q}, want {%v %q}", e.Type, e.Path, EventSettingsChanged, path)
	}

	select {
	case extra := <-w.Events():
		t.Errorf("unexpected extra event %v", extra.Type)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherSettingsGone(t *testing.T) {
	tests := []struct {
		name   string
		remove func(path string) error
	}{
		{"removed", os.Remove},
		{"renamed away", func(path string) error {
			return os.Rename(path, filepath.Join(filepath.Dir(path), "settings.yaml.bak"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, dir := newTestWatcher(t)
			path := filepath.Join(dir, config.SettingsFileName)

			if err := os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if e := waitEvent(t, w); e.Type != EventSettingsChanged {
				t.Fatalf("event after write = %v, want %v", e.Type, EventSettingsChanged)
			}

			if err := tt.remove(path); err != nil {
				t.Fatalf("remove: %v", err)
			}
			e := waitEvent(t, w)
			if e.Type != EventSettingsRemoved || e.Path != path {
				t.Errorf("event = {%v %q}, want {%v %q}", e.Type, e.Path, EventSettingsRemoved, path)
			}
		})
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	w, dir := newTestWatcher(t)

	if err := os.WriteFile(filepath.Join(dir, config.DaemonFileName), []byte("port: 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case e := <-w.Events():
		t.Errorf("unexpected event %v for %s", e.Type, e.Path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, _ := newTestWatcher(t)
	w.Stop()
	w.Stop()
}
