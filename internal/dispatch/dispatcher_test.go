package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/watchfire-io/logtray/internal/console"
	"github.com/watchfire-io/logtray/internal/logging"
	"github.com/watchfire-io/logtray/internal/logsink"
	"github.com/watchfire-io/logtray/internal/worker"
)

type fakeDevice struct {
	attached  bool
	createErr error
	creates   int
	screen    *bytes.Buffer
}

func (d *fakeDevice) Create() (io.Writer, error) {
	if d.createErr != nil {
		return nil, d.createErr
	}
	if d.attached {
		return nil, errors.New("a console is already attached")
	}
	d.creates++
	d.attached = true
	d.screen = &bytes.Buffer{}
	return d.screen, nil
}

func (d *fakeDevice) AttachParent() (io.Writer, error) {
	return nil, console.ErrNoParentConsole
}

func (d *fakeDevice) Detach() error {
	d.attached = false
	return nil
}

func (d *fakeDevice) Inherited() bool { return false }

type fakeTray struct {
	menus     []Menu
	menuErr   error
	registers int
	removes   int
}

func (t *fakeTray) Register() error { t.registers++; return nil }
func (t *fakeTray) Remove() error   { t.removes++; return nil }

func (t *fakeTray) ShowMenu(m Menu) error {
	if t.menuErr != nil {
		return t.menuErr
	}
	t.menus = append(t.menus, m)
	return nil
}

func (t *fakeTray) lastLabel() string {
	if len(t.menus) == 0 {
		return ""
	}
	it, _ := t.menus[len(t.menus)-1].Toggle()
	return it.Label
}

type fakeLauncher struct {
	err      error
	launches int
}

func (l *fakeLauncher) Launch() (*worker.Handle, error) {
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	return &worker.Handle{ID: "00000000-test", PID: 1000 + l.launches}, nil
}

type harness struct {
	d        *Dispatcher
	device   *fakeDevice
	tray     *fakeTray
	launcher *fakeLauncher
	sink     *logsink.Sink
	stderr   *bytes.Buffer
	log      *slog.Logger
	errDir   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	sink := logsink.New()
	stderr := &bytes.Buffer{}
	lg := logging.New(sink, stderr, new(slog.LevelVar))

	device := &fakeDevice{}
	ctrl := console.NewController(console.ControllerOptions{
		Device:         device,
		Sink:           sink,
		Stderr:         lg.Stderr,
		Fallback:       stderr,
		ReattachParent: true,
		Logger:         lg.Logger,
	})

	h := &harness{
		device:   device,
		tray:     &fakeTray{},
		launcher: &fakeLauncher{},
		sink:     sink,
		stderr:   stderr,
		log:      lg.Logger,
		errDir:   t.TempDir(),
	}
	h.d = New(Options{
		Console:    ctrl,
		Launcher:   h.launcher,
		Tray:       h.tray,
		State:      console.NewStateBox(ctrl.Startup()),
		ErrorFiles: &ErrorFiles{Dir: h.errDir},
		Logger:     lg.Logger,
	})
	return h
}

func (h *harness) errorFiles(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(h.errDir, "error_*.log"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func TestMenuMatchesState(t *testing.T) {
	h := newHarness(t)

	steps := []struct {
		n         Notification
		wantState console.State
		wantLabel string
	}{
		{TrayMenuRequested{}, console.Detached, "Show Logs"},
		{MenuSelected{ID: IDShowLogs}, console.Attached, "Hide Logs"},
		{TrayMenuRequested{}, console.Attached, "Hide Logs"},
		{MenuSelected{ID: IDHideLogs}, console.Detached, "Show Logs"},
		{TrayMenuRequested{}, console.Detached, "Show Logs"},
	}

	for i, s := range steps {
		if _, err := h.d.Handle(s.n); err != nil {
			t.Fatalf("step %d: Handle(%v) error: %v", i, s.n, err)
		}
		if got := h.d.State(); got != s.wantState {
			t.Errorf("step %d: State() = %v, want %v", i, got, s.wantState)
		}
		if got := h.tray.lastLabel(); got != s.wantLabel {
			t.Errorf("step %d: toggle label = %q, want %q", i, got, s.wantLabel)
		}
	}
}

func TestShowLogsCreateFailureKeepsState(t *testing.T) {
	h := newHarness(t)
	h.device.createErr = errors.New("console quota exceeded")

	res, err := h.d.Handle(MenuSelected{ID: IDShowLogs})
	if err == nil {
		t.Fatal("Handle(ShowLogs) error = nil, want create failure")
	}
	if res != Handled {
		t.Errorf("Handle(ShowLogs) result = %v, want Handled", res)
	}
	if got := h.d.State(); got != console.Detached {
		t.Errorf("State() = %v, want %v", got, console.Detached)
	}
	if got := h.tray.lastLabel(); got != "Show Logs" {
		t.Errorf("toggle label = %q, want %q", got, "Show Logs")
	}
	if files := h.errorFiles(t); len(files) != 1 {
		t.Errorf("error files = %v, want exactly one", files)
	}

	// The user retries once the console can be created.
	h.device.createErr = nil
	if _, err := h.d.Handle(MenuSelected{ID: IDShowLogs}); err != nil {
		t.Fatalf("retry Handle(ShowLogs) error: %v", err)
	}
	if got := h.d.State(); got != console.Attached {
		t.Errorf("State() after retry = %v, want %v", got, console.Attached)
	}
}

func TestShowHideScenario(t *testing.T) {
	h := newHarness(t)

	h.log.Info("alpha")
	h.log.Info("beta")

	if _, err := h.d.Handle(MenuSelected{ID: IDShowLogs}); err != nil {
		t.Fatalf("Handle(ShowLogs) error: %v", err)
	}
	screen := h.device.screen.String()
	for _, want := range []string{logsink.Preamble, "msg=alpha", "msg=beta", logsink.Postamble} {
		if !strings.Contains(screen, want) {
			t.Errorf("console output missing %q:\n%s", want, screen)
		}
	}
	if strings.Index(screen, "msg=alpha") > strings.Index(screen, "msg=beta") {
		t.Errorf("console output out of order:\n%s", screen)
	}

	h.log.Info("gamma")
	if !strings.Contains(h.device.screen.String(), "msg=gamma") {
		t.Error("record written while attached did not reach the console")
	}

	if _, err := h.d.Handle(MenuSelected{ID: IDHideLogs}); err != nil {
		t.Fatalf("Handle(HideLogs) error: %v", err)
	}
	if got := h.d.State(); got != console.Detached {
		t.Errorf("State() = %v, want %v", got, console.Detached)
	}

	h.log.Info("delta")
	if strings.Contains(h.device.screen.String(), "msg=delta") {
		t.Error("record written after hide reached the closed console")
	}
	for _, want := range []string{"msg=alpha", "msg=beta", "msg=delta"} {
		if !strings.Contains(h.stderr.String(), want) {
			t.Errorf("stderr missing %q", want)
		}
		if !bytes.Contains(h.sink.Bytes(), []byte(want)) {
			t.Errorf("sink missing %q", want)
		}
	}
}

func TestHideLogsIsIdempotent(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 2; i++ {
		if _, err := h.d.Handle(MenuSelected{ID: IDHideLogs}); err != nil {
			t.Fatalf("Handle(HideLogs) #%d error: %v", i+1, err)
		}
		if got := h.d.State(); got != console.Detached {
			t.Errorf("State() after hide #%d = %v, want %v", i+1, got, console.Detached)
		}
	}
}

func TestLaunchFailureIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.launcher.err = errors.New("exec: no such file")

	if _, err := h.d.Handle(TrayActivated{}); err != nil {
		t.Errorf("Handle(TrayActivated) error = %v, want nil", err)
	}
	if _, err := h.d.Handle(MenuSelected{ID: IDLaunchWorker}); err == nil {
		t.Error("Handle(LaunchWorker) error = nil, want spawn failure")
	}
	if h.launcher.launches != 2 {
		t.Errorf("launches = %d, want 2", h.launcher.launches)
	}
	if got := h.d.State(); got != console.Detached {
		t.Errorf("State() = %v, want %v", got, console.Detached)
	}
	if !bytes.Contains(h.sink.Bytes(), []byte("exec: no such file")) {
		t.Error("spawn failure was not logged")
	}

	// Later commands still work.
	if _, err := h.d.Handle(MenuSelected{ID: IDShowLogs}); err != nil {
		t.Fatalf("Handle(ShowLogs) error: %v", err)
	}
	if got := h.d.State(); got != console.Attached {
		t.Errorf("State() = %v, want %v", got, console.Attached)
	}
}

func TestRapidLaunchesAreIndependent(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 2; i++ {
		if _, err := h.d.Handle(MenuSelected{ID: IDLaunchWorker}); err != nil {
			t.Fatalf("Handle(LaunchWorker) #%d error = %v", i+1, err)
		}
	}
	if h.launcher.launches != 2 {
		t.Errorf("launches = %d, want 2", h.launcher.launches)
	}
	if got := h.d.State(); got != console.Detached {
		t.Errorf("State() = %v, want %v", got, console.Detached)
	}
	if files := h.errorFiles(t); len(files) != 0 {
		t.Errorf("error files = %v, want none", files)
	}
}

func TestMenuRenderFailureIsHandled(t *testing.T) {
	h := newHarness(t)
	h.tray.menuErr = errors.New("menu handle invalid")

	res, err := h.d.Handle(TrayMenuRequested{})
	if err == nil {
		t.Fatal("Handle(TrayMenuRequested) error = nil, want render failure")
	}
	if res != Handled {
		t.Errorf("Handle(TrayMenuRequested) result = %v, want Handled", res)
	}

	files := h.errorFiles(t)
	if len(files) != 1 {
		t.Fatalf("error files = %v, want exactly one", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "menu handle invalid") {
		t.Errorf("error file = %q, want the failure message", data)
	}
}

func TestTaskbarCreatedReregisters(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 2; i++ {
		if _, err := h.d.Handle(TaskbarCreated{}); err != nil {
			t.Fatalf("Handle(TaskbarCreated) error: %v", err)
		}
	}
	if h.tray.registers != 2 {
		t.Errorf("registers = %d, want 2", h.tray.registers)
	}
}

func TestUnrecognizedGoesToDefaultHandler(t *testing.T) {
	h := newHarness(t)

	var got []Notification
	h.d.fallback = DefaultHandlerFunc(func(n Notification) Result {
		got = append(got, n)
		return Result(42)
	})

	n := Unrecognized{Code: 0x0113}
	res, err := h.d.Handle(n)
	if err != nil {
		t.Fatalf("Handle(%v) error: %v", n, err)
	}
	if res != Result(42) {
		t.Errorf("Handle(%v) = %v, want 42", n, res)
	}
	if len(got) != 1 || got[0] != Notification(n) {
		t.Errorf("default handler saw %v, want [%v]", got, n)
	}
}

func TestExitRequestsShutdown(t *testing.T) {
	tests := []struct {
		name string
		n    Notification
	}{
		{name: "menu exit", n: MenuSelected{ID: IDExit}},
		{name: "window closed", n: WindowClosed{}},
		{name: "window destroyed", n: WindowDestroyed{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			shutdowns := 0
			h.d.onShutdown = func() { shutdowns++ }

			if _, err := h.d.Handle(tt.n); err != nil {
				t.Fatalf("Handle(%v) error: %v", tt.n, err)
			}
			// A second close arriving during teardown is harmless.
			if _, err := h.d.Handle(WindowDestroyed{}); err != nil {
				t.Fatalf("Handle(WindowDestroyed) error: %v", err)
			}

			select {
			case <-h.d.Stopped():
			default:
				t.Error("Stopped() not closed")
			}
			if shutdowns != 1 {
				t.Errorf("shutdowns = %d, want 1", shutdowns)
			}
			if h.tray.removes == 0 {
				t.Error("tray icon not removed")
			}
		})
	}
}

func TestPostRunsOnDispatchLoop(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- h.d.Run(ctx) }()

	if _, err := h.d.Post(ctx, MenuSelected{ID: IDShowLogs}); err != nil {
		t.Fatalf("Post(ShowLogs) error: %v", err)
	}
	if got := h.d.State(); got != console.Attached {
		t.Errorf("State() = %v, want %v", got, console.Attached)
	}

	h.d.Send(TrayActivated{})
	if _, err := h.d.Post(ctx, MenuSelected{ID: IDExit}); err != nil {
		t.Fatalf("Post(Exit) error: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-ctx.Done():
		t.Fatal("Run() did not return after Exit")
	}

	if h.launcher.launches != 1 {
		t.Errorf("launches = %d, want 1", h.launcher.launches)
	}
	if _, err := h.d.Post(ctx, TrayMenuRequested{}); !errors.Is(err, ErrStopped) {
		t.Errorf("Post after exit error = %v, want %v", err, ErrStopped)
	}
}
