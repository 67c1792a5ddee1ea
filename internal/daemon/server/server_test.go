package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/watchfire-io/logtray/internal/console"
	"github.com/watchfire-io/logtray/internal/dispatch"
	"github.com/watchfire-io/logtray/internal/worker"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	posted []dispatch.Notification
	state  console.State
	err    error
}

func (f *fakeDispatcher) Post(_ context.Context, n dispatch.Notification) (dispatch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, n)
	return dispatch.Handled, f.err
}

func (f *fakeDispatcher) State() console.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

type fakeWorkers []*worker.Handle

func (w fakeWorkers) Running() []*worker.Handle { return w }

func startServer(t *testing.T, d Dispatcher, w WorkerLister) *ControlClient {
	t.Helper()

	srv, err := New(Options{Host: "127.0.0.1", Dispatcher: d, Workers: w})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	go func() { _ = srv.Serve() }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(srv.listener.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient() error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewControlClient(conn)
}

func TestParseNotification(t *testing.T) {
	tests := []struct {
		name    string
		want    dispatch.Notification
		wantErr bool
	}{
		{name: "show-logs", want: dispatch.MenuSelected{ID: dispatch.IDShowLogs}},
		{name: "hide-logs", want: dispatch.MenuSelected{ID: dispatch.IDHideLogs}},
		{name: "launch-worker", want: dispatch.MenuSelected{ID: dispatch.IDLaunchWorker}},
		{name: " EXIT ", want: dispatch.MenuSelected{ID: dispatch.IDExit}},
		{name: "activate", want: dispatch.TrayActivated{}},
		{name: "menu", want: dispatch.TrayMenuRequested{}},
		{name: "format-disk", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseNotification(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseNotification(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseNotification(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestControlCommand(t *testing.T) {
	d := &fakeDispatcher{}
	client := startServer(t, d, fakeWorkers{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Command(ctx, "show-logs"); err != nil {
		t.Fatalf("Command(show-logs) error: %v", err)
	}
	if err := client.Command(ctx, "nope"); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Command(nope) code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}

	d.mu.Lock()
	posted := append([]dispatch.Notification(nil), d.posted...)
	d.mu.Unlock()
	if len(posted) != 1 || posted[0] != (dispatch.MenuSelected{ID: dispatch.IDShowLogs}) {
		t.Errorf("posted = %v, want [menu-selected(1)]", posted)
	}
}

func TestControlCommandErrors(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{dispatch.ErrStopped, codes.Unavailable},
		{errors.New("failed to create console"), codes.Aborted},
	}

	for _, tt := range tests {
		client := startServer(t, &fakeDispatcher{err: tt.err}, fakeWorkers{})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Command(ctx, "show-logs")
		cancel()
		if status.Code(err) != tt.want {
			t.Errorf("Command() with %v code = %v, want %v", tt.err, status.Code(err), tt.want)
		}
	}
}

func TestControlStatus(t *testing.T) {
	d := &fakeDispatcher{state: console.Attached}
	workers := fakeWorkers{
		{ID: "1a2b3c4d-0000", PID: 4242, StartedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	client := startServer(t, d, workers)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	m := st.AsMap()
	if got := m["console"]; got != "attached" {
		t.Errorf("Status().console = %v, want attached", got)
	}
	list, ok := m["workers"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("Status().workers = %v, want one worker", m["workers"])
	}
	w := list[0].(map[string]any)
	if w["id"] != "1a2b3c4d-0000" || w["pid"] != float64(4242) {
		t.Errorf("Status().workers[0] = %v", w)
	}
}
