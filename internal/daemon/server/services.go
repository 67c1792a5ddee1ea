package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/watchfire-io/logtray/internal/buildinfo"
	"github.com/watchfire-io/logtray/internal/console"
	"github.com/watchfire-io/logtray/internal/dispatch"
	"github.com/watchfire-io/logtray/internal/worker"
)

// ============================================================================
// gRPC Service Definition (well-known types only, no generated code)
// ============================================================================

// ControlServiceName is the fully qualified gRPC service name.
const ControlServiceName = "logtray.Control"

const (
	statusMethod  = "/" + ControlServiceName + "/Status"
	commandMethod = "/" + ControlServiceName + "/Command"
)

// Command names accepted by Command besides the menu commands.
const (
	CommandActivate = "activate"
	CommandMenu     = "menu"
)

// ControlServer is the server interface for the Control service.
type ControlServer interface {
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Command(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
}

var controlServiceDesc = grpc.ServiceDesc{
	ServiceName: ControlServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Status", Handler: controlStatusHandler},
		{MethodName: "Command", Handler: controlCommandHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "logtray/control",
}

// RegisterControlServer registers srv with the gRPC server.
func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&controlServiceDesc, srv)
}

func controlStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func controlCommandHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Command(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: commandMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Command(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// ControlClient calls the Control service.
type ControlClient struct {
	cc grpc.ClientConnInterface
}

// NewControlClient creates a client on cc.
func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

// Status returns the controller's status document.
func (c *ControlClient) Status(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, statusMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Command runs a named command on the controller's dispatcher.
func (c *ControlClient) Command(ctx context.Context, name string, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, commandMethod, wrapperspb.String(name), new(emptypb.Empty), opts...)
}

// ============================================================================
// Service Implementation
// ============================================================================

// Dispatcher is the part of the command dispatcher the service drives.
type Dispatcher interface {
	Post(ctx context.Context, n dispatch.Notification) (dispatch.Result, error)
	State() console.State
}

// WorkerLister reports running workers.
type WorkerLister interface {
	Running() []*worker.Handle
}

type controlService struct {
	dispatcher Dispatcher
	workers    WorkerLister
	startedAt  time.Time
}

// ParseNotification maps a command name to the notification it posts.
func ParseNotification(name string) (dispatch.Notification, error) {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case CommandActivate:
		return dispatch.TrayActivated{}, nil
	case CommandMenu:
		return dispatch.TrayMenuRequested{}, nil
	}
	cmd, ok := dispatch.ParseCommand(name)
	if !ok {
		return nil, fmt.Errorf("unknown command %q", name)
	}
	return dispatch.MenuSelected{ID: cmd.ID()}, nil
}

func (s *controlService) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	running := s.workers.Running()
	workers := make([]any, 0, len(running))
	for _, h := range running {
		workers = append(workers, map[string]any{
			"id":         h.ID,
			"pid":        float64(h.PID),
			"started_at": h.StartedAt.Format(time.RFC3339),
		})
	}

	st, err := structpb.NewStruct(map[string]any{
		"version":    buildinfo.Version,
		"pid":        float64(os.Getpid()),
		"console":    s.dispatcher.State().String(),
		"started_at": s.startedAt.Format(time.RFC3339),
		"workers":    workers,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build status: %v", err)
	}
	return st, nil
}

func (s *controlService) Command(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	n, err := ParseNotification(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if _, err := s.dispatcher.Post(ctx, n); err != nil {
		switch {
		case errors.Is(err, dispatch.ErrStopped):
			return nil, status.Error(codes.Unavailable, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, status.FromContextError(err).Err()
		default:
			return nil, status.Errorf(codes.Aborted, "%s failed: %v", n, err)
		}
	}
	return &emptypb.Empty{}, nil
}
