// Package server implements the local gRPC control service of the tray
// controller.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
)

// Options configures a Server.
type Options struct {
	// Host to bind. Empty means localhost.
	Host string
	// Port to listen on. Pass 0 for dynamic allocation.
	Port       int
	Dispatcher Dispatcher
	Workers    WorkerLister
}

// Server is the controller's gRPC server.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	host       string
	port       int
}

// New creates a new server listening on the specified port.
func New(opts Options) (*Server, error) {
	host := opts.Host
	if host == "" {
		host = "localhost"
	}
	listener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", net.JoinHostPort(host, fmt.Sprint(opts.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	// Get actual port if dynamically allocated
	actualPort := listener.Addr().(*net.TCPAddr).Port

	grpcServer := grpc.NewServer()
	RegisterControlServer(grpcServer, &controlService{
		dispatcher: opts.Dispatcher,
		workers:    opts.Workers,
		startedAt:  time.Now().UTC(),
	})

	return &Server{
		grpcServer: grpcServer,
		listener:   listener,
		host:       host,
		port:       actualPort,
	}, nil
}

// Host returns the host the server is bound to.
func (s *Server) Host() string {
	return s.host
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

// Serve starts serving requests. This blocks until Stop is called.
func (s *Server) Serve() error {
	return s.grpcServer.Serve(s.listener)
}

// Stop gracefully stops the server. It must not be called from inside a
// dispatcher handler: in-flight Command calls wait on the dispatcher.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}
