// Package tui implements "logtray ctl watch", a live status view of a
// running controller with keys for its tray commands.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is the part of the control-service client the view needs.
type Client interface {
	Status(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error)
	Command(ctx context.Context, name string, opts ...grpc.CallOption) error
}

// Run shows the view until the user quits or the controller exits.
func Run(client Client) error {
	p := tea.NewProgram(NewModel(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
