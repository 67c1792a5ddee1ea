package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	pollInterval = time.Second
	rpcTimeout   = 5 * time.Second
)

func pollStatusCmd(client Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		st, err := client.Status(ctx)
		if err != nil {
			return disconnectedMsg{err: err}
		}
		return statusMsg{status: ParseStatus(st)}
	}
}

func sendCommandCmd(client Client, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		err := client.Command(ctx, name)
		if isConnectionLost(err) {
			return disconnectedMsg{err: err}
		}
		return commandDoneMsg{name: name, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// isConnectionLost checks if a gRPC error means the controller is gone.
func isConnectionLost(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.Unavailable
}
