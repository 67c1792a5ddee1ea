package tui

import "time"

// statusMsg carries a fresh Status response.
type statusMsg struct {
	status Status
}

// commandDoneMsg reports the outcome of a Command call.
type commandDoneMsg struct {
	name string
	err  error
}

// disconnectedMsg signals the controller went away.
type disconnectedMsg struct {
	err error
}

// tickMsg triggers the next status poll.
type tickMsg time.Time
