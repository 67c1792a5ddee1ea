package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the watch view.
type Model struct {
	client  Client
	help    help.Model
	spinner spinner.Model

	status      *Status
	connected   bool
	confirmExit bool
	stopping    bool
	notice      string
	err         error
	width       int
}

// NewModel creates the view for client.
func NewModel(client Client) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorCyan)

	return Model{
		client:  client,
		help:    help.New(),
		spinner: sp,
	}
}

// Init starts the first poll.
func (m Model) Init() tea.Cmd {
	return tea.Batch(pollStatusCmd(m.client), m.spinner.Tick)
}

// Update processes messages and returns an updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case statusMsg:
		s := msg.status
		m.status = &s
		m.connected = true
		m.err = nil
		return m, tickCmd()

	case tickMsg:
		return m, pollStatusCmd(m.client)

	case commandDoneMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("%s: %w", msg.name, msg.err)
			m.notice = ""
		} else {
			m.err = nil
			m.notice = msg.name + " done"
		}
		return m, pollStatusCmd(m.client)

	case disconnectedMsg:
		m.connected = false
		if m.stopping {
			return m, tea.Quit
		}
		m.err = msg.err
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmExit {
		switch {
		case key.Matches(msg, keys.Yes):
			m.confirmExit = false
			m.stopping = true
			m.notice = "stopping logtray..."
			return m, sendCommandCmd(m.client, "exit")
		case key.Matches(msg, keys.No):
			m.confirmExit = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Refresh):
		return m, pollStatusCmd(m.client)
	case key.Matches(msg, keys.Show):
		return m.send("show-logs")
	case key.Matches(msg, keys.Hide):
		return m.send("hide-logs")
	case key.Matches(msg, keys.Launch):
		return m.send("launch-worker")
	case key.Matches(msg, keys.Exit):
		if m.connected {
			m.confirmExit = true
		}
	}
	return m, nil
}

func (m Model) send(name string) (tea.Model, tea.Cmd) {
	if !m.connected {
		return m, nil
	}
	m.notice = name + "..."
	m.err = nil
	return m, sendCommandCmd(m.client, name)
}

// View renders the current state.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(brandStyle.Render("logtray") + " " + labelStyle.Render("watch") + "\n\n")

	if m.status == nil || !m.connected {
		b.WriteString(m.spinner.View() + " " + labelStyle.Render("Connecting to logtray...") + "\n")
		if m.err != nil {
			b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
		}
		b.WriteString("\n" + m.help.View(keys))
		return b.String()
	}

	b.WriteString(panelStyle.Render(renderStatus(*m.status)) + "\n\n")
	b.WriteString(renderWorkers(m.status.Workers) + "\n")

	switch {
	case m.confirmExit:
		b.WriteString(confirmStyle.Render("Stop logtray and all workers? (y/n)") + "\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	case m.notice != "":
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString("\n" + m.help.View(keys))
	return b.String()
}

func renderStatus(s Status) string {
	badge := detachedStyle.Render("hidden")
	if s.Attached() {
		badge = attachedStyle.Render("visible")
	}

	rows := []string{
		labelStyle.Render("Version  ") + valueStyle.Render(s.Version),
		labelStyle.Render("PID      ") + valueStyle.Render(fmt.Sprint(s.PID)),
		labelStyle.Render("Since    ") + valueStyle.Render(s.StartedAt),
		labelStyle.Render("Console  ") + badge,
	}
	return strings.Join(rows, "\n")
}

func renderWorkers(workers []Worker) string {
	if len(workers) == 0 {
		return labelStyle.Render("No running workers.")
	}

	var b strings.Builder
	b.WriteString(sectionStyle.Render(fmt.Sprintf("Workers (%d)", len(workers))) + "\n")
	for _, w := range workers {
		id := w.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(&b, "  %s  %s  %s\n",
			valueStyle.Render(id),
			labelStyle.Render(fmt.Sprintf("pid %d", w.PID)),
			labelStyle.Render(w.StartedAt))
	}
	return b.String()
}
