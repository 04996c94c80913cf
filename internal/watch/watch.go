// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package watch renders a live view of a submitted batch: it polls the
// cluster scheduler on a fixed interval and shows each scene's job state
// until the operator quits. It is the interactive complement to the
// generated check_status.sh, working from the same embedded job id list.
package watch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/specialistvlad/splatgrid/internal/slurm"
)

const pollInterval = 5 * time.Second

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
	goneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type tickMsg time.Time

type statesMsg []slurm.JobState

// Model is the bubbletea model behind `splatgrid watch`.
type Model struct {
	ctx     context.Context
	client  *slurm.Client
	records []slurm.JobRecord

	states   map[string]string
	polls    int
	lastPoll time.Time
	spin     spinner.Model
	quitting bool
}

// New builds the watch model for the given batch records.
func New(ctx context.Context, client *slurm.Client, records []slurm.JobRecord) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle
	return Model{
		ctx:     ctx,
		client:  client,
		records: records,
		states:  map[string]string{},
		spin:    s,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.poll(), schedule())
}

func schedule() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// poll queries the scheduler off the UI loop.
func (m Model) poll() tea.Cmd {
	ids := make([]string, len(m.records))
	for i, r := range m.records {
		ids[i] = r.JobID
	}
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		return statesMsg(client.Query(ctx, ids))
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(m.poll(), schedule())
	case statesMsg:
		for _, s := range msg {
			m.states[s.JobID] = s.State
		}
		m.polls++
		m.lastPoll = time.Now()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", m.spin.View(), titleStyle.Render(fmt.Sprintf("Watching %d jobs", len(m.records))))
	fmt.Fprintf(&b, "%-12s %-32s %s\n", "JOB", "SCENE", "STATE")

	for _, r := range m.records {
		state, ok := m.states[r.JobID]
		if !ok {
			state = "..."
		}
		fmt.Fprintf(&b, "%-12s %-32s %s\n", r.JobID, r.Scene, styleFor(state).Render(state))
	}

	if m.polls > 0 {
		fmt.Fprintf(&b, "\n%s\n", mutedStyle.Render(fmt.Sprintf(
			"last poll %s · refresh every %s · q to quit",
			m.lastPoll.Format("15:04:05"), pollInterval)))
	} else {
		fmt.Fprintf(&b, "\n%s\n", mutedStyle.Render("polling scheduler · q to quit"))
	}
	return b.String()
}

func styleFor(state string) lipgloss.Style {
	switch state {
	case "RUNNING":
		return runningStyle
	case "PENDING", "CONFIGURING":
		return pendingStyle
	case slurm.StateUnknown:
		return goneStyle
	default:
		return pendingStyle
	}
}

// Run drives the watch TUI until the operator quits.
func Run(ctx context.Context, out io.Writer, client *slurm.Client, records []slurm.JobRecord) error {
	p := tea.NewProgram(New(ctx, client, records), tea.WithOutput(out), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
