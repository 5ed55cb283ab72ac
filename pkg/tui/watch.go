// Package tui renders a live view of the daemon's timer in the terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/charlie0129/tomato/pkg/timer"
)

const (
	pollInterval  = time.Second
	progressWidth = 40
)

// Controller is the part of the daemon client the watch view uses.
type Controller interface {
	GetSnapshot() (*timer.Snapshot, error)
	Start() (*timer.Snapshot, error)
	Pause() (*timer.Snapshot, error)
	Skip(reason string) (*timer.Snapshot, error)
	Reset(reason string) (*timer.Snapshot, error)
}

type tickMsg time.Time

// snapshotMsg carries the result of a daemon call.
type snapshotMsg struct {
	snap *timer.Snapshot
	err  error
}

// Model is the watch view.
type Model struct {
	api      Controller
	snap     *timer.Snapshot
	err      error
	width    int
	progress progress.Model
	help     help.Model
}

func New(api Controller) Model {
	return Model{
		api:      api,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
		help:     help.New(),
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) call(fn func() (*timer.Snapshot, error)) tea.Cmd {
	return func() tea.Msg {
		snap, err := fn()
		return snapshotMsg{snap: snap, err: err}
	}
}

func (m Model) fetch() tea.Cmd {
	return m.call(m.api.GetSnapshot)
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = min(progressWidth, max(msg.Width-8, 10))
		return m, nil

	case tickMsg:
		return m, tea.Batch(tickCmd(), m.fetch())

	case snapshotMsg:
		m.err = msg.err
		if msg.err == nil {
			m.snap = msg.snap
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Start):
			return m, m.call(m.api.Start)
		case key.Matches(msg, keys.Pause):
			return m, m.call(m.api.Pause)
		case key.Matches(msg, keys.Skip):
			return m, m.call(func() (*timer.Snapshot, error) { return m.api.Skip("") })
		case key.Matches(msg, keys.Reset):
			return m, m.call(func() (*timer.Snapshot, error) { return m.api.Reset("") })
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("tomato"))
	b.WriteString("\n\n")

	if m.snap == nil {
		if m.err != nil {
			b.WriteString(errorStyle.Render(m.err.Error()))
		} else {
			b.WriteString(mutedStyle.Render("Connecting to daemon..."))
		}
		b.WriteString("\n\n" + m.help.View(keys))
		return panelStyle.Render(b.String())
	}

	s := m.snap
	color := phaseColor(s.Phase)
	label := lipgloss.NewStyle().Bold(true).Foreground(color).Render(s.Phase.DisplayName())
	if !s.IsRunning {
		label += " " + pausedStyle.Render("(paused)")
	}

	b.WriteString(label + "  " + tagStyle.Render("#"+s.CurrentTag) + "\n")
	b.WriteString(timeStyle.Foreground(color).Render(timer.FormatRemaining(s.RemainingSeconds)) + "\n")
	b.WriteString(m.progress.ViewAs(s.Fraction()) + "\n\n")
	b.WriteString(fmt.Sprintf("Today      %s\n", timer.GoalText(s.GoalProgress.DailyCompleted, s.GoalProgress.DailyGoal)))
	b.WriteString(fmt.Sprintf("This week  %s\n", timer.GoalText(s.GoalProgress.WeeklyCompleted, s.GoalProgress.WeeklyGoal)))
	if s.BlacklistLocked {
		b.WriteString(mutedStyle.Render("Blacklist locked") + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + m.help.View(keys))
	return panelStyle.Render(b.String())
}

// Run blocks until the user quits.
func Run(api Controller) error {
	_, err := tea.NewProgram(New(api), tea.WithAltScreen()).Run()
	return err
}
