package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/charlie0129/tomato/pkg/appdata"
)

// Color palette
var (
	colorWork      = lipgloss.Color("#FF6B6B")
	colorShort     = lipgloss.Color("#2ECC71")
	colorLong      = lipgloss.Color("#7AA2F7")
	colorMuted     = lipgloss.Color("#666666")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#6C63FF")
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	timeStyle = lipgloss.NewStyle().
			Bold(true).
			Align(lipgloss.Center)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	pausedStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	tagStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)
)

func phaseColor(p appdata.Phase) lipgloss.Color {
	switch p {
	case appdata.PhaseShortBreak:
		return colorShort
	case appdata.PhaseLongBreak:
		return colorLong
	default:
		return colorWork
	}
}
