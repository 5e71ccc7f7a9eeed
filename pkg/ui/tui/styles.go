package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	accent  = lipgloss.Color("#1D9BF0")
	verify  = lipgloss.Color("#7856FF")
	good    = lipgloss.Color("#00BA7C")
	caution = lipgloss.Color("#FFD400")
	bad     = lipgloss.Color("#F4212E")
	ink     = lipgloss.Color("#0F1419")
	panelBg = lipgloss.Color("#15202B")
	muted   = lipgloss.Color("#8B98A5")
	faint   = lipgloss.Color("#536471")

	levelColors = map[string]lipgloss.Color{
		"ERROR":   bad,
		"WARN":    caution,
		"SUCCESS": good,
		"INFO":    accent,
	}

	baseStyle = lipgloss.NewStyle().
			Background(ink).
			Foreground(muted)

	logoStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(faint).
			Background(panelBg).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Background(accent).
			Foreground(ink).
			Bold(true).
			Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	statsValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E7E9EA"))
	stageStyle      = lipgloss.NewStyle().Foreground(verify).Bold(true)
	successStyle    = lipgloss.NewStyle().Foreground(good).Bold(true)
	errorStyle      = lipgloss.NewStyle().Foreground(bad).Bold(true)
	warningStyle    = lipgloss.NewStyle().Foreground(caution).Bold(true)
	mutedStyle      = lipgloss.NewStyle().Foreground(muted)

	logTimestampStyle = lipgloss.NewStyle().Foreground(faint)
	logMessageStyle   = lipgloss.NewStyle().Foreground(muted)

	helpStyle = lipgloss.NewStyle().
			Foreground(faint).
			Padding(1, 0, 0, 2)
)

// levelColor returns the event color for a log level
func levelColor(level string) lipgloss.Color {
	if c, ok := levelColors[level]; ok {
		return c
	}
	return muted
}

// chunkStyle colors the chunk counter: red once a chunk failed, otherwise
// shading from caution to good as lookups complete.
func chunkStyle(fraction float64, failed int) lipgloss.Style {
	switch {
	case failed > 0:
		return warningStyle
	case fraction >= 1:
		return successStyle
	case fraction >= 0.5:
		return statsValueStyle
	default:
		return lipgloss.NewStyle().Foreground(caution)
	}
}
