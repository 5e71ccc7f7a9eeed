package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const logo = `
██╗  ██╗    ███████╗ ██████╗ ██╗     ██╗      ██████╗ ██╗    ██╗
╚██╗██╔╝    ██╔════╝██╔═══██╗██║     ██║     ██╔═══██╗██║    ██║
 ╚███╔╝     █████╗  ██║   ██║██║     ██║     ██║   ██║██║ █╗ ██║
 ██╔██╗     ██╔══╝  ██║   ██║██║     ██║     ██║   ██║██║███╗██║
██╔╝ ██╗    ██║     ╚██████╔╝███████╗███████╗╚██████╔╝╚███╔███╔╝
╚═╝  ╚═╝    ╚═╝      ╚═════╝ ╚══════╝╚══════╝ ╚═════╝  ╚══╝╚══╝
                 FOLLOWER LIST COLLECTOR`

// View renders the entire TUI
func (m *Model) View() string {
	m.mu.RLock()
	width, height := m.width, m.height
	showHelp := m.showHelp
	m.mu.RUnlock()

	if width == 0 || height == 0 {
		return "Initializing..."
	}

	column := (width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(column),
		m.renderPaginationPanel(column),
		m.renderDetailsPanel(column),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderLogsPanel(column),
	)

	sections := []string{
		logoStyle.Width(width).Render(logo),
		lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right),
	}
	if showHelp {
		sections = append(sections, m.renderHelp(width))
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(width).Height(height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func stat(label, value string) string {
	return fmt.Sprintf("%s %s", statsLabelStyle.Render(label), statsValueStyle.Render(value))
}

// renderStatsPanel shows what is being collected and the current stage
func (m *Model) renderStatsPanel(width int) string {
	rate := m.PageRate()

	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" RUN ")
	stage := m.spinner.View() + " " + stageStyle.Render(strings.ToUpper(m.stage))
	if m.finished {
		if m.runErr != nil {
			stage = errorStyle.Render("✗ FAILED")
		} else {
			stage = successStyle.Render("✓ DONE")
		}
	}

	lines := []string{
		stat("Account:", "@"+m.username),
		stat("Request:", m.request),
		stat("Session Time:", formatDuration(time.Since(m.sessionStartTime))),
		stat("Request spacing:", m.requestDelay.String()),
		stat("Pages/min:", fmt.Sprintf("%.1f", rate)),
		stage,
	}
	if m.isPaused {
		lines = append(lines, warningStyle.Render("⏸  PAUSED"))
	}
	if m.finished && m.summary != nil {
		lines = append(lines, "")
		for _, h := range m.summary.Highlights() {
			lines = append(lines, stat(h[0]+":", h[1]))
		}
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}

// renderPaginationPanel shows the cursor walk
func (m *Model) renderPaginationPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" PAGINATION ")
	cursor := m.lastCursor
	if cursor == "" {
		cursor = "-"
	}
	if len(cursor) > 24 {
		cursor = cursor[:21] + "..."
	}

	retries := statsValueStyle.Render("0")
	if m.retries > 0 {
		retries = warningStyle.Render(fmt.Sprintf("%d", m.retries))
	}

	lines := []string{
		stat("Pages:", fmt.Sprintf("%d", m.pages)),
		stat("Accounts:", FormatCount(m.accounts)),
		stat("Next cursor:", cursor),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Retries:"), retries),
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}

// renderDetailsPanel shows detail lookup progress
func (m *Model) renderDetailsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" DETAIL LOOKUP ")
	if m.chunks == 0 {
		content := mutedStyle.Render("Waiting for pagination")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	percent := chunkFraction(m.chunksDone, m.chunks)
	lines := []string{
		fmt.Sprintf("%s %s",
			statsLabelStyle.Render("Chunks:"),
			chunkStyle(percent, m.chunksFailed).Render(fmt.Sprintf("%d/%d (%.0f%%)", m.chunksDone, m.chunks, percent*100))),
		m.chunkBar.View(),
	}
	if m.chunksFailed > 0 {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("✗ %d failed", m.chunksFailed)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}

// renderLogsPanel renders the logs panel
func (m *Model) renderLogsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" EVENTS ")

	start := len(m.logMessages) - 15
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		message := log.Message
		maxMsgLen := width - 25
		if maxMsgLen > 3 && len(message) > maxMsgLen {
			message = message[:maxMsgLen-3] + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, logMessageStyle.Render(message)))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = mutedStyle.Render("No events yet...")
	}

	logsHeight := m.height - 16
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp(width int) string {
	help := `
  Keys:
    q/Q      - Stop the run and quit
    p/P      - Pause/Resume before the next page request
    ctrl+l   - Clear events
    ?        - Toggle this help

  Status Indicators:
    ` + successStyle.Render("Green") + `    - Done
    ` + warningStyle.Render("Orange") + `   - Retrying/Paused
    ` + errorStyle.Render("Red") + `      - Failed chunk or run
`

	return panelStyle.Width(width).Render(help)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
