package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"xfollowers/pkg/metadata"
)

// Message types for the TUI

// StageMsg is sent when a pipeline stage starts
type StageMsg struct {
	Stage string
}

// PageMsg is sent after every follower page
type PageMsg struct {
	Page       int
	Accounts   int
	Total      int
	NextCursor string
}

// RetryMsg is sent before a failed request is reissued
type RetryMsg struct {
	Operation string
	Attempt   int
	Delay     time.Duration
	Error     error
}

// ChunkMsg is sent when a detail chunk finishes
type ChunkMsg struct {
	Index  int
	Chunks int
	Error  error
}

// DoneMsg is sent when the run ends
type DoneMsg struct {
	Summary *metadata.RunSummary
	Error   error
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mu.Lock()
		m.width = msg.Width
		m.height = msg.Height
		m.chunkBar.Width = max(10, msg.Width/2-20)
		m.mu.Unlock()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.chunkBar.Update(msg)
		if b, ok := bar.(progress.Model); ok {
			m.chunkBar = b
		}
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case StageMsg:
		m.SetStage(msg.Stage)
		m.AddLogMessage("INFO", "Stage: "+msg.Stage)
		return m, nil

	case PageMsg:
		m.RecordPage(msg.Page, msg.Accounts, msg.Total, msg.NextCursor)
		m.AddLogMessage("INFO", fmt.Sprintf("Page %d: %d accounts", msg.Page, msg.Accounts))
		return m, nil

	case RetryMsg:
		m.RecordRetry()
		m.AddLogMessage("WARN", fmt.Sprintf("Retrying %s (attempt %d): %v", msg.Operation, msg.Attempt, msg.Error))
		return m, nil

	case ChunkMsg:
		m.RecordChunk(msg.Chunks, msg.Error != nil)
		if msg.Error != nil {
			m.AddLogMessage("ERROR", fmt.Sprintf("Chunk %d/%d failed: %v", msg.Index+1, msg.Chunks, msg.Error))
		}
		return m, m.chunkBar.SetPercent(m.ChunkProgress())

	case DoneMsg:
		m.Finish(msg.Summary, msg.Error)
		if msg.Error != nil {
			m.AddLogMessage("ERROR", "Run failed: "+msg.Error.Error())
		} else if msg.Summary != nil {
			m.AddLogMessage("SUCCESS", fmt.Sprintf("Done: %d new records", msg.Summary.New))
		}
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case "p", "P":
		if m.TogglePause() {
			m.AddLogMessage("WARN", "Paused before next request")
		} else {
			m.AddLogMessage("INFO", "Resumed")
		}
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = nil
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
