package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"xfollowers/pkg/metadata"
)

// TUI is a full-screen display of one run. It implements the collector's
// Progress interface, and its pause key is honoured between page requests.
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates a display for username's request list. Program options
// are passed to bubbletea after the alt-screen option.
func NewTUI(username, request string, requestDelay time.Duration, opts ...tea.ProgramOption) *TUI {
	model := NewModel(username, request, requestDelay)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)

	return &TUI{
		program: tea.NewProgram(model, opts...),
		model:   model,
	}
}

// OnQuit registers fn to run when the operator quits, typically the
// cancel function of the run's context.
func (t *TUI) OnQuit(fn func()) {
	t.model.mu.Lock()
	t.model.onQuit = fn
	t.model.mu.Unlock()
}

// Start runs the TUI until the operator quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) StageStarted(stage string) {
	t.Send(StageMsg{Stage: stage})
}

func (t *TUI) PageFetched(page, accounts, total int, nextCursor string) {
	t.Send(PageMsg{Page: page, Accounts: accounts, Total: total, NextCursor: nextCursor})
}

func (t *TUI) Retrying(operation string, attempt int, delay time.Duration, err error) {
	t.Send(RetryMsg{Operation: operation, Attempt: attempt, Delay: delay, Error: err})
}

func (t *TUI) ChunkFinished(index, chunks int, err error) {
	t.Send(ChunkMsg{Index: index, Chunks: chunks, Error: err})
}

// Complete shows the run summary. The display stays up until the operator quits.
func (t *TUI) Complete(summary *metadata.RunSummary) {
	t.Send(DoneMsg{Summary: summary})
}

// Fail shows the error that ended the run
func (t *TUI) Fail(err error) {
	t.Send(DoneMsg{Error: err})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// IsPaused returns whether the operator paused the run
func (t *TUI) IsPaused() bool {
	return t.model.IsPaused()
}
