package tui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"xfollowers/pkg/metadata"
)

// Model is the state behind the full-screen run display
type Model struct {
	// UI components
	spinner  spinner.Model
	chunkBar progress.Model

	// Run being displayed
	username     string
	request      string
	requestDelay time.Duration
	stage        string

	// Pagination
	pages      int
	accounts   int
	lastCursor string
	retries    int

	// Detail lookup
	chunks       int
	chunksDone   int
	chunksFailed int

	sessionStartTime time.Time
	summary          *metadata.RunSummary
	runErr           error
	finished         bool

	// UI state
	width          int
	height         int
	showHelp       bool
	isPaused       bool
	logMessages    []LogMessage
	maxLogMessages int
	onQuit         func()

	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates the model for one run. requestDelay is the spacing
// between supplier requests, shown next to the request counters.
func NewModel(username, request string, requestDelay time.Duration) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &Model{
		spinner:          s,
		chunkBar:         bar,
		username:         username,
		request:          request,
		requestDelay:     requestDelay,
		stage:            "starting",
		sessionStartTime: time.Now(),
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// SetStage records the pipeline stage now running
func (m *Model) SetStage(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stage = stage
}

// RecordPage records a fetched follower page
func (m *Model) RecordPage(page, accounts, total int, nextCursor string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = page
	m.accounts = total
	m.lastCursor = nextCursor
}

// RecordRetry counts a retried request
func (m *Model) RecordRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

// RecordChunk records a finished detail chunk
func (m *Model) RecordChunk(chunks int, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = chunks
	m.chunksDone++
	if failed {
		m.chunksFailed++
	}
}

// Finish records the end of the run
func (m *Model) Finish(summary *metadata.RunSummary, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = true
	m.summary = summary
	m.runErr = err
	if err == nil {
		m.stage = "done"
	} else {
		m.stage = "failed"
	}
}

// TogglePause flips the pause flag and returns the new value
func (m *Model) TogglePause() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isPaused = !m.isPaused
	return m.isPaused
}

// IsPaused reports whether the operator paused the run
func (m *Model) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   levelColor(level),
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// ChunkProgress returns the fraction of detail chunks finished
func (m *Model) ChunkProgress() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return chunkFraction(m.chunksDone, m.chunks)
}

func chunkFraction(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(done) / float64(total)
	if p > 1 {
		p = 1
	}
	return p
}

// PageRate returns pages per minute since the display started
func (m *Model) PageRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	elapsed := time.Since(m.sessionStartTime).Minutes()
	if elapsed <= 0 {
		return 0
	}
	return float64(m.pages) / elapsed
}

// FormatCount formats large counts with a k or M suffix
func FormatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
