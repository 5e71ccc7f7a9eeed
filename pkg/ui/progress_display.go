package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"xfollowers/pkg/collector"
	"xfollowers/pkg/metadata"
)

// ProgressDisplay prints a single updating status line per stage. In debug
// mode it prints one line per event instead, so it interleaves with logs.
type ProgressDisplay struct {
	mu       sync.Mutex
	out      io.Writer
	username string
	request  string
	stage    string
	tracker  *StatusTracker
	isDebug  bool
}

// NewProgressDisplay creates a display for username's request list
func NewProgressDisplay(username, request string, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:      Output,
		username: username,
		request:  request,
		tracker:  NewStatusTracker(),
		isDebug:  debug,
	}
}

// SetOutput redirects the display, e.g. to a buffer in tests
func (p *ProgressDisplay) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = w
}

// StageStarted ends the previous stage's line and starts a new one
func (p *ProgressDisplay) StageStarted(stage string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stage != "" && !p.isDebug {
		fmt.Fprintln(p.out)
	}
	p.stage = stage
	if p.isDebug {
		fmt.Fprintf(p.out, "%s %s\n", Magenta("→"), stage)
	}
}

// PageFetched updates the pagination line
func (p *ProgressDisplay) PageFetched(page, accounts, total int, nextCursor string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracker.RecordPage(page, total)
	if p.isDebug {
		fmt.Fprintf(p.out, "%s page %d • %d accounts • cursor %s\n", Green("✓"), page, accounts, nextCursor)
		return
	}
	p.printProgress()
}

// Retrying reports a failed request about to be reissued
func (p *ProgressDisplay) Retrying(operation string, attempt int, delay time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracker.RecordRetry()
	if p.isDebug {
		fmt.Fprintf(p.out, "%s retrying %s (attempt %d): %v\n", Yellow("⚠"), operation, attempt, err)
		return
	}
	p.printProgress()
}

// ChunkFinished updates the detail lookup line
func (p *ProgressDisplay) ChunkFinished(index, chunks int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tracker.RecordChunk(chunks, err != nil)
	if p.isDebug {
		if err != nil {
			fmt.Fprintf(p.out, "%s chunk %d/%d failed: %v\n", Red("✗"), index+1, chunks, err)
		} else {
			fmt.Fprintf(p.out, "%s chunk %d/%d\n", Green("✓"), index+1, chunks)
		}
		return
	}
	p.printProgress()
}

// printProgress rewrites the status line of the current stage
func (p *ProgressDisplay) printProgress() {
	var line string
	switch p.stage {
	case collector.StageDetails:
		line = fmt.Sprintf("%s details %s", Cyan("@"+p.username), p.tracker.GetChunkProgress())
		if p.tracker.ChunksFailed > 0 {
			line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d failed", p.tracker.ChunksFailed)))
		}
	default:
		line = fmt.Sprintf("%s %s • page %d • %d accounts • %.1f pages/min",
			Cyan("@"+p.username),
			p.request,
			p.tracker.Pages,
			p.tracker.Accounts,
			p.tracker.GetPageRate(),
		)
		if p.tracker.Retries > 0 {
			line += fmt.Sprintf(" • %s", Yellow(fmt.Sprintf("%d retries", p.tracker.Retries)))
		}
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

// Complete prints the run summary
func (p *ProgressDisplay) Complete(summary *metadata.RunSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if summary == nil {
		return
	}
	fmt.Fprintf(p.out, "\n\n%s Collected %d new accounts from @%s's %s in %s\n",
		Green("✓"),
		summary.New,
		p.username,
		p.request,
		formatDuration(p.tracker.GetElapsedTime()),
	)
	for _, h := range summary.Highlights() {
		fmt.Fprintf(p.out, "  %s %s: %s\n", Dim("•"), h[0], h[1])
	}
}

// Fail prints the error that ended the run
func (p *ProgressDisplay) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\n\n%s %v\n", Red("✗"), err)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
