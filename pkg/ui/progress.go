package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker counts pagination and detail lookup progress for one run
type StatusTracker struct {
	Pages        int
	Accounts     int
	Retries      int
	Chunks       int
	ChunksDone   int
	ChunksFailed int
	StartTime    time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		StartTime: time.Now(),
	}
}

// RecordPage sets the page count and running account total
func (st *StatusTracker) RecordPage(page, total int) {
	st.Pages = page
	st.Accounts = total
}

// RecordChunk counts a finished chunk out of chunks
func (st *StatusTracker) RecordChunk(chunks int, failed bool) {
	st.Chunks = chunks
	st.ChunksDone++
	if failed {
		st.ChunksFailed++
	}
}

// RecordRetry counts one retried request
func (st *StatusTracker) RecordRetry() {
	st.Retries++
}

// GetChunkProgress returns a formatted progress bar for the detail lookup
func (st *StatusTracker) GetChunkProgress() string {
	const width = 20
	filled := 0
	if st.Chunks > 0 {
		filled = st.ChunksDone * width / st.Chunks
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.ChunksDone, st.Chunks)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetPageRate returns the average pages per minute
func (st *StatusTracker) GetPageRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Pages) / elapsed
}
