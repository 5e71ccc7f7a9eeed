package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xfollowers/pkg/storage"
)

// RunSummary records what one fetch run did
type RunSummary struct {
	Username    string `json:"username"`
	Request     string `json:"request"`
	Supplier    string `json:"supplier"`
	Type        string `json:"type"`
	StartCursor string `json:"start_cursor,omitempty"`
	Resumed     bool   `json:"resumed"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Duration   string    `json:"duration"`

	// Pagination
	Pages            int `json:"pages"`
	PageRetries      int `json:"page_retries"`
	RawAccounts      int `json:"raw_accounts"`
	MalformedRecords int `json:"malformed_records"`

	// Detail lookup
	Chunks              int            `json:"chunks"`
	ChunkRetries        int            `json:"chunk_retries"`
	FailedChunks        []ChunkFailure `json:"failed_chunks,omitempty"`
	CacheHits           int            `json:"cache_hits"`
	MissingVerification int            `json:"missing_verification"`

	// Merge and filtering
	ProtectedDropped int `json:"protected_dropped"`
	Duplicates       int `json:"duplicates"`
	Records          int `json:"records"`
	Filtered         int `json:"filtered"`
	Excluded         int `json:"excluded"`
	New              int `json:"new"`

	OutputFile     string `json:"output_file"`
	ExclusionsFile string `json:"exclusions_file"`
	Error          string `json:"error,omitempty"`
}

// ChunkFailure describes a detail chunk that never succeeded
type ChunkFailure struct {
	Index int `json:"index"`
	IDs   int `json:"ids"`
	// Class is transport, data or unknown
	Class string `json:"class"`
	Error string `json:"error"`
}

// NewRunSummary starts a summary for username and request
func NewRunSummary(username, request string) *RunSummary {
	return &RunSummary{
		Username:  username,
		Request:   request,
		StartedAt: time.Now(),
	}
}

// Finish stamps the end time, and the error if the run failed
func (s *RunSummary) Finish(err error) {
	s.FinishedAt = time.Now()
	s.Duration = s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
	if err != nil {
		s.Error = err.Error()
	}
}

// Save writes the summary as indented JSON, atomically
func (s *RunSummary) Save(path string) error {
	return storage.WriteAtomic(path, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(s)
	})
}

// Load reads a summary file
func Load(path string) (*RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary file: %w", err)
	}

	var s RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return &s, nil
}

// SummaryPath derives the summary location from an export file path:
// jack_followers.csv becomes jack_followers.summary.json
func SummaryPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + ".summary.json"
}

// Highlights returns the lines shown to the operator when a run ends
func (s *RunSummary) Highlights() [][2]string {
	lines := [][2]string{
		{"Pages", fmt.Sprintf("%d (%d retries)", s.Pages, s.PageRetries)},
		{"Accounts", fmt.Sprintf("%d raw, %d protected dropped", s.RawAccounts, s.ProtectedDropped)},
		{"Detail chunks", fmt.Sprintf("%d (%d failed)", s.Chunks, len(s.FailedChunks))},
		{"Already exported", fmt.Sprintf("%d", s.Excluded)},
		{"New records", fmt.Sprintf("%d", s.New)},
	}
	if s.OutputFile != "" {
		lines = append(lines, [2]string{"Output", s.OutputFile})
	}
	return lines
}
