package metadata

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSummaryRoundTrip(t *testing.T) {
	s := NewRunSummary("jack", "followers")
	s.Pages = 2
	s.RawAccounts = 3
	s.FailedChunks = []ChunkFailure{{Index: 1, IDs: 300, Error: "boom"}}
	s.New = 3
	s.Finish(nil)

	path := filepath.Join(t.TempDir(), "jack_followers.summary.json")
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "jack", loaded.Username)
	assert.Equal(t, 3, loaded.New)
	assert.Equal(t, s.FailedChunks, loaded.FailedChunks)
	assert.NotEmpty(t, loaded.Duration)
	assert.Empty(t, loaded.Error)
}

func TestFinishRecordsError(t *testing.T) {
	s := NewRunSummary("jack", "following")
	s.Finish(errors.New("interrupted"))
	assert.Equal(t, "interrupted", s.Error)
	assert.False(t, s.FinishedAt.Before(s.StartedAt))
}

func TestSummaryPath(t *testing.T) {
	assert.Equal(t, "out/jack_followers.summary.json", SummaryPath("out/jack_followers.csv"))
	assert.Equal(t, "jack.summary.json", SummaryPath("jack"))
}

func TestHighlights(t *testing.T) {
	s := NewRunSummary("jack", "followers")
	s.OutputFile = "jack_followers.csv"
	lines := s.Highlights()
	assert.Equal(t, "Output", lines[len(lines)-1][0])
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
