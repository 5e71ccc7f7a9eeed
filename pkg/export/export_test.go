package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xfollowers/pkg/models"
)

func TestWriterDefaultColumns(t *testing.T) {
	w, err := NewWriter("", false)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = w.Write(&buf, []models.AccountRecord{
		{ID: "1", ScreenName: "alice", Name: "Alice, A.", FollowersCount: 3, IsBlueVerified: true, XLink: "https://x.com/alice"},
	})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"1", "Alice, A.", "alice", "", "", "3", "0", "true", "https://x.com/alice"}, rows[1])
}

func TestWriterFullProfileAndDelimiter(t *testing.T) {
	w, err := NewWriter(";", true)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = w.Write(&buf, []models.AccountRecord{{
		ID:         "1",
		ScreenName: "alice",
		Legacy: map[string]interface{}{
			"location":       "Paris",
			"statuses_count": float64(1200),
		},
	}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "x_link;location;created_at")

	r := csv.NewReader(strings.NewReader(buf.String()))
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows[1], len(Columns)+len(ProfileColumns))
	assert.Equal(t, "Paris", rows[1][len(Columns)])
	assert.Equal(t, "1200", rows[1][len(Columns)+2])
}

func TestNewWriterRejectsBadDelimiter(t *testing.T) {
	for _, d := range []string{"ab", "\"", "\n"} {
		_, err := NewWriter(d, false)
		assert.Error(t, err, d)
	}
	_, err := NewWriter("\t", false)
	assert.NoError(t, err)
}
