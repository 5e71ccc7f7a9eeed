package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterByType(t *testing.T) {
	records := []AccountRecord{
		{ScreenName: "alice", IsBlueVerified: true},
		{ScreenName: "bob"},
		{ScreenName: "carol", IsBlueVerified: true},
	}

	names := func(rs []AccountRecord) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.ScreenName)
		}
		return out
	}

	assert.Equal(t, []string{"alice", "bob", "carol"}, names(FilterByType(records, TypeAll)))
	assert.Equal(t, []string{"alice", "carol"}, names(FilterByType(records, TypeVerified)))
	assert.Equal(t, []string{"bob"}, names(FilterByType(records, TypeNonVerified)))
}

func TestParseVerificationType(t *testing.T) {
	v, err := ParseVerificationType("")
	require.NoError(t, err)
	assert.Equal(t, TypeAll, v)

	v, err = ParseVerificationType("NonVerified")
	require.NoError(t, err)
	assert.Equal(t, TypeNonVerified, v)

	_, err = ParseVerificationType("gold")
	assert.Error(t, err)
}
