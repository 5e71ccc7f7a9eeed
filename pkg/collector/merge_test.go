package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/supplier"
)

func detailMap(details []*supplier.UserDetail) map[string]*supplier.UserDetail {
	m := make(map[string]*supplier.UserDetail, len(details))
	for _, d := range details {
		m[d.RestID] = d
	}
	return m
}

func TestMergeDropsProtectedAccounts(t *testing.T) {
	var accounts []supplier.RawAccount
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		if i%3 == 1 {
			accounts = append(accounts, protected(id, "user_"+id))
			continue
		}
		accounts = append(accounts, account(id, "user_"+id))
	}

	ids := DetailIDs(accounts)
	assert.Len(t, ids, 7)

	result := Merge(accounts, detailMap(verifiedDetails(ids, nil)), false, logger.NewNopLogger())
	require.Len(t, result.Records, 7)
	assert.Equal(t, 3, result.ProtectedDropped)
	assert.Equal(t, 0, result.MissingVerification)
	for _, r := range result.Records {
		assert.NotEqual(t, "user_b", r.ScreenName)
	}
}

func TestMergeDeduplicates(t *testing.T) {
	accounts := []supplier.RawAccount{
		account("1", "alice"),
		account("2", "bob"),
		account("1", "alice"),
		account("3", "bob"),
	}

	result := Merge(accounts, nil, false, logger.NewNopLogger())
	require.Len(t, result.Records, 2)
	assert.Equal(t, "alice", result.Records[0].ScreenName)
	assert.Equal(t, "bob", result.Records[1].ScreenName)
	assert.Equal(t, 2, result.Duplicates)
}

func TestMergeMissingVerificationIsFalse(t *testing.T) {
	yes := true
	accounts := []supplier.RawAccount{account("1", "alice"), account("2", "bob"), account("3", "carol")}
	details := map[string]*supplier.UserDetail{
		"1": {RestID: "1", IsBlueVerified: &yes},
		"2": {RestID: "2"},
	}

	log := logger.NewTestLogger()
	result := Merge(accounts, details, false, log)

	require.Len(t, result.Records, 3)
	assert.True(t, result.Records[0].IsBlueVerified)
	assert.False(t, result.Records[1].IsBlueVerified)
	assert.False(t, result.Records[2].IsBlueVerified)
	assert.Equal(t, 2, result.MissingVerification)
	assert.True(t, log.HasMessage("Verification flag missing, treating as unverified"))
}

func TestMergeProjectsFields(t *testing.T) {
	acc := supplier.RawAccount{
		ID:             "7",
		ScreenName:     "dave",
		Name:           "Dave",
		Description:    "bio",
		URL:            "https://t.co/x",
		FollowersCount: 12,
		FriendsCount:   34,
	}
	yes := true
	details := map[string]*supplier.UserDetail{
		"7": {RestID: "7", IsBlueVerified: &yes, Legacy: map[string]interface{}{"location": "Oslo"}},
	}

	plain := Merge([]supplier.RawAccount{acc}, details, false, logger.NewNopLogger())
	require.Len(t, plain.Records, 1)
	r := plain.Records[0]
	assert.Equal(t, "7", r.ID)
	assert.Equal(t, "Dave", r.Name)
	assert.Equal(t, "bio", r.Description)
	assert.Equal(t, 12, r.FollowersCount)
	assert.Equal(t, 34, r.FriendsCount)
	assert.True(t, r.IsBlueVerified)
	assert.Nil(t, r.Legacy)

	full := Merge([]supplier.RawAccount{acc}, details, true, logger.NewNopLogger())
	assert.Equal(t, "Oslo", full.Records[0].Legacy["location"])
}
