package supplier

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "xfollowers/pkg/errors"
)

func TestRawAccountDecoding(t *testing.T) {
	var acc RawAccount
	err := json.Unmarshal([]byte(`{
		"id": 1234567890123456789,
		"id_str": "1234567890123456789",
		"screen_name": "alice",
		"name": "Alice",
		"description": "hi",
		"url": null,
		"followers_count": 5,
		"friends_count": 7,
		"protected": false,
		"profile_link_color": "1DA1F2"
	}`), &acc)
	require.NoError(t, err)

	assert.Equal(t, "1234567890123456789", acc.ID)
	assert.Equal(t, "alice", acc.ScreenName)
	assert.Equal(t, "", acc.URL)
	assert.Equal(t, 7, acc.FriendsCount)
	assert.Contains(t, acc.Attributes, "profile_link_color")
}

func TestRawAccountFallsBackToNumericID(t *testing.T) {
	var acc RawAccount
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42, "screen_name": "bob"}`), &acc))
	assert.Equal(t, "42", acc.ID)
}

func TestRawAccountMalformed(t *testing.T) {
	inputs := []string{
		`"just a string"`,
		`{"screen_name": "noid"}`,
		`{"id_str": "9"}`,
		`{"id_str": "9", "screen_name": "x", "followers_count": "many"}`,
	}
	for _, in := range inputs {
		var acc RawAccount
		err := json.Unmarshal([]byte(in), &acc)
		require.Error(t, err, in)
		assert.True(t, errs.IsType(err, errs.ErrorTypeMalformedRecord), in)
	}
}

func TestRawAccountRoundTrip(t *testing.T) {
	var acc RawAccount
	require.NoError(t, json.Unmarshal([]byte(`{"id_str": "1", "screen_name": "alice", "protected": true, "lang": "en"}`), &acc))

	data, err := json.Marshal(acc)
	require.NoError(t, err)

	var back RawAccount
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, acc.ID, back.ID)
	assert.Equal(t, acc.ScreenName, back.ScreenName)
	assert.True(t, back.Protected)
	assert.JSONEq(t, `"en"`, string(back.Attributes["lang"]))
}

func TestDecodeFollowPage(t *testing.T) {
	_, err := DecodeFollowPage([]byte(`not json`))
	assert.True(t, errs.IsType(err, errs.ErrorTypeMalformedRecord))

	_, err = DecodeFollowPage([]byte(`{"users": [], "next_cursor_str": ""}`))
	assert.True(t, errs.IsType(err, errs.ErrorTypeMalformedRecord))

	page, err := DecodeFollowPage([]byte(`{"users": null, "next_cursor_str": "0"}`))
	require.NoError(t, err)
	assert.True(t, page.Last())
	assert.Empty(t, page.Accounts)
}

func TestDecodeUsersByIDsKeepsGoodEntries(t *testing.T) {
	batch, err := DecodeUsersByIDs([]byte(`{"data": {"users": [
		{"result": {"rest_id": "1", "is_blue_verified": true}},
		{"result": {"rest_id": 2, "is_blue_verified": "false", "legacy": []}},
		{"result": {"rest_id": "3", "is_blue_verified": {"badge": 1}}},
		"garbage",
		{"result": {"rest_id": "5", "is_blue_verified": false, "legacy": {"location": "Oslo"}}}
	]}}`))
	require.NoError(t, err)
	require.Len(t, batch.Details, 5)

	require.NotNil(t, batch.Details[0].IsBlueVerified)
	assert.True(t, *batch.Details[0].IsBlueVerified)

	assert.Equal(t, "2", batch.Details[1].RestID)
	require.NotNil(t, batch.Details[1].IsBlueVerified)
	assert.False(t, *batch.Details[1].IsBlueVerified)
	assert.Nil(t, batch.Details[1].Legacy)

	assert.Equal(t, "3", batch.Details[2].RestID)
	assert.Nil(t, batch.Details[2].IsBlueVerified)

	assert.Nil(t, batch.Details[3])
	assert.Equal(t, "Oslo", batch.Details[4].Legacy["location"])

	require.Len(t, batch.Malformed, 3)
	for _, e := range batch.Malformed {
		assert.True(t, errs.IsType(e, errs.ErrorTypeMalformedRecord))
	}
	assert.Contains(t, batch.Malformed[0].Error(), "rest_id coerced")
	assert.Contains(t, batch.Malformed[0].Error(), "legacy dropped")
	assert.Contains(t, batch.Malformed[1].Error(), "is_blue_verified dropped")
}

func TestDecodeUsersByIDsInvalidBody(t *testing.T) {
	_, err := DecodeUsersByIDs([]byte(`<html>`))
	assert.True(t, errs.IsType(err, errs.ErrorTypeMalformedRecord))

	batch, err := DecodeUsersByIDs([]byte(`{"data": {}}`))
	require.NoError(t, err)
	assert.Empty(t, batch.Details)
}

func TestEndpointHelpers(t *testing.T) {
	r, err := ParseRequest("Following")
	require.NoError(t, err)
	assert.Equal(t, FollowingEndpoint, r.Endpoint())
	assert.Equal(t, FollowersEndpoint, RequestFollowers.Endpoint())

	_, err = ParseRequest("friends")
	assert.Error(t, err)

	assert.Equal(t, JoJAPIBaseURL, DefaultBaseURL("jojapi"))
	assert.Equal(t, RapidAPIBaseURL, DefaultBaseURL("rapidapi"))

	q := PageQuery("jack", 0, "")
	assert.Equal(t, "200", q.Get("count"))
	assert.False(t, q.Has("cursor"))

	assert.Equal(t, "a,b", IDsQuery([]string{"a", "b"}).Get("ids"))
	assert.Equal(t, "https://x.com/alice", ProfileURL("alice"))
	assert.Equal(t, "", ProfileURL(""))
}
