package supplier

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"xfollowers/pkg/config"
)

const (
	// RapidAPIBaseURL is the base URL of the RapidAPI twitter135 supplier
	RapidAPIBaseURL = "https://twitter135.p.rapidapi.com/"
	// RapidAPIHost is sent as X-RapidAPI-Host
	RapidAPIHost = "twitter135.p.rapidapi.com"
	// JoJAPIBaseURL is the base URL of the JoJAPI supplier
	JoJAPIBaseURL = "https://twitter.jojapi.net/"

	FollowersEndpoint        = "v1.1/Followers/"
	FollowingEndpoint        = "v1.1/Following/"
	UsersByRestIDsEndpoint   = "v2/UsersByRestIds/"
	UserByScreenNameEndpoint = "v2/UserByScreenName/"

	// EndCursor is the next_cursor_str value marking the last page
	EndCursor = "0"

	// DefaultPageSize is the count requested per follower page
	DefaultPageSize = 200
)

// Request selects which relationship list is paginated.
type Request string

const (
	RequestFollowers Request = "followers"
	RequestFollowing Request = "following"
)

// ParseRequest validates a request kind name.
func ParseRequest(s string) (Request, error) {
	switch Request(strings.ToLower(s)) {
	case RequestFollowers:
		return RequestFollowers, nil
	case RequestFollowing:
		return RequestFollowing, nil
	default:
		return "", fmt.Errorf("unknown request %q (want followers or following)", s)
	}
}

// Endpoint returns the pagination endpoint for the request kind
func (r Request) Endpoint() string {
	if r == RequestFollowing {
		return FollowingEndpoint
	}
	return FollowersEndpoint
}

// DefaultBaseURL returns the base URL for a supplier name
func DefaultBaseURL(name string) string {
	if name == config.SupplierJoJAPI {
		return JoJAPIBaseURL
	}
	return RapidAPIBaseURL
}

// AuthHeaders returns the authentication headers a supplier expects
func AuthHeaders(name, apiKey string) (map[string]string, error) {
	switch name {
	case config.SupplierRapidAPI:
		return map[string]string{
			"X-RapidAPI-Key":  apiKey,
			"X-RapidAPI-Host": RapidAPIHost,
		}, nil
	case config.SupplierJoJAPI:
		return map[string]string{
			"X-JoJAPI-Key": apiKey,
		}, nil
	default:
		return nil, fmt.Errorf("unknown supplier %q", name)
	}
}

// PageQuery builds the query for one follower page. An empty cursor
// requests the first page.
func PageQuery(username string, count int, cursor string) url.Values {
	if count <= 0 {
		count = DefaultPageSize
	}
	params := url.Values{}
	params.Set("username", username)
	params.Set("count", strconv.Itoa(count))
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return params
}

// IDsQuery builds the query for one detail lookup chunk
func IDsQuery(ids []string) url.Values {
	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	return params
}

// ProfileURL returns the public profile link for a screen name
func ProfileURL(screenName string) string {
	if screenName == "" {
		return ""
	}
	return "https://x.com/" + screenName
}
