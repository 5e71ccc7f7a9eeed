package supplier

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	errs "xfollowers/pkg/errors"
)

// RawAccount is one account as returned by a follower page. The fields the
// pipeline reads are decoded; everything else stays in Attributes untouched.
type RawAccount struct {
	ID             string
	ScreenName     string
	Name           string
	Description    string
	URL            string
	FollowersCount int
	FriendsCount   int
	Protected      bool

	Attributes map[string]json.RawMessage
}

type rawAccountFields struct {
	IDStr          string      `json:"id_str"`
	ID             json.Number `json:"id"`
	ScreenName     string      `json:"screen_name"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	URL            *string     `json:"url"`
	FollowersCount int         `json:"followers_count"`
	FriendsCount   int         `json:"friends_count"`
	Protected      bool        `json:"protected"`
}

// UnmarshalJSON decodes a supplier user object. id_str is preferred over the
// numeric id, which loses precision in most JSON consumers.
func (a *RawAccount) UnmarshalJSON(data []byte) error {
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(data, &attrs); err != nil {
		return errs.Malformed("account is not an object", err)
	}

	var f rawAccountFields
	if err := json.Unmarshal(data, &f); err != nil {
		return errs.Malformed("account fields have unexpected types", err)
	}

	id := f.IDStr
	if id == "" {
		id = f.ID.String()
	}
	if id == "" {
		return errs.Malformed("account has no id", nil)
	}
	if f.ScreenName == "" {
		return errs.Malformed(fmt.Sprintf("account %s has no screen_name", id), nil)
	}

	*a = RawAccount{
		ID:             id,
		ScreenName:     f.ScreenName,
		Name:           f.Name,
		Description:    f.Description,
		FollowersCount: f.FollowersCount,
		FriendsCount:   f.FriendsCount,
		Protected:      f.Protected,
		Attributes:     attrs,
	}
	if f.URL != nil {
		a.URL = *f.URL
	}
	return nil
}

// MarshalJSON writes the passthrough attributes back with the decoded fields
// on top, so a decoded account survives a round trip.
func (a RawAccount) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(a.Attributes)+8)
	for k, v := range a.Attributes {
		out[k] = v
	}
	out["id_str"] = a.ID
	out["screen_name"] = a.ScreenName
	out["name"] = a.Name
	out["description"] = a.Description
	out["url"] = a.URL
	out["followers_count"] = a.FollowersCount
	out["friends_count"] = a.FriendsCount
	out["protected"] = a.Protected
	return json.Marshal(out)
}

// FollowPage is one decoded page of a follower or following list
type FollowPage struct {
	Accounts   []RawAccount
	NextCursor string
	// Malformed holds the records that could not be decoded
	Malformed []error
}

// Last reports whether this is the final page
func (p *FollowPage) Last() bool {
	return p.NextCursor == EndCursor
}

type followPageResponse struct {
	Users         []json.RawMessage `json:"users"`
	NextCursorStr *string           `json:"next_cursor_str"`
}

// DecodeFollowPage parses a page body. A body without a next_cursor_str, or
// with an empty one, is malformed as a whole; individual bad users are
// skipped and reported.
func DecodeFollowPage(body []byte) (*FollowPage, error) {
	var resp followPageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Malformed("page is not valid JSON", err)
	}
	if resp.NextCursorStr == nil || *resp.NextCursorStr == "" {
		return nil, errs.Malformed("page has no next_cursor_str", nil)
	}

	page := &FollowPage{
		Accounts:   make([]RawAccount, 0, len(resp.Users)),
		NextCursor: *resp.NextCursorStr,
	}
	for _, raw := range resp.Users {
		var acc RawAccount
		if err := json.Unmarshal(raw, &acc); err != nil {
			page.Malformed = append(page.Malformed, err)
			continue
		}
		page.Accounts = append(page.Accounts, acc)
	}
	return page, nil
}

// UserDetail is the result object of a detail lookup
type UserDetail struct {
	RestID         string                 `json:"rest_id"`
	IsBlueVerified *bool                  `json:"is_blue_verified"`
	Legacy         map[string]interface{} `json:"legacy"`
}

type usersByIDsResponse struct {
	Data struct {
		Users []json.RawMessage `json:"users"`
	} `json:"data"`
}

// DetailBatch is one decoded UsersByRestIds body
type DetailBatch struct {
	// Details is in response order. An entry without a usable result is nil
	// so positions stay aligned with the requested ids.
	Details []*UserDetail
	// Malformed holds the entries that were dropped or only partly decoded
	Malformed []error
}

// DecodeUsersByIDs parses a detail lookup body entry by entry. Only a body
// that is not JSON at all fails as a whole.
func DecodeUsersByIDs(body []byte) (*DetailBatch, error) {
	var resp usersByIDsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Malformed("detail response is not valid JSON", err)
	}

	batch := &DetailBatch{Details: make([]*UserDetail, len(resp.Data.Users))}
	for i, raw := range resp.Data.Users {
		var entry struct {
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			batch.Malformed = append(batch.Malformed, errs.Malformed(fmt.Sprintf("detail entry %d is not an object", i), err))
			continue
		}
		if len(entry.Result) == 0 || string(entry.Result) == "null" {
			continue
		}
		detail, err := decodeDetail(entry.Result)
		if err != nil {
			batch.Malformed = append(batch.Malformed, fmt.Errorf("detail entry %d: %w", i, err))
		}
		batch.Details[i] = detail
	}
	return batch, nil
}

// decodeDetail decodes one result object. When a field has an unexpected
// type the other fields are still kept: ids and flags given as strings or
// numbers are coerced, anything else is dropped. The returned error lists
// what was touched.
func decodeDetail(raw json.RawMessage) (*UserDetail, error) {
	var d UserDetail
	if err := json.Unmarshal(raw, &d); err == nil {
		return &d, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errs.Malformed("detail result is not an object", err)
	}

	d = UserDetail{}
	var touched []string
	if v, ok := fields["rest_id"]; ok {
		id, exact, ok := looseString(v)
		d.RestID = id
		touched = note(touched, "rest_id", exact, ok)
	}
	if v, ok := fields["is_blue_verified"]; ok {
		flag, exact, ok := looseBool(v)
		if ok {
			d.IsBlueVerified = &flag
		}
		touched = note(touched, "is_blue_verified", exact, ok)
	}
	if v, ok := fields["legacy"]; ok {
		if err := json.Unmarshal(v, &d.Legacy); err != nil {
			d.Legacy = nil
			touched = append(touched, "legacy dropped")
		}
	}
	return &d, errs.Malformed(fmt.Sprintf("detail %q has mistyped fields: %s", d.RestID, strings.Join(touched, ", ")), nil)
}

func note(touched []string, field string, exact, ok bool) []string {
	switch {
	case !ok:
		return append(touched, field+" dropped")
	case !exact:
		return append(touched, field+" coerced")
	}
	return touched
}

// looseString accepts a JSON string or number
func looseString(v json.RawMessage) (value string, exact, ok bool) {
	if err := json.Unmarshal(v, &value); err == nil {
		return value, true, true
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), false, true
	}
	return "", false, false
}

// looseBool accepts a JSON bool or a string strconv.ParseBool understands
func looseBool(v json.RawMessage) (value, exact, ok bool) {
	if err := json.Unmarshal(v, &value); err == nil {
		return value, true, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, false, true
		}
	}
	return false, false, false
}

// UserLookupResponse is the body of UserByScreenName
type UserLookupResponse struct {
	Data struct {
		User struct {
			Result *struct {
				RestID string `json:"rest_id"`
			} `json:"result"`
		} `json:"user"`
	} `json:"data"`
}
