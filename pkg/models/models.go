package models

import (
	"fmt"
	"strings"
)

// AccountRecord is one cleaned follower or following account
type AccountRecord struct {
	ID             string `json:"id"`
	ScreenName     string `json:"screen_name"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	URL            string `json:"url"`
	FollowersCount int    `json:"followers_count"`
	FriendsCount   int    `json:"friends_count"`
	IsBlueVerified bool   `json:"is_blue_verified"`
	XLink          string `json:"x_link,omitempty"`

	Legacy map[string]interface{} `json:"legacy,omitempty"`
}

type VerificationType string

const (
	TypeAll         VerificationType = "all"
	TypeVerified    VerificationType = "verified"
	TypeNonVerified VerificationType = "nonverified"
)

func ParseVerificationType(s string) (VerificationType, error) {
	switch VerificationType(strings.ToLower(s)) {
	case "", TypeAll:
		return TypeAll, nil
	case TypeVerified:
		return TypeVerified, nil
	case TypeNonVerified:
		return TypeNonVerified, nil
	default:
		return "", fmt.Errorf("unknown type %q (want all, verified or nonverified)", s)
	}
}

// Keep reports whether a record passes the filter
func (t VerificationType) Keep(r AccountRecord) bool {
	switch t {
	case TypeVerified:
		return r.IsBlueVerified
	case TypeNonVerified:
		return !r.IsBlueVerified
	default:
		return true
	}
}

// FilterByType returns the records matching t, preserving order
func FilterByType(records []AccountRecord, t VerificationType) []AccountRecord {
	out := make([]AccountRecord, 0, len(records))
	for _, r := range records {
		if t.Keep(r) {
			out = append(out, r)
		}
	}
	return out
}
