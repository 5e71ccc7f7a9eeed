package collector

import (
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
	"xfollowers/pkg/supplier"
)

// MergeResult is the output of Merge plus what it dropped
type MergeResult struct {
	Records             []models.AccountRecord
	ProtectedDropped    int
	Duplicates          int
	MissingVerification int
}

// Merge joins paginated accounts with their details by id. Protected
// accounts are dropped and an account is kept once, at its first position,
// even when a later page repeats its id or screen name.
//
// An account without a detail, or whose detail lacks is_blue_verified, is
// kept as unverified and counted in MissingVerification. In full-profile
// mode the detail's legacy object is attached to the record.
func Merge(accounts []supplier.RawAccount, details map[string]*supplier.UserDetail, fullProfile bool, log logger.Logger) *MergeResult {
	if log == nil {
		log = logger.GetLogger()
	}

	result := &MergeResult{Records: make([]models.AccountRecord, 0, len(accounts))}
	seenIDs := make(map[string]bool, len(accounts))
	seenNames := make(map[string]bool, len(accounts))

	for _, acc := range accounts {
		if acc.Protected {
			result.ProtectedDropped++
			continue
		}
		if seenIDs[acc.ID] || seenNames[acc.ScreenName] {
			result.Duplicates++
			continue
		}
		seenIDs[acc.ID] = true
		seenNames[acc.ScreenName] = true

		detail := details[acc.ID]
		verified, err := VerificationFlag(detail)
		if err != nil {
			result.MissingVerification++
			log.WithError(err).WithField("screen_name", acc.ScreenName).Debug("Verification flag missing, treating as unverified")
		}

		record := models.AccountRecord{
			ID:             acc.ID,
			ScreenName:     acc.ScreenName,
			Name:           acc.Name,
			Description:    acc.Description,
			URL:            acc.URL,
			FollowersCount: acc.FollowersCount,
			FriendsCount:   acc.FriendsCount,
			IsBlueVerified: verified,
		}
		if fullProfile && detail != nil {
			record.Legacy = detail.Legacy
		}
		result.Records = append(result.Records, record)
	}

	return result
}

// DetailIDs returns the ids that need a detail lookup: every account that
// Merge would keep, in order, without repeats.
func DetailIDs(accounts []supplier.RawAccount) []string {
	ids := make([]string, 0, len(accounts))
	seen := make(map[string]bool, len(accounts))
	for _, acc := range accounts {
		if acc.Protected || seen[acc.ID] {
			continue
		}
		seen[acc.ID] = true
		ids = append(ids, acc.ID)
	}
	return ids
}
