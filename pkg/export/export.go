package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"xfollowers/pkg/models"
)

// Columns is the stable column set of an export file
var Columns = []string{
	"id",
	"name",
	"screen_name",
	"description",
	"url",
	"followers_count",
	"friends_count",
	"is_blue_verified",
	"x_link",
}

// ProfileColumns are appended in full-profile mode, read from the legacy
// profile object of each account.
var ProfileColumns = []string{
	"location",
	"created_at",
	"statuses_count",
	"favourites_count",
	"listed_count",
	"media_count",
	"profile_image_url_https",
}

// Writer writes account records as delimited text
type Writer struct {
	delimiter   rune
	fullProfile bool
}

// NewWriter returns a writer using delimiter, which must be a single
// character. fullProfile adds ProfileColumns.
func NewWriter(delimiter string, fullProfile bool) (*Writer, error) {
	if delimiter == "" {
		delimiter = ","
	}
	r, size := utf8.DecodeRuneInString(delimiter)
	if size != len(delimiter) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return nil, fmt.Errorf("invalid delimiter %q", delimiter)
	}
	return &Writer{delimiter: r, fullProfile: fullProfile}, nil
}

// Header returns the columns this writer emits
func (w *Writer) Header() []string {
	if !w.fullProfile {
		return Columns
	}
	header := make([]string, 0, len(Columns)+len(ProfileColumns))
	header = append(header, Columns...)
	return append(header, ProfileColumns...)
}

// Write emits the header followed by one row per record
func (w *Writer) Write(out io.Writer, records []models.AccountRecord) error {
	cw := csv.NewWriter(out)
	cw.Comma = w.delimiter

	if err := cw.Write(w.Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(w.row(r)); err != nil {
			return fmt.Errorf("failed to write %s: %w", r.ScreenName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w *Writer) row(r models.AccountRecord) []string {
	row := []string{
		r.ID,
		r.Name,
		r.ScreenName,
		r.Description,
		r.URL,
		strconv.Itoa(r.FollowersCount),
		strconv.Itoa(r.FriendsCount),
		strconv.FormatBool(r.IsBlueVerified),
		r.XLink,
	}
	if w.fullProfile {
		for _, col := range ProfileColumns {
			row = append(row, legacyValue(r.Legacy, col))
		}
	}
	return row
}

func legacyValue(legacy map[string]interface{}, key string) string {
	v, ok := legacy[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
