package exclusion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"xfollowers/pkg/models"
	"xfollowers/pkg/storage"
	"xfollowers/pkg/supplier"
)

// Header is the single column of the exclusion file
const Header = "Handle"

// Set is an insertion-ordered set of screen names. It only grows.
type Set struct {
	order []string
	index map[string]struct{}
}

// NewSet returns a set holding handles, duplicates dropped
func NewSet(handles ...string) *Set {
	s := &Set{index: make(map[string]struct{}, len(handles))}
	for _, h := range handles {
		s.Add(h)
	}
	return s
}

// Add inserts handle and reports whether it was new. Empty handles are ignored.
func (s *Set) Add(handle string) bool {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return false
	}
	if _, ok := s.index[handle]; ok {
		return false
	}
	s.index[handle] = struct{}{}
	s.order = append(s.order, handle)
	return true
}

func (s *Set) Contains(handle string) bool {
	_, ok := s.index[handle]
	return ok
}

func (s *Set) Len() int {
	return len(s.order)
}

// Handles returns the members in insertion order
func (s *Set) Handles() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Set) Clone() *Set {
	return NewSet(s.order...)
}

// Partition splits records into those not yet seen, in input order, and
// returns seen extended with every record's screen name. seen is not modified.
func Partition(records []models.AccountRecord, seen *Set) ([]models.AccountRecord, *Set) {
	if seen == nil {
		seen = NewSet()
	}
	updated := seen.Clone()
	fresh := make([]models.AccountRecord, 0, len(records))
	for _, r := range records {
		if !seen.Contains(r.ScreenName) {
			fresh = append(fresh, r)
		}
		updated.Add(r.ScreenName)
	}
	return fresh, updated
}

// WithProfileLinks fills XLink from each record's screen name
func WithProfileLinks(records []models.AccountRecord) []models.AccountRecord {
	for i := range records {
		records[i].XLink = supplier.ProfileURL(records[i].ScreenName)
	}
	return records
}

// Load reads an exclusion file. A missing file is an empty set.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewSet(), nil
		}
		return nil, fmt.Errorf("failed to open exclusion file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses exclusion CSV content. The column is located by its header.
func Read(r io.Reader) (*Set, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return NewSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read exclusion header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) == Header {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("exclusion file has no %q column", Header)
	}

	set := NewSet()
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read exclusion row: %w", err)
		}
		if col < len(row) {
			set.Add(row[col])
		}
	}
	return set, nil
}

// Write emits the set as CSV with the Handle header
func Write(w io.Writer, set *Set) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{Header}); err != nil {
		return err
	}
	for _, h := range set.order {
		if err := cw.Write([]string{h}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Save atomically replaces the exclusion file with set
func Save(path string, set *Set) error {
	return storage.WriteAtomic(path, func(w io.Writer) error {
		return Write(w, set)
	})
}
