package loyr

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ajitpratap0/growout/pkg/errors"
)

// Locations is an immutable lookup table from location code to full name.
type Locations struct {
	names map[string]string
}

// EmptyLocations returns a table with no entries.
func EmptyLocations() *Locations {
	return &Locations{names: map[string]string{}}
}

// NewLocations builds a table from a code to name map. Codes are stored
// upper-cased.
func NewLocations(entries map[string]string) *Locations {
	names := make(map[string]string, len(entries))
	for code, name := range entries {
		names[strings.ToUpper(strings.TrimSpace(code))] = strings.TrimSpace(name)
	}
	return &Locations{names: names}
}

// LoadLocations reads a delimited table whose first column is the location
// code. The name is taken from the column headed "Name", or the second
// column when no such header exists.
func LoadLocations(r io.Reader) (*Locations, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return EmptyLocations(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read location table header")
	}

	nameCol := 1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "name") {
			nameCol = i
			break
		}
	}

	entries := map[string]string{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read location table")
		}
		if len(rec) <= nameCol || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		entries[rec[0]] = rec[nameCol]
	}

	return NewLocations(entries), nil
}

// LoadLocationsFile reads a location table from path.
func LoadLocationsFile(path string) (*Locations, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the user's configuration
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open location table").
			WithDetail("path", path)
	}
	defer f.Close()
	return LoadLocations(f)
}

// Lookup returns the full name for code, ignoring case.
func (l *Locations) Lookup(code string) (string, bool) {
	if l == nil {
		return "", false
	}
	name, ok := l.names[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

// Len returns the number of entries.
func (l *Locations) Len() int {
	if l == nil {
		return 0
	}
	return len(l.names)
}

// Codes returns the known codes in ascending order.
func (l *Locations) Codes() []string {
	if l == nil {
		return nil
	}
	codes := make([]string, 0, len(l.names))
	for code := range l.names {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
