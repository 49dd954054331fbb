package loyr

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const locationsCSV = `Code,Name
FL,Florida
MO,Missouri
PU,Purdue
ny,New York
`

func TestLoadLocations(t *testing.T) {
	l, err := LoadLocations(strings.NewReader(locationsCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, l.Len())
	assert.Equal(t, []string{"FL", "MO", "NY", "PU"}, l.Codes())

	name, ok := l.Lookup("fl")
	assert.True(t, ok)
	assert.Equal(t, "Florida", name)

	_, ok = l.Lookup("ZZ")
	assert.False(t, ok)
}

func TestLoadLocationsNameColumn(t *testing.T) {
	l, err := LoadLocations(strings.NewReader("Code,Region,Name\nSA,South,South Africa\n"))
	require.NoError(t, err)

	name, ok := l.Lookup("SA")
	require.True(t, ok)
	assert.Equal(t, "South Africa", name)
}

func TestLoadLocationsEmpty(t *testing.T) {
	l, err := LoadLocations(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
}

func TestLoadLocationsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.csv")
	require.NoError(t, os.WriteFile(path, []byte(locationsCSV), 0o600))

	l, err := LoadLocationsFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, l.Len())

	_, err = LoadLocationsFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestExpandLocation(t *testing.T) {
	l, err := LoadLocations(strings.NewReader(locationsCSV))
	require.NoError(t, err)

	codec := NewCodec(WithLocations(l))
	assert.Equal(t, "Florida", codec.ExpandLocation("FL"))
	assert.Equal(t, "Purdue", codec.ExpandLocation("PU"))
	assert.Equal(t, "XX", codec.ExpandLocation("XX"))

	bare := NewCodec()
	assert.Equal(t, "FL", bare.ExpandLocation("FL"))
}
