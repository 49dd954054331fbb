package loyr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/growout/pkg/errors"
)

func fixedCodec(year int) *Codec {
	return NewCodec(WithClock(func() time.Time {
		return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	}))
}

func TestIsLocationYear(t *testing.T) {
	tests := []struct {
		code     string
		expected bool
	}{
		{"FL06", true},
		{"WR10", true},
		{"fl06", true},
		{"FLA10", false},
		{"0242", false},
		{"FLAG", false},
		{"F106", false},
		{"", false},
		{"FL6", false},
		{"ÉL06", false},
		{"FL0६", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLocationYear(tt.code))
		})
	}
}

func TestParseLocationYear(t *testing.T) {
	codec := fixedCodec(2024)

	tests := []struct {
		trait    string
		location string
		year     int
	}{
		{"FL06", "FL", 2006},
		{"weight_FL06", "FL", 2006},
		{"WR10", "WR", 2010},
		{"PU98", "PU", 1998},
		{"FLA10", "LA", 2010},
		{"FL24", "FL", 2024},
		{"FL25", "FL", 1925},
		{"FL00", "FL", 2000},
		{"FL99", "FL", 1999},
	}

	for _, tt := range tests {
		t.Run(tt.trait, func(t *testing.T) {
			g, err := codec.ParseLocationYear(tt.trait)
			require.NoError(t, err)
			assert.Equal(t, tt.location, g.Location)
			assert.Equal(t, tt.year, g.Year)
		})
	}
}

func TestParseLocationYearFailures(t *testing.T) {
	codec := fixedCodec(2024)

	for _, trait := range []string{"FLxx", "rankAvg", "F1", "", "weight_FL0a"} {
		t.Run(trait, func(t *testing.T) {
			_, err := codec.ParseLocationYear(trait)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
		})
	}
}

func TestCenturyBoundaryFollowsClock(t *testing.T) {
	for _, year := range []int{2024, 2026, 2049, 2099} {
		codec := fixedCodec(year)
		yy := year % 100

		same, err := codec.ParseLocationYear(Growout{Location: "FL", Year: yy}.Code())
		require.NoError(t, err)
		assert.Equal(t, year, same.Year)

		if yy == 99 {
			continue
		}
		next, err := codec.ParseLocationYear(Growout{Location: "FL", Year: yy + 1}.Code())
		require.NoError(t, err)
		assert.Equal(t, year-99, next.Year)
		assert.LessOrEqual(t, next.Year, codec.CurrentYear())
	}
}

func TestTraitToGrowoutFilename(t *testing.T) {
	codec := fixedCodec(2024)

	tests := []struct {
		trait    string
		expected string
	}{
		{"FL06", "FL_2006"},
		{"weight_FL06", "FL_2006"},
		{"weight_FL10", "FL_2010"},
		{"B11_lmResid_MO06", "MO_2006"},
		{"weight_PU98", "PU_1998"},
		{"rankAvg", "rankAvg"},
		{"weight_rankAvg", "rankAvg"},
		{"weight_WR10\n", "WR_2010"},
		{"Jul_11_IR_dry", "dry"},
	}

	for _, tt := range tests {
		t.Run(tt.trait, func(t *testing.T) {
			assert.Equal(t, tt.expected, codec.TraitToGrowoutFilename(tt.trait))
		})
	}
}

func TestTraitToIdentifier(t *testing.T) {
	assert.Equal(t, "FL06", TraitToIdentifier("FL06"))
	assert.Equal(t, "WR10", TraitToIdentifier("WR10\n"))
	assert.Equal(t, "PU98", TraitToIdentifier("weight_PU98\r\n"))
	assert.Equal(t, "rankAvg", TraitToIdentifier("weight_rankAvg"))
}

func TestColumnBaseName(t *testing.T) {
	assert.Equal(t, "weight", ColumnBaseName("weight_FL06"))
	assert.Equal(t, "B11_lmResid", ColumnBaseName("B11_lmResid_MO06"))
	assert.Equal(t, "Pedigree", ColumnBaseName("Pedigree"))
	assert.Equal(t, "_FL06", ColumnBaseName("_FL06"))
}

func TestColumnBaseNameToTrait(t *testing.T) {
	assert.Equal(t, "weight_FL06", ColumnBaseNameToTrait("weight", "FL_2006"))
	assert.Equal(t, "B11_lmResid_MO06", ColumnBaseNameToTrait("B11_lmResid", "MO_2006"))
	assert.Equal(t, "weight_rankAvg", ColumnBaseNameToTrait("weight", "rankAvg"))
	assert.Equal(t, "x_AB1234", ColumnBaseNameToTrait("x", "AB1234"))
}

func TestRoundTrip(t *testing.T) {
	codec := fixedCodec(2024)

	traits := []string{
		"weight_FL06",
		"weight_MO06",
		"B11_lmResid_MO06",
		"Na23_lmResid_NY10",
		"height_PU98",
		"weight_rankAvg",
		"x_AB1234",
		"Jul_11_IR_dry",
		"a__b_SA06",
	}

	for _, trait := range traits {
		t.Run(trait, func(t *testing.T) {
			got := ColumnBaseNameToTrait(ColumnBaseName(trait), codec.TraitToGrowoutFilename(trait))
			assert.Equal(t, trait, got)
		})
	}
}

func TestGrowoutFilenameToCode(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"FL_2006", "FL06"},
		{"FL_2010", "FL10"},
		{"WR_2010", "WR10"},
		{"PU_1998", "PU98"},
		{"FL_1906", "FL06"},
	}

	for _, tt := range tests {
		got, err := GrowoutFilenameToCode(tt.filename)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}

	passthrough, err := GrowoutFilenameToCode("dry")
	require.NoError(t, err)
	assert.Equal(t, "dry", passthrough)
}

func TestGrowoutFilenameToCodeRejectsSevenCharLabels(t *testing.T) {
	for _, name := range []string{"rankAvg", "FL-2006", "FL_20x6", "12_2006"} {
		_, err := GrowoutFilenameToCode(name)
		require.Error(t, err, name)
		assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
	}
}

func TestClassify(t *testing.T) {
	codec := fixedCodec(2024)

	l := codec.Classify(" NY10 ")
	assert.True(t, l.IsGrowout())
	assert.Equal(t, Growout{Location: "NY", Year: 2010}, l.Growout)
	assert.Equal(t, "NY_2010", l.Filename())
	assert.Equal(t, "growout", l.Kind.String())

	opaque := codec.Classify("rankAvg")
	assert.False(t, opaque.IsGrowout())
	assert.Equal(t, "rankAvg", opaque.Filename())
	assert.Equal(t, "opaque", opaque.Kind.String())

	assert.True(t, ClassifyFilename("SA_2006").IsGrowout())
	assert.False(t, ClassifyFilename("rankAvg").IsGrowout())
}

func TestGrowoutFormatting(t *testing.T) {
	g := Growout{Location: "PU", Year: 2009}
	assert.Equal(t, "PU_2009", g.Filename())
	assert.Equal(t, "PU09", g.Code())
	assert.Equal(t, "PU_2009", g.String())
}
