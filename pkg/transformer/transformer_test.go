package transformer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/loyr"
	"github.com/ajitpratap0/growout/pkg/table"
	"github.com/ajitpratap0/growout/pkg/testutil"
)

func fixedCodec() *loyr.Codec {
	return loyr.NewCodec(loyr.WithClock(testutil.FixedClock(2024)))
}

func readTable(t *testing.T, input string) *table.Table {
	t.Helper()
	r := table.NewReader(",", strings.NewReader(input), zaptest.NewLogger(t))
	tbl, err := r.Read(context.Background(), nil)
	require.NoError(t, err)
	return tbl
}

func options(t *testing.T) Options {
	return Options{Codec: fixedCodec(), Logger: zaptest.NewLogger(t)}
}

const longFormat = `Pedigree,weight_FL06,weight_MO06,B11_lmResid_FL06,B11_lmResid_MO06,weight_rankAvg
282set_33-16,299.8285,NA,-5.43,NA,12
282set_38-11,NA,157.62175,NA,1.7,NA
282set_4226,NA,NA,NA,NA,3
282set_4722,155.593625,130.501625,-5.54,3.8,NA
`

func TestTraitSuffixScenario(t *testing.T) {
	src := readTable(t, "Pedigree,weight_FL06,weight_MO06\nA,299.8,NA\nB,NA,157.6\n")

	tr := NewTraitSuffix(TraitSuffixName, options(t))
	set, err := tr.Split(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, []string{"FL_2006", "MO_2006"}, set.Names())

	fl, ok := set.Get("FL_2006")
	require.True(t, ok)
	assert.Equal(t, "FL_2006.csv", fl.Filename)
	assert.Equal(t, []string{"Pedigree", "weight"}, fl.Data.Columns)
	require.Equal(t, 1, fl.Data.Len())
	assert.Equal(t, "A", fl.Data.Rows[0].Key)
	assert.Equal(t, "299.8", fl.Data.Rows[0].Cells[0].String())

	mo, ok := set.Get("MO_2006")
	require.True(t, ok)
	require.Equal(t, 1, mo.Data.Len())
	assert.Equal(t, "B", mo.Data.Rows[0].Key)
	assert.Equal(t, "157.6", mo.Data.Rows[0].Cells[0].String())

	assert.Equal(t, 2, set.RowsDropped)
}

func TestTraitSuffixLogsPreviousCentury(t *testing.T) {
	log, logs := testutil.ObservedLogger(zapcore.DebugLevel)
	src := readTable(t, "Pedigree,weight_PU98,weight_FL06\nA,1,2\n")

	tr := NewTraitSuffix(TraitSuffixName, Options{Codec: fixedCodec(), Logger: log})
	set, err := tr.Split(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"FL_2006", "PU_1998"}, set.Names())

	entries := logs.FilterMessage("growout code resolved to the previous century").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "PU98", entries[0].ContextMap()["identifier"])
	assert.Equal(t, int64(1998), entries[0].ContextMap()["year"])
}

func TestTraitSuffixMissingRowExclusion(t *testing.T) {
	src := readTable(t, longFormat)

	set, err := NewTraitSuffix(TraitSuffixName, options(t)).Split(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"FL_2006", "MO_2006", "rankAvg"}, set.Names())

	fl, _ := set.Get("FL_2006")
	assert.Equal(t, []string{"Pedigree", "weight", "B11_lmResid"}, fl.Data.Columns)
	assert.Empty(t, fl.Data.Find("282set_38-11"))
	assert.Empty(t, fl.Data.Find("282set_4226"))
	assert.Len(t, fl.Data.Find("282set_33-16"), 1)

	mo, _ := set.Get("MO_2006")
	assert.Empty(t, mo.Data.Find("282set_33-16"))
	v, ok := mo.Data.Value("282set_38-11", "weight")
	require.True(t, ok)
	assert.Equal(t, "157.62175", v.String())

	rank, _ := set.Get("rankAvg")
	assert.Equal(t, []string{"Pedigree", "weight"}, rank.Data.Columns)
	assert.Equal(t, 2, rank.Data.Len())
	assert.Equal(t, loyr.KindOpaque, rank.Label.Kind)

	// a retained row keeps its missing cells as missing
	v, ok = fl.Data.Value("282set_33-16", "B11_lmResid")
	require.True(t, ok)
	assert.Equal(t, "-5.43", v.String())
	mixed := readTable(t, "Pedigree,a_FL06,b_FL06\nA,1,NA\n")
	set, err = NewTraitSuffix(TraitSuffixName, options(t)).Split(context.Background(), mixed)
	require.NoError(t, err)
	out, _ := set.Get("FL_2006")
	v, ok = out.Data.Value("A", "b")
	require.True(t, ok)
	assert.True(t, v.IsMissing())
}

func TestTraitSuffixConservation(t *testing.T) {
	src := readTable(t, longFormat)
	tr := NewTraitSuffix(TraitSuffixName, options(t))

	set, err := tr.Split(context.Background(), src)
	require.NoError(t, err)

	c, err := tr.Verify(context.Background(), src, set)
	require.NoError(t, err)
	assert.True(t, c.Balanced())
	assert.Equal(t, src.Stats().Numbers, c.Forward)
}

func TestTraitSuffixVerifyDetectsLoss(t *testing.T) {
	src := readTable(t, longFormat)
	tr := NewTraitSuffix(TraitSuffixName, options(t))

	set, err := tr.Split(context.Background(), src)
	require.NoError(t, err)
	fl, _ := set.Get("FL_2006")
	fl.Data.Rows[0].Cells[0] = table.MustNumber("1")

	_, err = tr.Verify(context.Background(), src, set)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestTraitSuffixDuplicateBaseName(t *testing.T) {
	src := table.New("Pedigree", "weight_FL06", "weight_FL06")
	require.NoError(t, src.Append("A", table.MustNumber("1"), table.MustNumber("2")))

	_, err := NewTraitSuffix(TraitSuffixName, options(t)).Split(context.Background(), src)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCardinality))
}

func TestGroupColumnsCardinality(t *testing.T) {
	codec := fixedCodec()

	// two identifiers reaching one filename
	_, err := groupColumns([]string{"a_X", "b_Y"}, func(col string) (loyr.Label, string) {
		return codec.Classify("FL06"), loyr.TraitToIdentifier(col)
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCardinality))

	// one identifier reaching two filenames
	calls := 0
	_, err = groupColumns([]string{"a_FL06", "b_FL06"}, func(col string) (loyr.Label, string) {
		calls++
		if calls == 1 {
			return codec.Classify("FL06"), "FL06"
		}
		return codec.Classify("MO06"), "FL06"
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCardinality))

	groups, err := groupColumns([]string{"a_MO06", "a_FL06", "b_MO06"}, func(col string) (loyr.Label, string) {
		return codec.TraitLabel(col), loyr.TraitToIdentifier(col)
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "MO_2006", groups[0].label.Filename())
	assert.Equal(t, []int{0, 2}, groups[0].columns)
	assert.Equal(t, []int{1}, groups[1].columns)
}

func TestTraitSuffixExactMembership(t *testing.T) {
	// FL06 is a substring of LFL06 but the columns belong to different growouts
	src := readTable(t, "Pedigree,w_FL06,w_LFL06\nA,1,2\n")

	set, err := NewTraitSuffix(TraitSuffixName, options(t)).Split(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"FL_2006", "LFL06"}, set.Names())

	fl, _ := set.Get("FL_2006")
	assert.Equal(t, []string{"Pedigree", "w"}, fl.Data.Columns)
}

func TestTraitSuffixRowKeyOverride(t *testing.T) {
	src := readTable(t, "id,Pedigree,weight_FL06\n1,A,2\n2,B,NA\n")

	opts := options(t)
	opts.RowKey = "Pedigree"
	set, err := NewTraitSuffix(TraitSuffixName, opts).Split(context.Background(), src)
	require.NoError(t, err)

	// the displaced key column is an identifier, not a trait
	assert.Equal(t, []string{"FL_2006"}, set.Names())

	fl, ok := set.Get("FL_2006")
	require.True(t, ok)
	assert.Equal(t, "Pedigree", fl.Data.KeyName())
	assert.Equal(t, []string{"Pedigree", "weight"}, fl.Data.Columns)
	assert.Equal(t, 1, fl.Data.Len())
	assert.Equal(t, 1, set.RowsDropped)

	c, err := NewTraitSuffix(TraitSuffixName, opts).Verify(context.Background(), src, set)
	require.NoError(t, err)
	assert.True(t, c.Balanced())
	assert.Equal(t, 1, c.Forward)
}

func TestTraitSuffixVerifyRepeatedKeys(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		testutil.WriteFile(t, dir, "a.csv", "Pedigree,weight_FL06\nA,1.5\n"),
		testutil.WriteFile(t, dir, "b.csv", "Pedigree,weight_MO07\nA,2.5\n"),
	}
	src, err := table.NewReader(",", nil, zaptest.NewLogger(t)).ReadFiles(context.Background(), files)
	require.NoError(t, err)
	require.Equal(t, 2, src.Len())

	tr := NewTraitSuffix(TraitSuffixName, options(t))
	set, err := tr.Split(context.Background(), src)
	require.NoError(t, err)

	mo, ok := set.Get("MO_2007")
	require.True(t, ok)
	assert.Equal(t, []int{1}, mo.SourceRows)

	c, err := tr.Verify(context.Background(), src, set)
	require.NoError(t, err)
	assert.True(t, c.Balanced())
	assert.Equal(t, 2, c.Forward)
}

func TestTraitSuffixCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := readTable(t, longFormat)
	_, err := NewTraitSuffix(TraitSuffixName, options(t)).Split(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}

const rowTagFormat = `Pedigree,loc,weight,height
A,FL06,1.5,NA
B,FL06,NA,NA
A,MO10,2,3
C,PU98,4,NA
`

func TestRowTagSplit(t *testing.T) {
	src := readTable(t, rowTagFormat)

	set, err := NewRowTag(RowTagName, options(t)).Split(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"FL_2006", "MO_2010", "PU_1998"}, set.Names())

	fl, _ := set.Get("FL_2006")
	assert.Equal(t, "FL_2006.csv", fl.Filename)
	assert.Equal(t, []string{"Pedigree", "weight", "height"}, fl.Data.Columns)
	// rows are never dropped
	assert.Equal(t, 2, fl.Data.Len())
	assert.Equal(t, 0, set.RowsDropped)

	pu, _ := set.Get("PU_1998")
	assert.Equal(t, loyr.Growout{Location: "PU", Year: 1998}, pu.Label.Growout)
}

func TestRowTagConservation(t *testing.T) {
	src := readTable(t, rowTagFormat)
	tr := NewRowTag(RowTagName, options(t))

	set, err := tr.Split(context.Background(), src)
	require.NoError(t, err)

	c, err := tr.Verify(context.Background(), src, set)
	require.NoError(t, err)
	assert.True(t, c.Balanced())
	assert.Equal(t, 4, c.Forward)
}

func TestRowTagErrors(t *testing.T) {
	opts := options(t)
	opts.TagColumn = "site"
	_, err := NewRowTag(RowTagName, opts).Split(context.Background(), readTable(t, rowTagFormat))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	missing := readTable(t, "Pedigree,loc,w\nA,NA,1\n")
	_, err = NewRowTag(RowTagName, options(t)).Split(context.Background(), missing)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestRowTagCustomColumn(t *testing.T) {
	src := readTable(t, "Pedigree,site,w\nA,NY10,1\n")

	opts := options(t)
	opts.TagColumn = "site"
	set, err := NewRowTag(RowTagName, opts).Split(context.Background(), src)
	require.NoError(t, err)

	ny, ok := set.Get("NY_2010")
	require.True(t, ok)
	assert.Equal(t, []string{"Pedigree", "w"}, ny.Data.Columns)
}

func TestOutputSet(t *testing.T) {
	set := NewOutputSet("x", ".csv")
	set.Add(&Output{Name: "MO_2006"})
	set.Add(&Output{Name: "FL_2006"})
	set.Add(&Output{Name: "MO_2006", Filename: "replaced"})

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"FL_2006", "MO_2006"}, set.Names())
	outs := set.Outputs()
	assert.Equal(t, "MO_2006", outs[0].Name)
	assert.Equal(t, "replaced", outs[0].Filename)

	_, ok := set.Get("NY_2010")
	assert.False(t, ok)
}
