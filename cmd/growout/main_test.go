package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/testutil"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "growout v"+version)
}

func TestList(t *testing.T) {
	out, err := execute(t, "", "list")
	require.NoError(t, err)
	for _, name := range []string{"trait-suffix", "phenotype", "row-tag"} {
		assert.Contains(t, out, name)
	}
}

func TestSplitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	input := "Pedigree,weight_FL06,weight_MO06\nA,299.8,NA\nB,NA,157.6\n"

	out, err := execute(t, input, "split", "-t", "csv", "-o", dir, "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "Created 2 files in "+dir+"\n", out)
	assert.FileExists(t, filepath.Join(dir, "FL_2006.csv"))
	assert.FileExists(t, filepath.Join(dir, "MO_2006.csv"))
}

func TestSplitDebugWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	input := "Pedigree,weight_FL06\nA,1\n"

	out, err := execute(t, input, "split", "-t", "trait-suffix", "-o", dir, "--debug")
	require.NoError(t, err)
	assert.Contains(t, out, "FL_2006")
	assert.Contains(t, out, "Output 1 datasets")
	assert.NoDirExists(t, dir)
}

func TestSplitWithoutTransformer(t *testing.T) {
	_, err := execute(t, "Pedigree,weight_FL06\nA,1\n", "split", "--log-level", "error")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnknownTransformer))
	assert.Contains(t, err.Error(), "no transformer was supplied")
}

func TestSplitPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgFile := testutil.WriteFile(t, dir, "run.yaml", `transformer: row-tag
output:
  format: json
  compression: gzip
`)
	t.Setenv("GROWOUT_FORMAT", "avro")

	cmd := newSplitCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", cfgFile, "--compression", "zstd", "in.csv"}))

	cfg, err := loadRunConfig(cmd, cmd.Flags().Args(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "row-tag", cfg.Transformer)
	assert.Equal(t, "avro", cfg.Output.Format)
	assert.Equal(t, "zstd", cfg.Output.Compression)
	assert.Equal(t, []string{"in.csv"}, cfg.Input.Files)
	assert.Equal(t, "output_2024_01_01_00_00_00", cfg.Output.Dir)
}

func TestLocationsCommand(t *testing.T) {
	table := testutil.WriteFile(t, t.TempDir(), "locations.csv", "Code,Name\nFL,Florida\nMO,Missouri\n")

	out, err := execute(t, "", "locations", "--table", table, "FL", "ZZ")
	require.NoError(t, err)
	assert.Equal(t, "FL\tFlorida\nZZ\tZZ\n", out)

	out, err = execute(t, "", "locations", "--table", table)
	require.NoError(t, err)
	assert.Equal(t, "FL\tFlorida\nMO\tMissouri\n", out)
}

func TestCutCommand(t *testing.T) {
	dir := t.TempDir()
	geno := testutil.WriteFile(t, dir, "x.012", "0\t1\t2\n")
	pos := testutil.WriteFile(t, dir, "x.012.pos", "1\t100\n2\t200\n")
	indv := testutil.WriteFile(t, dir, "x.012.indv", "A\n")
	outDir := filepath.Join(dir, "out")

	out, err := execute(t, "", "cut", "-g", geno, "-p", pos, "-i", indv, "-o", outDir, "-n", "zea", "--log-level", "error")
	require.NoError(t, err)
	assert.Equal(t, "Created 6 files for 2 chromosomes\n", out)

	data, err := os.ReadFile(filepath.Join(outDir, "chr2_zea.012"))
	require.NoError(t, err)
	assert.Equal(t, "2\n", string(data))
}

func TestCutRequiresInputs(t *testing.T) {
	_, err := execute(t, "", "cut", "-g", "x.012")
	assert.Error(t, err)
}
