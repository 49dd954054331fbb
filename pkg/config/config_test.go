package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/growout/pkg/errors"
)

var start = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

func TestDefaults(t *testing.T) {
	cfg := NewRunConfig(start)

	assert.Equal(t, ",", cfg.Input.Delimiter)
	assert.Equal(t, "loc", cfg.Input.TagColumn)
	assert.Equal(t, "output_2024_01_02_03_04_05", cfg.Output.Dir)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, "none", cfg.Output.Compression)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRate)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultsKeepExplicitValues(t *testing.T) {
	cfg := &RunConfig{}
	cfg.Input.Delimiter = "\t"
	cfg.Output.Dir = "out"
	cfg.ApplyDefaults(start)

	assert.Equal(t, "\t", cfg.Input.Delimiter)
	assert.Equal(t, "out", cfg.Output.Dir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*RunConfig)
	}{
		{"empty delimiter", func(c *RunConfig) { c.Input.Delimiter = "" }},
		{"multi-char delimiter with files", func(c *RunConfig) {
			c.Input.Files = []string{"a.csv"}
			c.Input.Delimiter = "::"
		}},
		{"unknown format", func(c *RunConfig) { c.Output.Format = "xlsx" }},
		{"unknown compression", func(c *RunConfig) { c.Output.Compression = "brotli" }},
		{"compressed database", func(c *RunConfig) {
			c.Output.Format = "sqlite"
			c.Output.Compression = "gzip"
		}},
		{"bad encoding", func(c *RunConfig) { c.Logging.Encoding = "xml" }},
		{"bad sample rate", func(c *RunConfig) { c.Tracing.SampleRate = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewRunConfig(start)
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestMultiCharDelimiterOnStdin(t *testing.T) {
	cfg := NewRunConfig(start)
	cfg.Input.Delimiter = "::"
	assert.NoError(t, cfg.Validate())
}

func TestLoadSubstitutesEnv(t *testing.T) {
	t.Setenv("GROWOUT_TEST_DIR", "results")

	path := filepath.Join(t.TempDir(), "run.yaml")
	content := `transformer: row-tag
input:
  files: [a.csv, b.csv]
  tag_column: site
output:
  dir: ${GROWOUT_TEST_DIR}/${GROWOUT_TEST_UNSET}split
  compression: zstd
tracing:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := &RunConfig{}
	require.NoError(t, Load(path, cfg))
	cfg.ApplyDefaults(start)

	assert.Equal(t, "row-tag", cfg.Transformer)
	assert.Equal(t, []string{"a.csv", "b.csv"}, cfg.Input.Files)
	assert.Equal(t, "site", cfg.Input.TagColumn)
	assert.Equal(t, "results/split", cfg.Output.Dir)
	assert.Equal(t, "zstd", cfg.Output.Compression)
	assert.True(t, cfg.Tracing.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	err := Load(filepath.Join(dir, "missing.yaml"), &RunConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("input: [unclosed"), 0o600))
	err = Load(bad, &RunConfig{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := NewRunConfig(start)
	cfg.Transformer = "phenotype"
	cfg.Output.Verify = true

	require.NoError(t, Save(path, cfg))

	loaded := &RunConfig{}
	require.NoError(t, Load(path, loaded))
	assert.Equal(t, cfg, loaded)
}
