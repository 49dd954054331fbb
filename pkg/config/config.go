package config

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ajitpratap0/growout/pkg/compression"
	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/sink"
	"github.com/ajitpratap0/growout/pkg/transformer"
)

// OutputDirLayout is the time layout of the default output directory name.
const OutputDirLayout = "2006_01_02_15_04_05"

// RunConfig is the configuration of a split or cut run. Every section can
// be given in a YAML file; the CLI overlays flags and GROWOUT_* variables.
type RunConfig struct {
	// Transformer selects the splitting strategy (see `growout list`)
	Transformer string `yaml:"transformer" json:"transformer"`

	Input     InputConfig     `yaml:"input" json:"input"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Locations LocationsConfig `yaml:"locations" json:"locations"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing" json:"tracing"`
}

// InputConfig describes where rows come from.
type InputConfig struct {
	// Files are read in order; none means standard input
	Files     []string `yaml:"files" json:"files"`
	Delimiter string   `yaml:"delimiter" json:"delimiter"`
	// RowKey overrides the first column as the row key
	RowKey string `yaml:"row_key" json:"row_key"`
	// TagColumn names the growout column for row-tag transformers
	TagColumn string `yaml:"tag_column" json:"tag_column"`
}

// OutputConfig describes where and how outputs are written.
type OutputConfig struct {
	// Dir is a directory, an s3:// or gs:// prefix, or a database DSN
	Dir         string `yaml:"dir" json:"dir"`
	Format      string `yaml:"format" json:"format"`
	Compression string `yaml:"compression" json:"compression"`
	// Extension overrides the transformer's file extension
	Extension string `yaml:"extension" json:"extension"`
	DryRun    bool   `yaml:"dry_run" json:"dry_run"`
	Verbose   bool   `yaml:"verbose" json:"verbose"`
	// Verify checks that every value survived the split before writing
	Verify bool `yaml:"verify" json:"verify"`

	Region          string `yaml:"region" json:"region"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
}

// LocationsConfig points at the location code lookup table.
type LocationsConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Encoding    string `yaml:"encoding" json:"encoding"`
	Development bool   `yaml:"development" json:"development"`
}

// MetricsConfig controls the Prometheus textfile written after a run.
type MetricsConfig struct {
	File string `yaml:"file" json:"file"`
}

// TracingConfig controls span export.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewRunConfig returns a configuration with defaults applied. The output
// directory is named after now.
func NewRunConfig(now time.Time) *RunConfig {
	cfg := &RunConfig{}
	cfg.ApplyDefaults(now)
	return cfg
}

// DefaultOutputDir returns the directory a run started at now writes to.
func DefaultOutputDir(now time.Time) string {
	return "output_" + now.Format(OutputDirLayout)
}

// ApplyDefaults fills every unset field.
func (c *RunConfig) ApplyDefaults(now time.Time) {
	if c.Input.Delimiter == "" {
		c.Input.Delimiter = ","
	}
	if c.Input.TagColumn == "" {
		c.Input.TagColumn = transformer.DefaultTagColumn
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir(now)
	}
	if c.Output.Format == "" {
		c.Output.Format = string(sink.FormatCSV)
	}
	if c.Output.Compression == "" {
		c.Output.Compression = string(compression.None)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "console"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
}

// Validate checks the configuration. The transformer name is resolved later
// against the registry so that the error can list what is available.
func (c *RunConfig) Validate() error {
	if c.Input.Delimiter == "" {
		return errors.New(errors.ErrorTypeConfig, "delimiter is required")
	}
	if len(c.Input.Files) > 0 && utf8.RuneCountInString(c.Input.Delimiter) != 1 {
		return errors.Newf(errors.ErrorTypeConfig,
			"delimiter %q must be a single character when reading files", c.Input.Delimiter)
	}

	f, ok := sink.ParseFormat(c.Output.Format)
	if !ok {
		return errors.Newf(errors.ErrorTypeConfig, "unsupported output format: %s", c.Output.Format).
			WithDetail("available", strings.Join(sink.Formats(), ", "))
	}
	algorithm, err := compression.ParseAlgorithm(c.Output.Compression)
	if err != nil {
		return err
	}
	if f.IsDatabase() && algorithm != compression.None {
		return errors.Newf(errors.ErrorTypeConfig, "compression does not apply to format %s", f)
	}
	if f.IsDatabase() && c.Output.Dir == "" {
		return errors.Newf(errors.ErrorTypeConfig, "format %s needs a database path or DSN as output", f)
	}

	switch c.Logging.Encoding {
	case "", "console", "json":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported log encoding: %s", c.Logging.Encoding)
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return errors.Newf(errors.ErrorTypeConfig, "tracing sample rate %g is outside [0, 1]", c.Tracing.SampleRate)
	}
	return nil
}
