// Package sink writes split growout tables somewhere useful.
//
// A FileSink encodes every output (csv, json, parquet or avro), optionally
// compresses it and puts it in a Store: a local directory, an S3 prefix or a
// GCS prefix. A SQLSink loads every output into its own database table. A
// PreviewSink is the dry run: it describes what would be written and writes
// nothing.
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/growout/pkg/compression"
	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/transformer"
)

// Sink writes an output set.
type Sink interface {
	Write(ctx context.Context, set *transformer.OutputSet) (*Summary, error)
	Close() error
}

// Summary reports what a sink did.
type Summary struct {
	// Written is the number of datasets written, or previewed on a dry run.
	Written int
	// Location is the directory, bucket prefix or database written to.
	Location string
	DryRun   bool
	// Files lists the names written, in output order.
	Files []string
	// Bytes is the total encoded size; zero for SQL sinks and dry runs.
	Bytes  int64
	Format string
}

// String returns the message printed at the end of a run.
func (s *Summary) String() string {
	if s.DryRun {
		return fmt.Sprintf("Output %d datasets", s.Written)
	}
	return fmt.Sprintf("Created %d files in %s", s.Written, s.Location)
}

// Format names an output format.
type Format string

// Supported formats. The database formats load tables instead of writing files.
const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatParquet  Format = "parquet"
	FormatAvro     Format = "avro"
	FormatSQLite   Format = "sqlite"
	FormatPostgres Format = "postgres"
	FormatMySQL    Format = "mysql"
)

var formats = map[Format]bool{
	FormatCSV: false, FormatJSON: false, FormatParquet: false, FormatAvro: false,
	FormatSQLite: true, FormatPostgres: true, FormatMySQL: true,
}

// Formats returns every supported format name, sorted.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for f := range formats {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// ParseFormat resolves a format name. The empty string means csv.
func ParseFormat(name string) (Format, bool) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "" {
		return FormatCSV, true
	}
	_, ok := formats[f]
	return f, ok
}

// IsDatabase reports whether the format loads a database instead of writing files.
func (f Format) IsDatabase() bool {
	return formats[f]
}

// Options selects and configures a sink.
type Options struct {
	Format      string
	Compression string
	// Location is the output directory, s3:// or gs:// prefix, or the
	// database path or connection string for database formats.
	Location string
	DryRun   bool
	Verbose  bool
	// Preview receives dry-run tables.
	Preview io.Writer
	Store   StoreOptions
	Logger  *zap.Logger
}

// New creates the sink described by opts.
func New(ctx context.Context, opts Options) (Sink, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Preview == nil {
		opts.Preview = os.Stdout
	}

	f, ok := ParseFormat(opts.Format)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported output format: %s", opts.Format).
			WithDetail("available", strings.Join(Formats(), ", "))
	}
	algorithm, err := compression.ParseAlgorithm(opts.Compression)
	if err != nil {
		return nil, err
	}

	if opts.DryRun {
		return NewPreviewSink(opts.Preview, opts.Verbose, opts.Logger), nil
	}

	if f.IsDatabase() {
		if algorithm != compression.None {
			return nil, errors.Newf(errors.ErrorTypeConfig, "compression does not apply to format %s", f)
		}
		return OpenSQLSink(ctx, f, opts.Location, opts.Logger)
	}

	encoder, err := NewEncoder(f)
	if err != nil {
		return nil, err
	}

	var compressor *compression.Compressor
	if algorithm != compression.None {
		compressor, err = compression.New(compression.Config{Algorithm: algorithm})
		if err != nil {
			return nil, err
		}
	}

	opts.Store.Logger = opts.Logger
	store, err := OpenStore(ctx, opts.Location, opts.Store)
	if err != nil {
		return nil, err
	}
	return NewFileSink(store, encoder, compressor, opts.Logger), nil
}
