package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/growout/internal/pipeline"
	"github.com/ajitpratap0/growout/pkg/logger"
	"github.com/ajitpratap0/growout/pkg/observability"
)

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [FILE...]",
		Short: "Split a phenotype table into one table per growout",
		Long: `Split a phenotype table into one table per growout.

Rows are read from the given files, or from standard input when no file is
given. The transformer decides how growouts are recognised:

  trait-suffix  columns end in a location-year code (weight_FL06)
  phenotype     as trait-suffix, writing .ph.csv files
  row-tag       a column (loc) holds the growout of each row

Example:
  growout split -t trait-suffix -o results phenotypes.csv
  cat phenotypes.csv | growout split -t csv --format parquet --compression zstd`,
		RunE: runSplit,
	}

	f := cmd.Flags()
	f.StringP("transformer", "t", "", "Transformer to split with (see `growout list`)")
	f.StringP("outdir", "o", "", "Output directory, s3:// or gs:// prefix, or database DSN (default output_<timestamp>)")
	f.StringP("delimiter", "d", ",", "Field delimiter")
	f.String("format", "csv", "Output format: csv, json, parquet, avro, sqlite, postgres, mysql")
	f.String("compression", "none", "Output compression: none, gzip, zstd, snappy, s2, lz4, deflate")
	f.String("extension", "", "Override the transformer's file extension")
	f.String("row-key", "", "Column to use as row key (default first column)")
	f.String("tag-column", "loc", "Growout column for the row-tag transformer")
	f.String("locations", "", "CSV table of location codes and names")
	f.Bool("dry-run", false, "Preview outputs without writing")
	f.Bool("debug", false, "Enable --verbose and debug logging, and disable writes")
	f.BoolP("verbose", "v", false, "Print each output table")
	f.Bool("verify", false, "Check that every value survives the split before writing")
	f.String("config", "", "YAML run configuration file")
	f.String("metrics-file", "", "Write Prometheus metrics to this file after the run")
	f.Bool("trace", false, "Export trace spans to stderr")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-encoding", "console", "Log encoding (console, json)")
	f.String("region", "", "AWS region for s3:// outputs")
	f.String("credentials-file", "", "Google credentials file for gs:// outputs")

	return cmd
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, args, time.Now())
	if err != nil {
		return err
	}
	if err := initLogger(cfg.Logging); err != nil {
		return err
	}

	tracing, err := observability.InitTracing(observability.TracingConfig{
		Enabled:        cfg.Tracing.Enabled,
		ServiceVersion: version,
		SamplingRate:   cfg.Tracing.SampleRate,
		Writer:         cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := tracing.Shutdown(cmd.Context()); err != nil {
			logger.Warn("failed to flush spans", zap.Error(err))
		}
	}()

	p := pipeline.New(cfg, nil,
		pipeline.WithStdin(cmd.InOrStdin()),
		pipeline.WithStdout(cmd.OutOrStdout()),
		pipeline.WithTracing(tracing))

	summary, err := p.Split(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary)
	return nil
}
