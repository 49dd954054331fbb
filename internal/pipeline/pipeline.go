// Package pipeline runs growout commands end to end: ingest the source
// table, split it with a transformer, optionally verify the split and hand
// the outputs to a sink. Each run has an id that tags its logs and spans,
// and its counts are recorded in a metrics collector.
//
// # Basic Usage
//
//	cfg := config.NewRunConfig(time.Now())
//	cfg.Transformer = "trait-suffix"
//	cfg.Input.Files = []string{"phenotypes.csv"}
//
//	p := pipeline.New(cfg, logger)
//	summary, err := p.Split(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(summary)
package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/growout/pkg/config"
	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/logger"
	"github.com/ajitpratap0/growout/pkg/loyr"
	"github.com/ajitpratap0/growout/pkg/metrics"
	"github.com/ajitpratap0/growout/pkg/observability"
	"github.com/ajitpratap0/growout/pkg/sink"
	"github.com/ajitpratap0/growout/pkg/table"
	"github.com/ajitpratap0/growout/pkg/transformer"
	"github.com/ajitpratap0/growout/pkg/vcf"
)

// Pipeline executes split and cut runs for one configuration.
type Pipeline struct {
	cfg     *config.RunConfig
	codec   *loyr.Codec
	stdin   io.Reader
	stdout  io.Writer
	metrics *metrics.Collector
	tracing *observability.Tracing
	logger  *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStdin sets the reader used when no input files are given.
func WithStdin(r io.Reader) Option {
	return func(p *Pipeline) { p.stdin = r }
}

// WithStdout sets where dry-run previews are printed.
func WithStdout(w io.Writer) Option {
	return func(p *Pipeline) { p.stdout = w }
}

// WithCodec replaces the codec built from the configuration.
func WithCodec(c *loyr.Codec) Option {
	return func(p *Pipeline) { p.codec = c }
}

// WithMetrics records run counts in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// WithTracing exports spans through t.
func WithTracing(t *observability.Tracing) Option {
	return func(p *Pipeline) { p.tracing = t }
}

// New creates a pipeline. A nil logger logs through the global logger.
func New(cfg *config.RunConfig, log *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		logger: log,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.NewCollector()
	}
	if p.tracing == nil {
		p.tracing, _ = observability.InitTracing(observability.TracingConfig{})
	}
	return p
}

// Metrics returns the collector the pipeline records into.
func (p *Pipeline) Metrics() *metrics.Collector {
	return p.metrics
}

// base returns the logger the pipeline was created with, or the global one.
func (p *Pipeline) base() *zap.Logger {
	if p.logger != nil {
		return p.logger
	}
	return logger.Get()
}

// begin tags ctx with a fresh run id and returns the run's logger.
func (p *Pipeline) begin(ctx context.Context, command string) (context.Context, *zap.Logger) {
	runID := uuid.New().String()
	ctx = context.WithValue(ctx, logger.RunIDKey, runID)

	var log *zap.Logger
	if p.logger != nil {
		log = p.logger.With(zap.String("run_id", runID))
	} else {
		log = logger.WithContext(ctx)
	}
	return ctx, log.With(zap.String("command", command))
}

func (p *Pipeline) loadCodec() (*loyr.Codec, error) {
	if p.codec != nil {
		return p.codec, nil
	}
	if p.cfg.Locations.Path == "" {
		return loyr.NewCodec(), nil
	}
	locations, err := loyr.LoadLocationsFile(p.cfg.Locations.Path)
	if err != nil {
		return nil, err
	}
	return loyr.NewCodec(loyr.WithLocations(locations)), nil
}

// Split reads the configured input, splits it by growout and writes the
// outputs. On a dry run the outputs are previewed instead of written.
func (p *Pipeline) Split(ctx context.Context) (summary *sink.Summary, err error) {
	timer := metrics.NewTimer("split")
	ctx, log := p.begin(ctx, "split")
	defer func() {
		p.finish(log, timer, err)
	}()

	codec, err := p.loadCodec()
	if err != nil {
		return nil, err
	}

	tr, err := transformer.Create(p.cfg.Transformer, transformer.Options{
		Codec:     codec,
		RowKey:    p.cfg.Input.RowKey,
		TagColumn: p.cfg.Input.TagColumn,
		Extension: p.cfg.Output.Extension,
		Logger:    p.base(),
	})
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, logger.TransformerKey, tr.Name())

	src, err := p.ingest(ctx, log)
	if err != nil {
		return nil, err
	}

	set, err := p.split(ctx, tr, src)
	if err != nil {
		return nil, err
	}

	if p.cfg.Output.Verify {
		if err := p.verify(ctx, log, tr, src, set); err != nil {
			return nil, err
		}
	}

	return p.write(ctx, log, set)
}

func (p *Pipeline) ingest(ctx context.Context, log *zap.Logger) (*table.Table, error) {
	ctx, span := p.tracing.StartSpan(ctx, "ingest",
		attribute.Int("files", len(p.cfg.Input.Files)))

	reader := table.NewReader(p.cfg.Input.Delimiter, p.stdin, log)
	src, err := reader.Read(ctx, p.cfg.Input.Files)
	if err != nil {
		span.End(err)
		return nil, err
	}

	stats := src.Stats()
	span.SetInt("rows", stats.Rows)
	span.SetInt("columns", stats.Columns)
	span.End(nil)

	p.metrics.RowsIngested(stats.Rows)
	p.metrics.CellsIngested(table.Number.String(), stats.Numbers)
	p.metrics.CellsIngested(table.Text.String(), stats.Texts)
	p.metrics.CellsIngested(table.Missing.String(), stats.Missing)
	return src, nil
}

func (p *Pipeline) split(ctx context.Context, tr transformer.Transformer, src *table.Table) (*transformer.OutputSet, error) {
	ctx, span := p.tracing.StartSpan(ctx, "split",
		attribute.String("transformer", tr.Name()))

	set, err := tr.Split(ctx, src)
	if err != nil {
		span.End(err)
		return nil, err
	}
	span.SetInt("outputs", set.Len())
	span.SetInt("rows_dropped", set.RowsDropped)
	span.End(nil)

	p.metrics.Outputs(tr.Name(), set.Len())
	p.metrics.RowsDropped(tr.Name(), set.RowsDropped)
	return set, nil
}

func (p *Pipeline) verify(ctx context.Context, log *zap.Logger, tr transformer.Transformer, src *table.Table, set *transformer.OutputSet) error {
	v, ok := tr.(transformer.Verifier)
	if !ok {
		log.Warn("transformer cannot verify its outputs", zap.String("transformer", tr.Name()))
		return nil
	}

	ctx, span := p.tracing.StartSpan(ctx, "verify")
	c, err := v.Verify(ctx, src, set)
	if err == nil && !c.Balanced() {
		err = errors.Newf(errors.ErrorTypeData,
			"split is not lossless: %d values forward, %d backward", c.Forward, c.Backward)
	}
	span.End(err)
	if err != nil {
		return err
	}

	log.Info("verified outputs", zap.Int("values", c.Forward))
	return nil
}

func (p *Pipeline) write(ctx context.Context, log *zap.Logger, set *transformer.OutputSet) (*sink.Summary, error) {
	ctx, span := p.tracing.StartSpan(ctx, "sink",
		attribute.String("format", p.cfg.Output.Format),
		attribute.Bool("dry_run", p.cfg.Output.DryRun))

	s, err := sink.New(ctx, sink.Options{
		Format:      p.cfg.Output.Format,
		Compression: p.cfg.Output.Compression,
		Location:    p.cfg.Output.Dir,
		DryRun:      p.cfg.Output.DryRun,
		Verbose:     p.cfg.Output.Verbose,
		Preview:     p.stdout,
		Store: sink.StoreOptions{
			Region:          p.cfg.Output.Region,
			CredentialsFile: p.cfg.Output.CredentialsFile,
		},
		Logger: log,
	})
	if err != nil {
		span.End(err)
		return nil, err
	}

	summary, err := s.Write(ctx, set)
	if cerr := s.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, errors.ErrorTypeConnection, "failed to close sink")
	}
	if err != nil {
		span.End(err)
		return nil, err
	}
	span.SetInt("written", summary.Written)
	span.End(nil)

	p.metrics.BytesWritten(summary.Format, summary.Bytes)
	return summary, nil
}

// Cut splits a vcftools 012 triple by chromosome.
func (p *Pipeline) Cut(ctx context.Context, opts vcf.Options) (result *vcf.Result, err error) {
	timer := metrics.NewTimer("cut")
	ctx, log := p.begin(ctx, "cut")
	defer func() {
		p.finish(log, timer, err)
	}()

	ctx, span := p.tracing.StartSpan(ctx, "cut",
		attribute.String("genotypes", opts.Genotypes),
		attribute.Bool("dry_run", opts.DryRun))
	opts.Logger = log
	result, err = vcf.Cut(ctx, opts)
	if err != nil {
		span.End(err)
		return nil, err
	}
	span.SetInt("chromosomes", len(result.Chromosomes))
	span.SetInt("snps", result.SNPs())
	span.End(nil)

	if !result.DryRun {
		p.metrics.SNPsCut(result.SNPs())
	}
	return result, nil
}

// finish records the run duration, logs resource usage and writes the
// metrics textfile when one is configured.
func (p *Pipeline) finish(log *zap.Logger, timer *metrics.Timer, err error) {
	elapsed := timer.Stop()
	p.metrics.ObserveRun(timer.Name(), elapsed)

	usage := observability.NewResourceMonitor().Usage()
	fields := append([]zap.Field{zap.Duration("elapsed", elapsed.Round(time.Millisecond))}, usage.Fields()...)
	if err != nil {
		log.Error("run failed", append(fields, zap.Error(err))...)
	} else {
		log.Info("run finished", fields...)
	}

	if path := p.cfg.Metrics.File; path != "" {
		if werr := p.metrics.WriteToTextfile(path); werr != nil {
			log.Warn("failed to write metrics", zap.String("file", path), zap.Error(werr))
		}
	}
}
