// Package metrics counts what a growout run did using Prometheus metrics.
//
// Each run owns a Collector with its own registry, so runs in one process
// (tests, for instance) never share counters. At the end of a run the
// collector can be written in the node_exporter textfile format for a
// cron-driven pipeline to pick up.
//
// # Basic Usage
//
//	c := metrics.NewCollector()
//	timer := metrics.NewTimer("run")
//	c.RowsIngested(tbl.Len())
//	c.Outputs("trait-suffix", set.Len())
//	c.ObserveRun("split", timer.Stop())
//	err := c.WriteToTextfile("/var/lib/node_exporter/growout.prom")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/growout/pkg/errors"
)

const namespace = "growout"

// Collector holds the metrics of one run.
type Collector struct {
	registry     *prometheus.Registry
	rowsIngested prometheus.Counter
	cells        *prometheus.CounterVec
	rowsDropped  *prometheus.CounterVec
	outputs      *prometheus.CounterVec
	bytesWritten *prometheus.CounterVec
	snpsCut      prometheus.Counter
	runDuration  *prometheus.HistogramVec
}

// NewCollector creates a collector with a private registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		rowsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_ingested_total",
			Help:      "Data rows read from the source table",
		}),
		cells: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cells_ingested_total",
			Help:      "Value cells read from the source table by kind",
		}, []string{"kind"}),
		rowsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows left out of a growout because every value was missing",
		}, []string{"transformer"}),
		outputs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outputs_total",
			Help:      "Growout tables produced",
		}, []string{"transformer"}),
		bytesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Encoded bytes written by format",
		}, []string{"format"}),
		snpsCut: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snps_cut_total",
			Help:      "SNP columns written by the chromosome cut",
		}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a run by command",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"command"}),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RowsIngested adds n source rows.
func (c *Collector) RowsIngested(n int) {
	c.rowsIngested.Add(float64(n))
}

// CellsIngested adds source cells of one kind (number, text, missing).
func (c *Collector) CellsIngested(kind string, n int) {
	c.cells.WithLabelValues(kind).Add(float64(n))
}

// RowsDropped adds rows excluded from growouts.
func (c *Collector) RowsDropped(transformer string, n int) {
	c.rowsDropped.WithLabelValues(transformer).Add(float64(n))
}

// Outputs adds produced growout tables.
func (c *Collector) Outputs(transformer string, n int) {
	c.outputs.WithLabelValues(transformer).Add(float64(n))
}

// BytesWritten adds encoded output bytes.
func (c *Collector) BytesWritten(format string, n int64) {
	c.bytesWritten.WithLabelValues(format).Add(float64(n))
}

// SNPsCut adds SNP columns written by the chromosome cut.
func (c *Collector) SNPsCut(n int) {
	c.snpsCut.Add(float64(n))
}

// ObserveRun records the duration of a command.
func (c *Collector) ObserveRun(command string, d time.Duration) {
	c.runDuration.WithLabelValues(command).Observe(d.Seconds())
}

// WriteToTextfile writes every metric to path in the text exposition format.
func (c *Collector) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics file").
			WithDetail("path", path)
	}
	return nil
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	name  string
	start time.Time
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		name:  name,
		start: time.Now(),
	}
}

// Name returns the timer name.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed time since the timer was created.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
