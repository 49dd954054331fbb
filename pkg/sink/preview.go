package sink

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ajitpratap0/growout/pkg/transformer"
)

// PreviewSink is the dry run. It writes nothing; when verbose it prints
// every output table to w.
type PreviewSink struct {
	w       io.Writer
	verbose bool
	logger  *zap.Logger
}

// NewPreviewSink creates a dry-run sink.
func NewPreviewSink(w io.Writer, verbose bool, logger *zap.Logger) *PreviewSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewSink{w: w, verbose: verbose, logger: logger.With(zap.String("sink", "preview"))}
}

// Write implements Sink.
func (s *PreviewSink) Write(ctx context.Context, set *transformer.OutputSet) (*Summary, error) {
	summary := &Summary{DryRun: true}
	for _, out := range set.Outputs() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if s.verbose {
			if _, err := fmt.Fprintf(s.w, "%s (%d rows)\n", out.Filename, out.Data.Len()); err != nil {
				return summary, err
			}
			if err := out.Data.Print(s.w); err != nil {
				return summary, err
			}
			if _, err := fmt.Fprintln(s.w); err != nil {
				return summary, err
			}
		}
		summary.Written++
		summary.Files = append(summary.Files, out.Filename)
		s.logger.Debug("output previewed", zap.String("growout", out.Name), zap.Int("rows", out.Data.Len()))
	}
	return summary, nil
}

// Close implements Sink.
func (s *PreviewSink) Close() error { return nil }
