package sink

import (
	"bytes"
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/growout/pkg/compression"
	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/logger"
	"github.com/ajitpratap0/growout/pkg/pool"
	"github.com/ajitpratap0/growout/pkg/transformer"
)

var contentTypes = map[Format]string{
	FormatCSV:     "text/csv",
	FormatJSON:    "application/json",
	FormatParquet: "application/vnd.apache.parquet",
	FormatAvro:    "application/avro",
}

// FileSink encodes each output and puts it in a Store.
type FileSink struct {
	store      Store
	encoder    Encoder
	compressor *compression.Compressor
	workers    int
	logger     *zap.Logger
}

// NewFileSink creates a file sink. A nil compressor writes uncompressed files.
func NewFileSink(store Store, encoder Encoder, compressor *compression.Compressor, logger *zap.Logger) *FileSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSink{
		store:      store,
		encoder:    encoder,
		compressor: compressor,
		workers:    runtime.GOMAXPROCS(0),
		logger:     logger.With(zap.String("sink", "file"), zap.String("format", string(encoder.Format()))),
	}
}

// Filename returns the name an output is stored under.
func (s *FileSink) Filename(out *transformer.Output, extension string) string {
	name := s.encoder.Filename(out.Filename, extension)
	if s.compressor != nil {
		name += s.compressor.Extension()
	}
	return name
}

// Write implements Sink. Outputs are encoded and stored concurrently; the
// summary lists them in output order.
func (s *FileSink) Write(ctx context.Context, set *transformer.OutputSet) (*Summary, error) {
	summary := &Summary{
		Location: s.store.Location(),
		Format:   string(s.encoder.Format()),
	}

	outputs := set.Outputs()
	names := make([]string, len(outputs))
	sizes := make([]int, len(outputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, out := range outputs {
		g.Go(func() error {
			octx := logger.WithGrowout(gctx, out.Name)
			if err := octx.Err(); err != nil {
				return err
			}

			buf := pool.GetBuffer()
			defer pool.PutBuffer(buf)
			if err := s.encode(buf, out); err != nil {
				return err
			}

			name := s.Filename(out, set.Extension)
			if err := s.store.Put(octx, name, buf.Bytes(), contentTypes[s.encoder.Format()]); err != nil {
				return err
			}
			names[i] = name
			sizes[i] = buf.Len()

			s.logger.Info("output written",
				logger.GrowoutField(octx),
				zap.String("file", name),
				zap.Int("rows", out.Data.Len()),
				zap.Int("bytes", buf.Len()))
			return nil
		})
	}
	err := g.Wait()

	for i := range outputs {
		if names[i] == "" {
			continue
		}
		summary.Written++
		summary.Files = append(summary.Files, names[i])
		summary.Bytes += int64(sizes[i])
	}
	return summary, err
}

// encode writes the encoded, and possibly compressed, output to buf.
func (s *FileSink) encode(buf *bytes.Buffer, out *transformer.Output) error {
	if s.compressor == nil {
		if err := s.encoder.Encode(buf, out.Name, out.Data); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "failed to encode "+out.Name)
		}
		return nil
	}

	w, err := s.compressor.Writer(buf)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to create compressor")
	}
	if err := s.encoder.Encode(w, out.Name, out.Data); err != nil {
		_ = w.Close()
		return errors.Wrap(err, errors.ErrorTypeData, "failed to encode "+out.Name)
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to compress "+out.Name)
	}
	return nil
}

// Close closes the store.
func (s *FileSink) Close() error {
	return s.store.Close()
}
