// Package compression wraps output files in a compressed stream.
//
// The supported algorithms are gzip, zstd, snappy, s2, lz4 and deflate.
// Each has a conventional filename extension that the sink appends to the
// output name, so FL_2006.csv written with zstd becomes FL_2006.csv.zst.
//
// # Usage
//
//	c, err := compression.New(compression.Config{Algorithm: compression.Zstd})
//	w, err := c.Writer(file)
//	// write the encoded table to w
//	err = w.Close()
package compression

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/growout/pkg/errors"
)

// Algorithm names a compression algorithm.
type Algorithm string

const (
	// None writes output uncompressed
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
	// Deflate represents raw deflate compression
	Deflate Algorithm = "deflate"
)

var extensions = map[Algorithm]string{
	None:    "",
	Gzip:    ".gz",
	Snappy:  ".sz",
	LZ4:     ".lz4",
	Zstd:    ".zst",
	S2:      ".s2",
	Deflate: ".deflate",
}

// Algorithms returns every supported algorithm name, sorted.
func Algorithms() []string {
	names := make([]string, 0, len(extensions))
	for a := range extensions {
		names = append(names, string(a))
	}
	sort.Strings(names)
	return names
}

// ParseAlgorithm resolves an algorithm name. The empty string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(name)))
	if a == "" {
		return None, nil
	}
	if _, ok := extensions[a]; !ok {
		return "", errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", name).
			WithDetail("available", strings.Join(Algorithms(), ", "))
	}
	return a, nil
}

// Extension returns the filename extension for the algorithm, including the
// dot, or "" for None.
func (a Algorithm) Extension() string {
	return extensions[a]
}

// Level trades compression speed against ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

// Config selects an algorithm and level.
type Config struct {
	Algorithm Algorithm
	Level     Level
}

// Compressor creates compressing writers and decompressing readers for one
// algorithm. It is safe for concurrent use.
type Compressor struct {
	algorithm Algorithm
	level     Level
}

// New creates a compressor. A zero Level means Default.
func New(cfg Config) (*Compressor, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = None
	}
	if _, ok := extensions[cfg.Algorithm]; !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", cfg.Algorithm)
	}
	if cfg.Level == 0 {
		cfg.Level = Default
	}
	return &Compressor{algorithm: cfg.Algorithm, level: cfg.Level}, nil
}

// Algorithm returns the compression algorithm used.
func (c *Compressor) Algorithm() Algorithm {
	return c.algorithm
}

// Level returns the compression level configured.
func (c *Compressor) Level() Level {
	return c.level
}

// Extension returns the filename extension of the algorithm.
func (c *Compressor) Extension() string {
	return c.algorithm.Extension()
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Writer wraps dst so that writes are compressed. Closing the returned
// writer flushes the stream but does not close dst.
func (c *Compressor) Writer(dst io.Writer) (io.WriteCloser, error) {
	switch c.algorithm {
	case Gzip:
		return gzip.NewWriterLevel(dst, mapGzipLevel(c.level))
	case Snappy:
		return snappy.NewBufferedWriter(dst), nil
	case LZ4:
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(mapLZ4Level(c.level))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid lz4 level")
		}
		return w, nil
	case Zstd:
		return zstd.NewWriter(dst, zstd.WithEncoderLevel(mapZstdLevel(c.level)))
	case S2:
		return s2.NewWriter(dst), nil
	case Deflate:
		return flate.NewWriter(dst, mapDeflateLevel(c.level))
	default:
		return nopWriteCloser{dst}, nil
	}
}

// Reader wraps src so that reads are decompressed.
func (c *Compressor) Reader(src io.Reader) (io.ReadCloser, error) {
	switch c.algorithm {
	case Gzip:
		return gzip.NewReader(src)
	case Snappy:
		return io.NopCloser(snappy.NewReader(src)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(src)), nil
	case Zstd:
		d, err := zstd.NewReader(src)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case S2:
		return io.NopCloser(s2.NewReader(src)), nil
	case Deflate:
		return flate.NewReader(src), nil
	default:
		return io.NopCloser(src), nil
	}
}

// Compress compresses data in memory.
func (c *Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.Writer(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decompresses data in memory.
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	r, err := c.Reader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapDeflateLevel(level Level) int {
	switch level {
	case Fastest:
		return flate.BestSpeed
	case Best:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}
