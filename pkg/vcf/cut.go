package vcf

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/growout/pkg/errors"
)

const (
	// DefaultName names the species in output files when none is given.
	DefaultName = "unnamed"

	maxLineSize = 256 * 1024 * 1024
)

// Options configures a cut.
type Options struct {
	Genotypes   string
	Positions   string
	Individuals string
	OutDir      string
	// Name is the species name used in output filenames.
	Name string
	// DryRun plans the cut and logs it without writing.
	DryRun bool
	Logger *zap.Logger
}

// Result describes a finished cut.
type Result struct {
	Chromosomes []Chromosome
	Individuals int
	// Files lists every file written.
	Files  []string
	DryRun bool
}

// SNPs returns the number of SNPs across all chromosomes.
func (r *Result) SNPs() int {
	n := 0
	for _, c := range r.Chromosomes {
		n += c.SNPs()
	}
	return n
}

// String returns the message printed at the end of a cut.
func (r *Result) String() string {
	if r.DryRun {
		return fmt.Sprintf("Planned %d chromosomes", len(r.Chromosomes))
	}
	return fmt.Sprintf("Created %d files for %d chromosomes", len(r.Files), len(r.Chromosomes))
}

// Filename returns the stem of the files written for a chromosome.
func Filename(c Chromosome, name string) string {
	return fmt.Sprintf("%s_%s.012", c.Name, name)
}

// Cut splits the genotype triple by chromosome. For each chromosome it
// writes <chr>_<name>.012 with that chromosome's calls for every individual,
// <chr>_<name>.012.pos with its positions and <chr>_<name>.012.indv, a copy
// of the individuals file. Existing files are replaced.
func Cut(ctx context.Context, opts Options) (*Result, error) {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	log := opts.Logger.With(zap.String("command", "cut"))

	chromosomes, err := planFile(opts.Positions)
	if err != nil {
		return nil, err
	}
	individuals, err := os.ReadFile(opts.Individuals)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read individuals").
			WithDetail("file", opts.Individuals)
	}

	result := &Result{
		Chromosomes: chromosomes,
		Individuals: countLines(individuals),
		DryRun:      opts.DryRun,
	}
	for _, c := range chromosomes {
		log.Debug("chromosome",
			zap.String("name", c.Name),
			zap.Int("first", c.First),
			zap.Int("last", c.Last))
	}
	if opts.DryRun {
		log.Info("planned cut",
			zap.Int("chromosomes", len(chromosomes)),
			zap.Int("snps", result.SNPs()))
		return result, nil
	}

	if err := os.MkdirAll(opts.OutDir, 0o750); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output directory").
			WithDetail("dir", opts.OutDir)
	}

	for _, c := range chromosomes {
		stem := filepath.Join(opts.OutDir, Filename(c, opts.Name))
		if err := writePositions(stem+".pos", c); err != nil {
			return nil, err
		}
		if err := os.WriteFile(stem+".indv", individuals, 0o600); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to write individuals").
				WithDetail("file", stem+".indv")
		}
		result.Files = append(result.Files, stem+".pos", stem+".indv")
	}

	files, err := cutGenotypes(ctx, opts, chromosomes)
	if err != nil {
		return nil, err
	}
	result.Files = append(result.Files, files...)

	log.Info("cut genotypes",
		zap.Int("chromosomes", len(chromosomes)),
		zap.Int("snps", result.SNPs()),
		zap.Int("individuals", result.Individuals))
	return result, nil
}

func planFile(path string) ([]Chromosome, error) {
	f, err := os.Open(path) //nolint:gosec // input files are chosen by the user
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open positions").
			WithDetail("file", path)
	}
	defer f.Close()

	chromosomes, err := Plan(f)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e.WithDetail("file", path)
		}
		return nil, err
	}
	return chromosomes, nil
}

func writePositions(path string, c Chromosome) error {
	var b strings.Builder
	for _, p := range c.Positions {
		fmt.Fprintf(&b, "%d\t%s\n", c.ID, p)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write positions").
			WithDetail("file", path)
	}
	return nil
}

type chromosomeWriter struct {
	path string
	file *os.File
	buf  *bufio.Writer
}

// cutGenotypes reads the genotype matrix once, writing each individual's
// calls to every chromosome file.
func cutGenotypes(ctx context.Context, opts Options, chromosomes []Chromosome) (files []string, err error) {
	in, err := os.Open(opts.Genotypes)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open genotypes").
			WithDetail("file", opts.Genotypes)
	}
	defer in.Close()

	writers := make([]*chromosomeWriter, 0, len(chromosomes))
	defer func() {
		for _, w := range writers {
			if cerr := w.file.Close(); cerr != nil && err == nil {
				err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close genotypes").
					WithDetail("file", w.path)
			}
		}
	}()
	for _, c := range chromosomes {
		path := filepath.Join(opts.OutDir, Filename(c, opts.Name))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // path is under the output directory
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create genotypes").
				WithDetail("file", path)
		}
		writers = append(writers, &chromosomeWriter{path: path, file: f, buf: bufio.NewWriter(f)})
	}

	last := chromosomes[len(chromosomes)-1].Last
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 1024*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNo++

		calls := splitCalls(line)
		if len(calls) <= last {
			return nil, errors.Newf(errors.ErrorTypeMalformedRow,
				"genotype line %d has %d SNPs, positions list %d", lineNo, len(calls)-1, last).
				WithDetail("file", opts.Genotypes)
		}
		for i, c := range chromosomes {
			w := writers[i].buf
			if _, err := w.WriteString(strings.Join(calls[c.First:c.Last+1], "\t")); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to write genotypes")
			}
			if err := w.WriteByte('\n'); err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to write genotypes")
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read genotypes").
			WithDetail("file", opts.Genotypes)
	}

	for _, w := range writers {
		if err := w.buf.Flush(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to write genotypes").
				WithDetail("file", w.path)
		}
		files = append(files, w.path)
	}
	return files, nil
}

func countLines(data []byte) int {
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
