package table

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ajitpratap0/growout/pkg/errors"
)

const (
	// DefaultDelimiter separates fields when none is configured.
	DefaultDelimiter = ","

	// StdinName is how standard input is named in logs and errors, and the
	// file argument that selects it explicitly.
	StdinName = "-"

	maxLineSize = 64 * 1024 * 1024
)

var (
	numberPattern  = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	missingPattern = regexp.MustCompile(`(?i)^nan?$`)

	// missingMarkers are the strings a delimited file uses for an absent value.
	missingMarkers = map[string]struct{}{
		"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
		"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
		"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
	}
)

// Reader builds a Table from standard input or from a list of files.
type Reader struct {
	delimiter string
	stdin     io.Reader
	logger    *zap.Logger
}

// NewReader creates a reader. An empty delimiter means DefaultDelimiter.
func NewReader(delimiter string, stdin io.Reader, logger *zap.Logger) *Reader {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	if stdin == nil {
		stdin = os.Stdin
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		delimiter: delimiter,
		stdin:     stdin,
		logger:    logger,
	}
}

// Read reads standard input when files is empty, otherwise every file in
// order. It fails with an empty-input error when no data rows are produced.
func (r *Reader) Read(ctx context.Context, files []string) (*Table, error) {
	var (
		t   *Table
		err error
	)
	source := StdinName
	if len(files) == 0 {
		t, err = r.ReadStream(r.stdin)
	} else {
		source = strings.Join(files, ", ")
		t, err = r.ReadFiles(ctx, files)
	}
	if err != nil {
		return nil, err
	}
	if t == nil || t.Len() == 0 {
		return nil, errors.EmptyInput(source)
	}
	return t, nil
}

// ReadStream parses line-oriented delimited text: a header line, then data
// lines whose trimmed cells are classified as numbers (-?digits[.digits]),
// missing (NA or NaN, any case) or text. The first data row fixes the type of
// every column, a missing value counting as a number. A later value of the
// other type is a type mismatch, which usually means a stray header or
// comment line in the data.
func (r *Reader) ReadStream(src io.Reader) (*Table, error) {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var t *Table
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := splitTrim(line, r.delimiter)
		if t == nil {
			t = New(fields[0], fields[1:]...)
			continue
		}

		if len(fields) != len(t.Columns) {
			return nil, errors.Newf(errors.ErrorTypeMalformedRow,
				"line %d has %d fields, header has %d", lineNo, len(fields), len(t.Columns)).
				WithDetail("line", lineNo)
		}

		first := t.Len() == 0
		cells := make([]Cell, len(fields)-1)
		for i, v := range fields[1:] {
			c := classifyStream(v)
			if first {
				t.Types[i] = streamType(c)
			} else if streamType(c) != t.Types[i] {
				return nil, errors.TypeMismatch(v, t.Types[i].String(), t.Columns[i+1], lineNo)
			}
			cells[i] = c
		}
		if err := t.Append(fields[0], cells...); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read standard input")
	}

	if t != nil {
		r.logger.Info("read standard input",
			zap.Int("rows", t.Len()),
			zap.Int("columns", t.Width()))
	}
	return t, nil
}

func splitTrim(line, delimiter string) []string {
	fields := strings.Split(line, delimiter)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// streamType is the column type a cell implies on standard input, where a
// missing value is a number.
func streamType(c Cell) ColumnType {
	if c.Kind == Text {
		return TextColumn
	}
	return NumberColumn
}

func classifyStream(v string) Cell {
	switch {
	case missingPattern.MatchString(v):
		return MissingCell()
	case numberPattern.MatchString(v):
		if c, err := ParseNumber(v); err == nil {
			return c
		}
	}
	return TextCell(v)
}

// ReadFiles parses each file as a delimited table with a header row and
// concatenates them row-wise. Columns are the union of every file's columns
// in first-seen order; a file lacking a column contributes missing cells.
// The row key is the first column of the first file and every file must
// carry it. A value column is numeric when every non-missing value in it,
// across all files, is a decimal literal.
func (r *Reader) ReadFiles(ctx context.Context, files []string) (*Table, error) {
	delim, size := utf8.DecodeRuneInString(r.delimiter)
	if size != len(r.delimiter) {
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"delimiter %q must be a single character when reading files", r.delimiter)
	}

	var (
		keyName string
		columns []string
		colIdx  = map[string]int{}
		keys    []string
		raw     [][]string // raw[row][value column]
	)

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		header, records, err := r.readDelimited(name, delim)
		if err != nil {
			return nil, err
		}
		if header == nil {
			r.logger.Warn("skipping empty file", zap.String("file", name))
			continue
		}

		if keyName == "" {
			keyName = header[0]
		}
		keyPos := -1
		for i, h := range header {
			if h == keyName {
				keyPos = i
				break
			}
		}
		if keyPos < 0 {
			return nil, errors.Newf(errors.ErrorTypeMalformedRow,
				"file %s has no %q column", name, keyName).WithDetail("file", name)
		}

		// position in header -> value column index
		mapping := make([]int, len(header))
		for i, h := range header {
			if i == keyPos {
				mapping[i] = -1
				continue
			}
			idx, ok := colIdx[h]
			if !ok {
				idx = len(columns)
				colIdx[h] = idx
				columns = append(columns, h)
			}
			mapping[i] = idx
		}

		for n, rec := range records {
			if len(rec) > len(header) {
				return nil, errors.Newf(errors.ErrorTypeMalformedRow,
					"%s line %d has %d fields, header has %d", name, n+2, len(rec), len(header)).
					WithDetail("file", name)
			}
			values := make([]string, len(columns))
			key := ""
			for i, v := range rec {
				v = strings.TrimSpace(v)
				if mapping[i] < 0 {
					key = v
					continue
				}
				values[mapping[i]] = v
			}
			keys = append(keys, key)
			raw = append(raw, values)
		}

		r.logger.Info("read file",
			zap.String("file", name),
			zap.Int("rows", len(records)),
			zap.Int("columns", len(header)))
	}

	if keyName == "" {
		return nil, nil
	}

	t := New(keyName, columns...)
	numeric := make([]bool, len(columns))
	for c := range columns {
		numeric[c] = true
		for _, values := range raw {
			v := valueAt(values, c)
			if isMissingMarker(v) {
				continue
			}
			if _, err := ParseNumber(v); err != nil {
				numeric[c] = false
				break
			}
		}
	}

	for i, values := range raw {
		cells := make([]Cell, len(columns))
		for c := range columns {
			v := valueAt(values, c)
			switch {
			case isMissingMarker(v):
				cells[c] = MissingCell()
			case numeric[c]:
				cells[c] = MustNumber(v)
			default:
				cells[c] = TextCell(v)
			}
		}
		if err := t.Append(keys[i], cells...); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// valueAt tolerates rows read before later files widened the column set.
func valueAt(values []string, c int) string {
	if c < len(values) {
		return values[c]
	}
	return ""
}

func isMissingMarker(v string) bool {
	_, ok := missingMarkers[v]
	return ok
}

func (r *Reader) readDelimited(name string, delim rune) ([]string, [][]string, error) {
	var src io.Reader
	if name == StdinName {
		src = r.stdin
	} else {
		f, err := os.Open(name) //nolint:gosec // input files are chosen by the user
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input file").
				WithDetail("file", name)
		}
		defer f.Close()
		src = f
	}

	cr := csv.NewReader(src)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read header").
			WithDetail("file", name)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read records").
			WithDetail("file", name)
	}
	return header, records, nil
}
