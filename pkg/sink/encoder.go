package sink

import (
	"encoding/csv"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/table"
)

// Encoder serializes one table.
type Encoder interface {
	// Format returns the format written.
	Format() Format
	// Filename maps the transformer's output filename to the encoded one.
	Filename(filename, extension string) string
	// Encode writes t to w. name is the output name, e.g. FL_2006.
	Encode(w io.Writer, name string, t *table.Table) error
}

// NewEncoder returns the encoder for a file format.
func NewEncoder(f Format) (Encoder, error) {
	switch f {
	case FormatCSV, "":
		return csvEncoder{}, nil
	case FormatJSON:
		return jsonEncoder{}, nil
	case FormatParquet:
		return parquetEncoder{}, nil
	case FormatAvro:
		return avroEncoder{}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "format %s does not write files", f)
	}
}

// replaceExtension swaps the transformer's extension for ext.
func replaceExtension(filename, extension, ext string) string {
	return strings.TrimSuffix(filename, extension) + ext
}

// csvEncoder writes the row key as the first column followed by the value
// columns. Numbers keep their source literal and missing cells are empty.
type csvEncoder struct{}

func (csvEncoder) Format() Format { return FormatCSV }

func (csvEncoder) Filename(filename, _ string) string { return filename }

func (csvEncoder) Encode(w io.Writer, _ string, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		record[0] = r.Key
		for i, c := range r.Cells {
			record[i+1] = c.String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonEncoder writes an array of objects with keys in column order. Missing
// cells are null.
type jsonEncoder struct{}

func (jsonEncoder) Format() Format { return FormatJSON }

func (jsonEncoder) Filename(filename, extension string) string {
	return replaceExtension(filename, extension, ".json")
}

type jsonRow struct {
	columns []string
	row     table.Row
}

func (r jsonRow) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			b.WriteByte(',')
		}
		name, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		b.Write(name)
		b.WriteByte(':')

		if i == 0 {
			key, err := json.Marshal(r.row.Key)
			if err != nil {
				return nil, err
			}
			b.Write(key)
			continue
		}

		c := r.row.Cells[i-1]
		switch c.Kind {
		case table.Number:
			b.WriteString(c.Num.String())
		case table.Text:
			v, err := json.Marshal(c.Str)
			if err != nil {
				return nil, err
			}
			b.Write(v)
		default:
			b.WriteString("null")
		}
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func (jsonEncoder) Encode(w io.Writer, _ string, t *table.Table) error {
	rows := make([]jsonRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = jsonRow{columns: t.Columns, row: r}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
