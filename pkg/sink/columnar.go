package sink

import (
	"fmt"
	"io"
	"regexp"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	json "github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/table"
)

// parquetEncoder writes one row group per table. The row key is a required
// string, number columns are nullable doubles and the rest nullable strings.
type parquetEncoder struct{}

func (parquetEncoder) Format() Format { return FormatParquet }

func (parquetEncoder) Filename(filename, extension string) string {
	return replaceExtension(filename, extension, ".parquet")
}

func arrowSchema(t *table.Table) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(t.Columns))
	fields = append(fields, arrow.Field{Name: t.KeyName(), Type: arrow.BinaryTypes.String})
	for i, col := range t.ValueColumns() {
		typ := arrow.DataType(arrow.BinaryTypes.String)
		if t.Types[i] == table.NumberColumn {
			typ = arrow.PrimitiveTypes.Float64
		}
		fields = append(fields, arrow.Field{Name: col, Type: typ, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

func (parquetEncoder) Encode(w io.Writer, _ string, t *table.Table) error {
	schema := arrowSchema(t)
	pool := memory.NewGoAllocator()

	builder := array.NewRecordBuilder(pool, schema)
	defer builder.Release()

	keys := builder.Field(0).(*array.StringBuilder)
	for _, r := range t.Rows {
		keys.Append(r.Key)
		for i, c := range r.Cells {
			switch b := builder.Field(i + 1).(type) {
			case *array.Float64Builder:
				if c.Kind == table.Number {
					b.Append(c.Float())
				} else {
					b.AppendNull()
				}
			case *array.StringBuilder:
				if c.IsMissing() {
					b.AppendNull()
				} else {
					b.Append(c.String())
				}
			default:
				return fmt.Errorf("unsupported builder type: %T", b)
			}
		}
	}

	record := builder.NewRecord()
	defer record.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(pool))

	fw, err := pqarrow.NewFileWriter(schema, nopCloser{w}, props, arrowProps)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to create parquet writer")
	}
	if err := fw.Write(record); err != nil {
		_ = fw.Close()
		return errors.Wrap(err, errors.ErrorTypeData, "failed to write parquet record")
	}
	return fw.Close()
}

// nopCloser keeps the parquet writer from closing the caller's stream.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// avroEncoder writes an object container file of records named after the
// output. Values are unions with null so missing cells survive.
type avroEncoder struct{}

func (avroEncoder) Format() Format { return FormatAvro }

func (avroEncoder) Filename(filename, extension string) string {
	return replaceExtension(filename, extension, ".avro")
}

var avroInvalid = regexp.MustCompile(`[^A-Za-z0-9_]`)

// avroName maps a column name onto the Avro name grammar.
func avroName(name string) string {
	name = avroInvalid.ReplaceAllString(name, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	return name
}

func avroSchema(name string, t *table.Table) (string, []string, error) {
	names := make([]string, len(t.Columns))
	seen := make(map[string]string, len(t.Columns))
	fields := make([]map[string]interface{}, 0, len(t.Columns))

	for i, col := range t.Columns {
		n := avroName(col)
		if prev, ok := seen[n]; ok {
			return "", nil, errors.Newf(errors.ErrorTypeData,
				"columns %q and %q have the same avro name %q", prev, col, n)
		}
		seen[n] = col
		names[i] = n

		var typ interface{} = "string"
		if i > 0 {
			typ = []interface{}{"null", "string"}
			if t.Types[i-1] == table.NumberColumn {
				typ = []interface{}{"null", "double"}
			}
		}
		fields = append(fields, map[string]interface{}{"name": n, "type": typ})
	}

	schema, err := json.Marshal(map[string]interface{}{
		"type":   "record",
		"name":   avroName(name),
		"fields": fields,
	})
	if err != nil {
		return "", nil, err
	}
	return string(schema), names, nil
}

func (avroEncoder) Encode(w io.Writer, name string, t *table.Table) error {
	schema, names, err := avroSchema(name, t)
	if err != nil {
		return err
	}

	codec, err := goavro.NewCodec(schema)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to create avro codec")
	}
	ocf, err := goavro.NewOCFWriter(goavro.OCFConfig{
		W:               w,
		Codec:           codec,
		CompressionName: goavro.CompressionNullLabel,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to create avro writer")
	}

	records := make([]interface{}, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make(map[string]interface{}, len(names))
		rec[names[0]] = r.Key
		for i, c := range r.Cells {
			switch {
			case c.IsMissing():
				rec[names[i+1]] = nil
			case t.Types[i] == table.NumberColumn:
				rec[names[i+1]] = goavro.Union("double", c.Float())
			default:
				rec[names[i+1]] = goavro.Union("string", c.String())
			}
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil
	}
	if err := ocf.Append(records); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "failed to append avro records")
	}
	return nil
}
