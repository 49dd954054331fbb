package transformer

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/logger"
	"github.com/ajitpratap0/growout/pkg/loyr"
	"github.com/ajitpratap0/growout/pkg/table"
)

// RowTag groups rows by the growout code held in a tag column. Every other
// column is kept and no row is dropped.
type RowTag struct {
	name string
	opts Options
}

func newRowTagFactory(name string) Factory {
	return func(opts Options) (Transformer, error) {
		return NewRowTag(name, opts), nil
	}
}

// NewRowTag creates a row-tag transformer.
func NewRowTag(name string, opts Options) *RowTag {
	return &RowTag{
		name: name,
		opts: opts.withDefaults(".csv"),
	}
}

// Name implements Transformer.
func (t *RowTag) Name() string {
	return t.name
}

// Split implements Transformer.
func (t *RowTag) Split(ctx context.Context, src *table.Table) (*OutputSet, error) {
	src, err := src.Rekey(t.opts.RowKey)
	if err != nil {
		return nil, err
	}

	log := t.opts.Logger.With(zap.String("transformer", t.name))
	if runID, ok := ctx.Value(logger.RunIDKey).(string); ok {
		log = log.With(zap.String("run_id", runID))
	}

	tag := src.Index(t.opts.TagColumn)
	if tag < 0 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "tag column %q not found", t.opts.TagColumn).
			WithDetail("transformer", t.name)
	}

	columns := make([]string, 0, src.Width()-1)
	var keep []int
	for i, c := range src.ValueColumns() {
		if i == tag {
			continue
		}
		columns = append(columns, c)
		keep = append(keep, i)
	}

	type bucket struct {
		tag   string
		label loyr.Label
		data  *table.Table
		rows  []int
	}
	var order []*bucket
	byFilename := make(map[string]*bucket)

	for n, row := range src.Rows {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		cell := row.Cells[tag]
		if cell.IsMissing() {
			return nil, errors.Newf(errors.ErrorTypeData, "row %q has no value in tag column %q", row.Key, t.opts.TagColumn)
		}
		value := cell.String()
		label := t.opts.Codec.TraitLabel(value)
		filename := label.Filename()

		b, ok := byFilename[filename]
		if !ok {
			b = &bucket{tag: value, label: label, data: table.New(src.KeyName(), columns...)}
			for j, col := range keep {
				b.data.Types[j] = src.Types[col]
			}
			byFilename[filename] = b
			order = append(order, b)
		} else if b.tag != value {
			return nil, errors.Cardinality(filename, b.tag, value)
		}

		cells := make([]table.Cell, len(keep))
		for j, col := range keep {
			cells[j] = row.Cells[col]
		}
		if err := b.data.Append(row.Key, cells...); err != nil {
			return nil, err
		}
		b.rows = append(b.rows, n)
	}

	set := NewOutputSet(t.name, t.opts.Extension)
	for _, b := range order {
		name := b.label.Filename()
		set.Add(&Output{
			Label:      b.label,
			Name:       name,
			Filename:   name + t.opts.Extension,
			Data:       b.data,
			SourceRows: b.rows,
		})
		log.Info("growout split",
			zap.String("growout", name),
			zap.String("tag", b.tag),
			zap.Int("rows", b.data.Len()))
	}
	return set, nil
}
