package transformer

import (
	"context"

	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/loyr"
	"github.com/ajitpratap0/growout/pkg/table"
)

// Conservation counts the non-missing cells matched in each direction when
// an output set is checked against its source. A lossless split matches the
// same number of cells both ways.
type Conservation struct {
	Forward  int
	Backward int
}

// Balanced reports whether both directions matched the same number of cells.
func (c Conservation) Balanced() bool {
	return c.Forward == c.Backward
}

// Verifier checks an output set against the table it was split from.
type Verifier interface {
	Verify(ctx context.Context, src *table.Table, set *OutputSet) (Conservation, error)
}

func lost(direction, key, column string) error {
	return errors.Newf(errors.ErrorTypeData, "%s: value of %q in column %q has no match", direction, key, column)
}

// Verify walks every non-missing source cell to its output cell and every
// output cell back to its source, failing on the first value that does not
// match. Rows are paired through Output.SourceRows, so repeated row keys
// are compared row by row.
func (t *TraitSuffix) Verify(ctx context.Context, src *table.Table, set *OutputSet) (Conservation, error) {
	var c Conservation
	src, skip, err := t.rekey(src)
	if err != nil {
		return c, err
	}

	// source row index -> output row index, per output
	positions := make(map[string]map[int]int, set.Len())
	for _, out := range set.Outputs() {
		if len(out.SourceRows) != out.Data.Len() {
			return c, errors.Newf(errors.ErrorTypeData,
				"output %s has %d rows but %d source rows", out.Name, out.Data.Len(), len(out.SourceRows))
		}
		pos := make(map[int]int, len(out.SourceRows))
		for k, n := range out.SourceRows {
			if n < 0 || n >= src.Len() {
				return c, lost("outputs to source", out.Data.Rows[k].Key, out.Name)
			}
			pos[n] = k
		}
		positions[out.Name] = pos
	}

	traits := src.ValueColumns()
	for n, row := range src.Rows {
		if err := ctx.Err(); err != nil {
			return c, err
		}
		for i := skip; i < len(row.Cells); i++ {
			cell := row.Cells[i]
			if cell.IsMissing() {
				continue
			}
			trait := traits[i]
			name := t.opts.Codec.TraitToGrowoutFilename(trait)
			out, ok := set.Get(name)
			if !ok {
				return c, lost("source to outputs", row.Key, trait)
			}
			k, ok := positions[name][n]
			col := out.Data.Index(loyr.ColumnBaseName(trait))
			if !ok || col < 0 || !out.Data.Rows[k].Cells[col].Equal(cell) {
				return c, lost("source to outputs", row.Key, trait)
			}
			c.Forward++
		}
	}

	for _, out := range set.Outputs() {
		bases := out.Data.ValueColumns()
		for k, row := range out.Data.Rows {
			srcRow := src.Rows[out.SourceRows[k]]
			for i, cell := range row.Cells {
				if cell.IsMissing() {
					continue
				}
				trait := loyr.ColumnBaseNameToTrait(bases[i], out.Name)
				if src.Index(trait) < 0 && bases[i] == out.Name {
					// a column without an underscore is its own base name
					trait = bases[i]
				}
				col := src.Index(trait)
				if col < 0 || srcRow.Key != row.Key || !srcRow.Cells[col].Equal(cell) {
					return c, lost("outputs to source", row.Key, trait)
				}
				c.Backward++
			}
		}
	}
	return c, nil
}

// Verify pairs the n-th source row of each tag with the n-th row of its
// output and compares every non-missing cell in both directions.
func (t *RowTag) Verify(ctx context.Context, src *table.Table, set *OutputSet) (Conservation, error) {
	var c Conservation
	src, err := src.Rekey(t.opts.RowKey)
	if err != nil {
		return c, err
	}
	tag := src.Index(t.opts.TagColumn)
	if tag < 0 {
		return c, errors.Newf(errors.ErrorTypeConfig, "tag column %q not found", t.opts.TagColumn)
	}

	columns := src.ValueColumns()
	sourceRows := make(map[string][]int)
	for n, row := range src.Rows {
		if err := ctx.Err(); err != nil {
			return c, err
		}
		name := t.opts.Codec.TraitToGrowoutFilename(row.Cells[tag].String())
		out, ok := set.Get(name)
		k := len(sourceRows[name])
		sourceRows[name] = append(sourceRows[name], n)
		if !ok || k >= out.Data.Len() || out.Data.Rows[k].Key != row.Key {
			return c, lost("source to outputs", row.Key, columns[tag])
		}
		for i, cell := range row.Cells {
			if i == tag || cell.IsMissing() {
				continue
			}
			col := out.Data.Index(columns[i])
			if col < 0 || !out.Data.Rows[k].Cells[col].Equal(cell) {
				return c, lost("source to outputs", row.Key, columns[i])
			}
			c.Forward++
		}
	}

	for _, out := range set.Outputs() {
		rows := sourceRows[out.Name]
		outColumns := out.Data.ValueColumns()
		for k, row := range out.Data.Rows {
			if k >= len(rows) {
				return c, lost("outputs to source", row.Key, t.opts.TagColumn)
			}
			srcRow := src.Rows[rows[k]]
			for i, cell := range row.Cells {
				if cell.IsMissing() {
					continue
				}
				col := src.Index(outColumns[i])
				if col < 0 || srcRow.Key != row.Key || !srcRow.Cells[col].Equal(cell) {
					return c, lost("outputs to source", row.Key, outColumns[i])
				}
				c.Backward++
			}
		}
	}
	return c, nil
}
