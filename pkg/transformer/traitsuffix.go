package transformer

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/growout/pkg/errors"
	"github.com/ajitpratap0/growout/pkg/logger"
	"github.com/ajitpratap0/growout/pkg/loyr"
	"github.com/ajitpratap0/growout/pkg/table"
)

// Registered transformer names.
const (
	TraitSuffixName = "trait-suffix"
	PhenotypeName   = "phenotype"
	RowTagName      = "row-tag"
)

// TraitSuffix groups value columns by the growout encoded in their names.
type TraitSuffix struct {
	name string
	opts Options
}

func newTraitSuffixFactory(name string) Factory {
	return func(opts Options) (Transformer, error) {
		return NewTraitSuffix(name, opts), nil
	}
}

// NewTraitSuffix creates a trait-suffix transformer. Unset options take
// their defaults, with a .csv extension.
func NewTraitSuffix(name string, opts Options) *TraitSuffix {
	return &TraitSuffix{
		name: name,
		opts: opts.withDefaults(".csv"),
	}
}

// Name implements Transformer.
func (t *TraitSuffix) Name() string {
	return t.name
}

// columnGroup is the set of source columns that feed one output.
type columnGroup struct {
	label      loyr.Label
	identifier string
	columns    []int
}

// groupColumns derives the (filename, identifier) pair of every column and
// groups columns by filename, in first-seen order. A filename reached from
// two identifiers, or an identifier reaching two filenames, is a cardinality
// error.
func groupColumns(columns []string, derive func(column string) (loyr.Label, string)) ([]*columnGroup, error) {
	var groups []*columnGroup
	byFilename := make(map[string]*columnGroup)
	filenameOf := make(map[string]string)

	for i, col := range columns {
		label, identifier := derive(col)
		filename := label.Filename()

		if prev, ok := filenameOf[identifier]; ok && prev != filename {
			return nil, errors.Cardinality(identifier, prev, filename).
				WithDetail("column", col)
		}
		filenameOf[identifier] = filename

		g, ok := byFilename[filename]
		if !ok {
			g = &columnGroup{label: label, identifier: identifier}
			byFilename[filename] = g
			groups = append(groups, g)
		} else if g.identifier != identifier {
			return nil, errors.Cardinality(filename, g.identifier, identifier).
				WithDetail("column", col)
		}
		g.columns = append(g.columns, i)
	}
	return groups, nil
}

// rekey applies the row key override. It returns the number of leading
// value columns that are not traits: the displaced key column, if any.
func (t *TraitSuffix) rekey(src *table.Table) (*table.Table, int, error) {
	skip := 0
	if t.opts.RowKey != "" && t.opts.RowKey != src.KeyName() {
		skip = 1
	}
	src, err := src.Rekey(t.opts.RowKey)
	if err != nil {
		return nil, 0, err
	}
	return src, skip, nil
}

// Split implements Transformer.
func (t *TraitSuffix) Split(ctx context.Context, src *table.Table) (*OutputSet, error) {
	src, skip, err := t.rekey(src)
	if err != nil {
		return nil, err
	}

	log := t.opts.Logger.With(zap.String("transformer", t.name))
	if runID, ok := ctx.Value(logger.RunIDKey).(string); ok {
		log = log.With(zap.String("run_id", runID))
	}

	codec := t.opts.Codec
	groups, err := groupColumns(src.ValueColumns()[skip:], func(col string) (loyr.Label, string) {
		return codec.TraitLabel(col), loyr.TraitToIdentifier(col)
	})
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		for j := range g.columns {
			g.columns[j] += skip
		}
	}

	set := NewOutputSet(t.name, t.opts.Extension)
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if g.label.IsGrowout() && g.label.Growout.Year < 2000 {
			log.Debug("growout code resolved to the previous century",
				zap.String("identifier", g.identifier),
				zap.Int("year", g.label.Growout.Year))
		}

		out, rows, err := t.project(src, g)
		if err != nil {
			return nil, err
		}
		dropped := src.Len() - len(rows)
		set.RowsDropped += dropped

		name := g.label.Filename()
		set.Add(&Output{
			Label:      g.label,
			Name:       name,
			Filename:   name + t.opts.Extension,
			Data:       out,
			SourceRows: rows,
		})

		log.Info("growout split",
			zap.String("growout", name),
			zap.Int("columns", out.Width()),
			zap.Int("rows", out.Len()),
			zap.Int("rows_dropped", dropped))
	}
	return set, nil
}

// project copies the group's columns into a new table, renamed to their
// base names, leaving out rows that are missing in every group column. It
// returns the source index of every retained row.
func (t *TraitSuffix) project(src *table.Table, g *columnGroup) (*table.Table, []int, error) {
	names := make([]string, len(g.columns))
	seen := make(map[string]string, len(g.columns))
	valueColumns := src.ValueColumns()
	for j, col := range g.columns {
		trait := valueColumns[col]
		base := loyr.ColumnBaseName(trait)
		if prev, ok := seen[base]; ok {
			return nil, nil, errors.Cardinality(base, prev, trait).
				WithDetail("growout", g.label.Filename())
		}
		seen[base] = trait
		names[j] = base
	}

	out := table.New(src.KeyName(), names...)
	for j, col := range g.columns {
		out.Types[j] = src.Types[col]
	}

	var rows []int
	for n, row := range src.Rows {
		cells := make([]table.Cell, len(g.columns))
		empty := true
		for j, col := range g.columns {
			cells[j] = row.Cells[col]
			if !cells[j].IsMissing() {
				empty = false
			}
		}
		if empty {
			continue
		}
		if err := out.Append(row.Key, cells...); err != nil {
			return nil, nil, err
		}
		rows = append(rows, n)
	}
	return out, rows, nil
}
