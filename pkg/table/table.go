package table

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ajitpratap0/growout/pkg/errors"
)

// Row is one record: the row key and one cell per value column.
type Row struct {
	Key   string
	Cells []Cell
}

// Table is an ordered set of named columns. Columns[0] names the row key;
// Columns[1:] name the value columns, in the same order as Row.Cells and Types.
type Table struct {
	Columns []string
	Types   []ColumnType
	Rows    []Row
}

// New creates an empty table with the given row key and value columns.
func New(key string, columns ...string) *Table {
	cols := make([]string, 0, len(columns)+1)
	cols = append(cols, key)
	cols = append(cols, columns...)
	return &Table{
		Columns: cols,
		Types:   make([]ColumnType, len(columns)),
	}
}

// KeyName returns the name of the row key column.
func (t *Table) KeyName() string {
	if len(t.Columns) == 0 {
		return ""
	}
	return t.Columns[0]
}

// ValueColumns returns the names of the value columns.
func (t *Table) ValueColumns() []string {
	if len(t.Columns) == 0 {
		return nil
	}
	return t.Columns[1:]
}

// Width returns the number of value columns.
func (t *Table) Width() int {
	return len(t.ValueColumns())
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of a value column in Row.Cells, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.ValueColumns() {
		if c == name {
			return i
		}
	}
	return -1
}

// Append adds a row, checking its width and the established column types.
func (t *Table) Append(key string, cells ...Cell) error {
	if len(cells) != t.Width() {
		return errors.Newf(errors.ErrorTypeMalformedRow,
			"row %q has %d values, expected %d", key, len(cells), t.Width())
	}
	for i, c := range cells {
		if !t.Types[i].Accepts(c) {
			return errors.TypeMismatch(c.String(), t.Types[i].String(), t.ValueColumns()[i], len(t.Rows)+2)
		}
		if t.Types[i] == Undetermined {
			t.Types[i] = typeOf(c)
		}
	}
	row := Row{Key: key, Cells: make([]Cell, len(cells))}
	copy(row.Cells, cells)
	t.Rows = append(t.Rows, row)
	return nil
}

// Find returns the indices of rows whose key equals key. Keys are unique in
// growout outputs but may repeat in a row-tag source table.
func (t *Table) Find(key string) []int {
	var idx []int
	for i, r := range t.Rows {
		if r.Key == key {
			idx = append(idx, i)
		}
	}
	return idx
}

// Value returns the cell at the first row with key in the named column.
func (t *Table) Value(key, column string) (Cell, bool) {
	col := t.Index(column)
	if col < 0 {
		return Cell{}, false
	}
	rows := t.Find(key)
	if len(rows) == 0 {
		return Cell{}, false
	}
	return t.Rows[rows[0]].Cells[col], true
}

// Stats counts cells by kind.
type Stats struct {
	Rows    int
	Columns int
	Numbers int
	Missing int
	Texts   int
}

// Stats returns cell counts for the table.
func (t *Table) Stats() Stats {
	s := Stats{Rows: len(t.Rows), Columns: t.Width()}
	for _, r := range t.Rows {
		for _, c := range r.Cells {
			switch c.Kind {
			case Number:
				s.Numbers++
			case Text:
				s.Texts++
			default:
				s.Missing++
			}
		}
	}
	return s
}

// Print writes the table as aligned text, with NA for missing cells.
func (t *Table) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(t.Columns, "\t")); err != nil {
		return err
	}
	for _, r := range t.Rows {
		fields := make([]string, 0, len(r.Cells)+1)
		fields = append(fields, r.Key)
		for _, c := range r.Cells {
			if c.IsMissing() {
				fields = append(fields, "NA")
			} else {
				fields = append(fields, c.String())
			}
		}
		if _, err := fmt.Fprintln(tw, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Column returns the cells of the named value column, or nil when the
// table has no such column.
func (t *Table) Column(name string) []Cell {
	col := t.Index(name)
	if col < 0 {
		return nil
	}
	cells := make([]Cell, len(t.Rows))
	for i, r := range t.Rows {
		cells[i] = r.Cells[col]
	}
	return cells
}

// Rekey returns a copy of the table keyed by the named value column. The
// previous key becomes the first value column, typed as text. Missing keys
// are an error.
func (t *Table) Rekey(name string) (*Table, error) {
	if name == "" || name == t.KeyName() {
		return t, nil
	}
	col := t.Index(name)
	if col < 0 {
		return nil, errors.Newf(errors.ErrorTypeConfig, "row key column %q not found", name).
			WithDetail("columns", strings.Join(t.Columns, ","))
	}

	columns := make([]string, 0, t.Width())
	columns = append(columns, t.KeyName())
	types := make([]ColumnType, 0, t.Width())
	types = append(types, TextColumn)
	for i, c := range t.ValueColumns() {
		if i == col {
			continue
		}
		columns = append(columns, c)
		types = append(types, t.Types[i])
	}

	out := New(name, columns...)
	copy(out.Types, types)
	for n, r := range t.Rows {
		key := r.Cells[col]
		if key.IsMissing() {
			return nil, errors.Newf(errors.ErrorTypeData, "row %d has no value for row key %q", n+1, name)
		}
		cells := make([]Cell, 0, len(columns))
		cells = append(cells, TextCell(r.Key))
		for i, c := range r.Cells {
			if i != col {
				cells = append(cells, c)
			}
		}
		if err := out.Append(key.String(), cells...); err != nil {
			return nil, err
		}
	}
	return out, nil
}
