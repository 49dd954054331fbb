// Package transformer reshapes a long-format source table into one table per
// growout.
//
// Two layouts are understood. In the trait-suffix layout every value column
// carries its growout in its name (weight_FL06); columns are grouped by the
// growout their suffix decodes to. In the row-tag layout a dedicated column
// holds the growout code for each row; rows are grouped by that value.
//
// Transformers are created by name through a Registry, in the same way the
// CLI selects them with -t.
package transformer

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/ajitpratap0/growout/pkg/loyr"
	"github.com/ajitpratap0/growout/pkg/table"
)

// DefaultTagColumn names the growout column of a row-tag table.
const DefaultTagColumn = "loc"

// Transformer splits a source table into per-growout tables.
type Transformer interface {
	// Name returns the registered name of the transformer.
	Name() string
	// Split partitions src. It never modifies src.
	Split(ctx context.Context, src *table.Table) (*OutputSet, error)
}

// Options configures a transformer.
type Options struct {
	// Codec resolves growout codes. Defaults to a wall-clock codec.
	Codec *loyr.Codec
	// RowKey names the column used as row key. Empty keeps the first column.
	RowKey string
	// TagColumn names the growout column for row-tag transformers.
	TagColumn string
	// Extension overrides the output filename extension, including the dot.
	Extension string
	Logger    *zap.Logger
}

func (o Options) withDefaults(extension string) Options {
	if o.Codec == nil {
		o.Codec = loyr.NewCodec()
	}
	if o.TagColumn == "" {
		o.TagColumn = DefaultTagColumn
	}
	if o.Extension == "" {
		o.Extension = extension
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Output is one growout table.
type Output struct {
	// Label is the growout (or opaque label) the table belongs to.
	Label loyr.Label
	// Name is the output name without extension, e.g. FL_2006.
	Name string
	// Filename is Name plus the transformer's extension, e.g. FL_2006.csv.
	Filename string
	// Data is keyed by the source row key.
	Data *table.Table
	// SourceRows holds, for each row of Data, the index of the source row
	// it was copied from. Row keys may repeat, so this is what ties an
	// output row back to its source.
	SourceRows []int
}

// OutputSet is the result of a split: outputs in the order their growouts
// were first seen, addressable by name.
type OutputSet struct {
	// Transformer names the transformer that produced the set.
	Transformer string
	// Extension is the filename extension of every output.
	Extension string
	// RowsDropped counts rows left out because they had no values for a growout.
	RowsDropped int

	outputs []*Output
	index   map[string]int
}

// NewOutputSet creates an empty set.
func NewOutputSet(transformer, extension string) *OutputSet {
	return &OutputSet{
		Transformer: transformer,
		Extension:   extension,
		index:       make(map[string]int),
	}
}

// Add appends an output. Adding a name twice replaces the earlier output.
func (s *OutputSet) Add(o *Output) {
	if i, ok := s.index[o.Name]; ok {
		s.outputs[i] = o
		return
	}
	s.index[o.Name] = len(s.outputs)
	s.outputs = append(s.outputs, o)
}

// Get returns the output with the given name.
func (s *OutputSet) Get(name string) (*Output, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.outputs[i], true
}

// Len returns the number of outputs.
func (s *OutputSet) Len() int {
	return len(s.outputs)
}

// Names returns the output names in ascending order.
func (s *OutputSet) Names() []string {
	names := make([]string, 0, len(s.outputs))
	for _, o := range s.outputs {
		names = append(names, o.Name)
	}
	sort.Strings(names)
	return names
}

// Outputs returns the outputs in first-seen order.
func (s *OutputSet) Outputs() []*Output {
	out := make([]*Output, len(s.outputs))
	copy(out, s.outputs)
	return out
}
