// Package table holds the in-memory tabular model used by growout and the
// readers that build it from delimited text.
//
// A Table is an ordered list of named columns. The first column is the row
// key (a pedigree or line name) and is kept as an opaque string; every other
// cell is a tagged value: a Number, Missing, or Text. Numbers keep the exact
// decimal and the literal they were read from so that writing a table back
// out never introduces binary floating point round-off.
package table

import (
	"math"

	"github.com/shopspring/decimal"
)

// Kind tags the value held by a Cell.
type Kind int

const (
	// Missing marks an absent measurement (NA, NaN, empty).
	Missing Kind = iota
	// Number marks a numeric measurement.
	Number
	// Text marks any other value.
	Text
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return "missing"
	}
}

// Cell is a single typed value.
type Cell struct {
	Kind Kind
	// Num is set when Kind is Number.
	Num decimal.Decimal
	// Str is the number literal when Kind is Number and the value when Kind is Text.
	Str string
}

// MissingCell returns a missing value.
func MissingCell() Cell {
	return Cell{Kind: Missing}
}

// TextCell returns a text value.
func TextCell(s string) Cell {
	return Cell{Kind: Text, Str: s}
}

// NumberCell returns a numeric value with its source literal.
func NumberCell(d decimal.Decimal, literal string) Cell {
	if literal == "" {
		literal = d.String()
	}
	return Cell{Kind: Number, Num: d, Str: literal}
}

// ParseNumber parses a decimal literal into a Number cell.
func ParseNumber(literal string) (Cell, error) {
	d, err := decimal.NewFromString(literal)
	if err != nil {
		return Cell{}, err
	}
	return NumberCell(d, literal), nil
}

// MustNumber is ParseNumber for literals known to be valid, such as test fixtures.
func MustNumber(literal string) Cell {
	c, err := ParseNumber(literal)
	if err != nil {
		panic(err)
	}
	return c
}

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool {
	return c.Kind == Missing
}

// Float returns the numeric value, or NaN for anything that is not a Number.
func (c Cell) Float() float64 {
	if c.Kind != Number {
		return math.NaN()
	}
	f, _ := c.Num.Float64()
	return f
}

// String returns the literal form of the cell; missing cells are empty.
func (c Cell) String() string {
	if c.Kind == Missing {
		return ""
	}
	return c.Str
}

// Equal compares two cells by value. Numbers compare by exact decimal value,
// so 1.50 equals 1.5. Two missing cells are equal.
func (c Cell) Equal(o Cell) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case Number:
		return c.Num.Equal(o.Num)
	case Text:
		return c.Str == o.Str
	default:
		return true
	}
}

// ColumnType is the type established for a value column.
type ColumnType int

const (
	// Undetermined columns have held only missing values so far.
	Undetermined ColumnType = iota
	// NumberColumn columns hold numbers and missing values.
	NumberColumn
	// TextColumn columns hold text and missing values.
	TextColumn
)

func (t ColumnType) String() string {
	switch t {
	case NumberColumn:
		return "number"
	case TextColumn:
		return "text"
	default:
		return "undetermined"
	}
}

// typeOf returns the column type a non-missing cell establishes.
func typeOf(c Cell) ColumnType {
	switch c.Kind {
	case Number:
		return NumberColumn
	case Text:
		return TextColumn
	default:
		return Undetermined
	}
}

// Accepts reports whether a cell may appear in a column of this type.
// Missing cells fit every column.
func (t ColumnType) Accepts(c Cell) bool {
	if c.Kind == Missing || t == Undetermined {
		return true
	}
	return typeOf(c) == t
}
