// Package loyr converts between compact location-year trait codes and
// canonical growouts.
//
// A trait column in the long format is named <measurement>_<LOC><YY>, for
// example weight_FL06. The trailing four characters are a LOYR code: a two
// letter location and a two digit year. Each LOYR code names a growout whose
// canonical filename is <LOC>_<YYYY> (FL_2006).
//
// Two-digit years are resolved against the codec's clock: 20YY is chosen
// unless it lies in the future, in which case 19YY is used. The resolved year
// is therefore never greater than the current calendar year.
//
// Segments that are not LOYR shaped (a pooled trait such as rankAvg) are
// opaque labels: they pass through the filename mapping unchanged. Callers
// that need to branch on the two cases use Classify, which returns a typed
// Label rather than relying on string shape.
package loyr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/growout/pkg/errors"
)

// Growout is a location and four-digit year.
type Growout struct {
	Location string
	Year     int
}

// Filename returns the canonical growout filename, e.g. FL_2006.
func (g Growout) Filename() string {
	return fmt.Sprintf("%s_%04d", g.Location, g.Year)
}

// Code returns the compact LOYR code, e.g. FL06.
func (g Growout) Code() string {
	return fmt.Sprintf("%s%02d", g.Location, g.Year%100)
}

func (g Growout) String() string {
	return g.Filename()
}

// Kind distinguishes growout labels from opaque ones.
type Kind int

const (
	// KindOpaque is a label that does not encode a growout.
	KindOpaque Kind = iota
	// KindGrowout is a label that decodes to a Growout.
	KindGrowout
)

func (k Kind) String() string {
	if k == KindGrowout {
		return "growout"
	}
	return "opaque"
}

// Label is the result of classifying a trait suffix or an output filename.
// Growout is only meaningful when Kind is KindGrowout.
type Label struct {
	Kind    Kind
	Text    string
	Growout Growout
}

// IsGrowout reports whether the label decodes to a growout.
func (l Label) IsGrowout() bool {
	return l.Kind == KindGrowout
}

// Filename returns the output filename for the label: the canonical growout
// filename or, for opaque labels, the text itself.
func (l Label) Filename() string {
	if l.IsGrowout() {
		return l.Growout.Filename()
	}
	return l.Text
}

// Codec resolves LOYR codes. The zero value is not usable; use NewCodec.
type Codec struct {
	now       func() time.Time
	locations *Locations
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock sets the clock used for century inference.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocations sets the lookup table used by ExpandLocation.
func WithLocations(l *Locations) Option {
	return func(c *Codec) {
		c.locations = l
	}
}

// NewCodec creates a codec using the wall clock and an empty location table.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		now:       time.Now,
		locations: EmptyLocations(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.locations == nil {
		c.locations = EmptyLocations()
	}
	return c
}

// CurrentYear returns the calendar year used as the century pivot.
func (c *Codec) CurrentYear() int {
	return c.now().Year()
}

// Locations returns the codec's lookup table.
func (c *Codec) Locations() *Locations {
	return c.locations
}

// ExpandLocation returns the full name for a location code, or the code
// itself when the table has no entry for it.
func (c *Codec) ExpandLocation(code string) string {
	if name, ok := c.locations.Lookup(code); ok {
		return name
	}
	return code
}

// IsLocationYear reports whether code is exactly two ASCII letters followed
// by two ASCII digits.
func IsLocationYear(code string) bool {
	if len(code) != 4 {
		return false
	}
	return isLetter(code[0]) && isLetter(code[1]) && isDigit(code[2]) && isDigit(code[3])
}

// ParseLocationYear decodes the last four characters of trait into a growout.
// It fails with a format error when those characters are not LOYR shaped.
func (c *Codec) ParseLocationYear(trait string) (Growout, error) {
	if len(trait) < 4 {
		return Growout{}, errors.Format(trait, "shorter than a location-year code")
	}
	code := trait[len(trait)-4:]
	if !IsLocationYear(code) {
		return Growout{}, errors.Format(trait, "suffix "+strconv.Quote(code)+" is not a location-year code")
	}

	yy, err := strconv.Atoi(code[2:])
	if err != nil {
		return Growout{}, errors.Format(trait, "year suffix is not numeric")
	}

	return Growout{Location: code[:2], Year: c.resolveYear(yy)}, nil
}

// resolveYear picks 20YY unless it is later than the current year.
func (c *Codec) resolveYear(yy int) int {
	year := 2000 + yy
	if year > c.CurrentYear() {
		year -= 100
	}
	return year
}

// Classify decodes a trait suffix into a growout label, or an opaque label
// holding the trimmed segment.
func (c *Codec) Classify(segment string) Label {
	segment = strings.TrimSpace(segment)
	if IsLocationYear(segment) {
		g, err := c.ParseLocationYear(segment)
		if err == nil {
			return Label{Kind: KindGrowout, Text: segment, Growout: g}
		}
	}
	return Label{Kind: KindOpaque, Text: segment}
}

// TraitToGrowoutFilename returns the output filename for a trait: the
// canonical LOC_YYYY form when the trait ends in a LOYR code, otherwise the
// trimmed segment after the last underscore.
func (c *Codec) TraitToGrowoutFilename(trait string) string {
	return c.Classify(lastSegment(trait)).Filename()
}

// TraitLabel classifies the identifier segment of a trait.
func (c *Codec) TraitLabel(trait string) Label {
	return c.Classify(lastSegment(trait))
}

// TraitToIdentifier returns the trimmed segment after the last underscore.
// It is the grouping key for the columns of one growout.
func TraitToIdentifier(trait string) string {
	return strings.TrimSpace(lastSegment(trait))
}

// ColumnBaseName strips the identifier segment from a trait. A trait without
// an underscore, such as the row key column, is returned unchanged.
func ColumnBaseName(trait string) string {
	i := strings.LastIndex(trait, "_")
	if i <= 0 {
		return trait
	}
	return trait[:i]
}

// ColumnBaseNameToTrait re-attaches the identifier derived from a growout
// filename. Canonical filenames contribute their LOYR code; any other
// filename is appended verbatim. This inverts ColumnBaseName composed with
// TraitToGrowoutFilename for every trait that contains an underscore.
func ColumnBaseNameToTrait(base, filename string) string {
	if l := ClassifyFilename(filename); l.IsGrowout() {
		return base + "_" + l.Growout.Code()
	}
	return base + "_" + filename
}

// ClassifyFilename decodes a canonical LOC_YYYY filename. Anything else is
// an opaque label.
func ClassifyFilename(filename string) Label {
	if g, ok := parseCanonical(filename); ok {
		return Label{Kind: KindGrowout, Text: filename, Growout: g}
	}
	return Label{Kind: KindOpaque, Text: filename}
}

// GrowoutFilenameToCode converts a canonical filename back to its LOYR code,
// FL_2006 to FL06. Filenames that are not seven characters long are returned
// unchanged; a seven character filename that is not LOC_YYYY is a format
// error. The century is lost: FL_1906 and FL_2006 both give FL06.
func GrowoutFilenameToCode(filename string) (string, error) {
	if len(filename) != 7 {
		return filename, nil
	}
	g, ok := parseCanonical(filename)
	if !ok {
		return "", errors.Format(filename, "not a LOC_YYYY growout filename")
	}
	return g.Code(), nil
}

func parseCanonical(filename string) (Growout, bool) {
	if len(filename) != 7 || filename[2] != '_' {
		return Growout{}, false
	}
	if !isLetter(filename[0]) || !isLetter(filename[1]) {
		return Growout{}, false
	}
	for i := 3; i < 7; i++ {
		if !isDigit(filename[i]) {
			return Growout{}, false
		}
	}
	year, err := strconv.Atoi(filename[3:])
	if err != nil {
		return Growout{}, false
	}
	return Growout{Location: filename[:2], Year: year}, true
}

func lastSegment(trait string) string {
	if i := strings.LastIndex(trait, "_"); i >= 0 {
		return trait[i+1:]
	}
	return trait
}

func isLetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}
