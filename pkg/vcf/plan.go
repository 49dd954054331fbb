// Package vcf cuts the 012 genotype output of vcftools into one set of files
// per chromosome or scaffold.
//
// The input is a triple of files sharing a stem:
//
//	x.012       one line per individual: an index column, then one call per SNP
//	x.012.pos   one line per SNP: chromosome and position, tab separated
//	x.012.indv  one line per individual
//
// The SNPs of a chromosome must be contiguous in the .pos file, which is how
// vcftools writes them.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/ajitpratap0/growout/pkg/errors"
)

var chromosomePattern = regexp.MustCompile(`^(?P<label>[a-zA-Z]+)?_?(?P<id>\d+)$`)

// DefaultLabel is used for chromosomes given as a bare number.
const DefaultLabel = "chr"

// Chromosome is a contiguous run of SNP columns in the genotype matrix.
type Chromosome struct {
	// Name is the normalised label and number, such as chr1 or scaffold36
	Name string
	ID   int
	// First and Last are the 1-based genotype columns of the first and last
	// SNP; column 0 is the individual index.
	First int
	Last  int
	// Positions holds the position of every SNP, in order.
	Positions []string
}

// SNPs returns the number of SNPs on the chromosome.
func (c Chromosome) SNPs() int {
	return c.Last - c.First + 1
}

// ParseChromosome normalises a chromosome label: Chr_01 becomes chr1,
// scaffold_36 becomes scaffold36 and 5 becomes chr5.
func ParseChromosome(label string) (name string, id int, err error) {
	m := chromosomePattern.FindStringSubmatch(label)
	if m == nil {
		return "", 0, errors.Format(label, "chromosome label must be an optional name followed by a number")
	}
	prefix := DefaultLabel
	if l := m[chromosomePattern.SubexpIndex("label")]; l != "" {
		prefix = strings.ToLower(l)
	}
	id, err = strconv.Atoi(m[chromosomePattern.SubexpIndex("id")])
	if err != nil {
		return "", 0, errors.Format(label, "chromosome number out of range")
	}
	return fmt.Sprintf("%s%d", prefix, id), id, nil
}

// Plan reads a .012.pos file and returns its chromosomes in file order.
func Plan(pos io.Reader) ([]Chromosome, error) {
	var (
		chromosomes []Chromosome
		seen        = map[string]bool{}
		lineNo      int
	)

	sc := bufio.NewScanner(pos)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNo++

		fields := splitCalls(line)
		if len(fields) != 2 {
			return nil, errors.Newf(errors.ErrorTypeMalformedRow,
				"position line %d has %d fields, expected 2", lineNo, len(fields)).
				WithDetail("line", lineNo)
		}

		name, id, err := ParseChromosome(fields[0])
		if err != nil {
			return nil, err
		}

		n := len(chromosomes)
		if n == 0 || chromosomes[n-1].Name != name {
			if seen[name] {
				return nil, errors.Newf(errors.ErrorTypeFormat,
					"chromosome %s reappears at position line %d after another chromosome", name, lineNo).
					WithDetail("line", lineNo)
			}
			seen[name] = true
			chromosomes = append(chromosomes, Chromosome{Name: name, ID: id, First: lineNo})
			n++
		}
		c := &chromosomes[n-1]
		c.Last = lineNo
		c.Positions = append(c.Positions, fields[1])
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read positions")
	}
	if len(chromosomes) == 0 {
		return nil, errors.EmptyInput("positions")
	}
	return chromosomes, nil
}

// splitCalls splits a tab separated line, trims each field and replaces
// missing calls (-1) with NA.
func splitCalls(line string) []string {
	xs := strings.Split(line, "\t")
	for i, x := range xs {
		x = strings.TrimSpace(x)
		if x == "-1" {
			x = "NA"
		}
		xs[i] = x
	}
	return xs
}
