// Package growout splits plant phenotype and genotype tables by growout, the
// combination of a field location and a year in which a population is grown.
//
// Phenotype tables from multi-environment trials are usually wide: one row
// per line or pedigree and one column per trait and growout, with the
// growout encoded as a location-year suffix such as weight_FL06. growout
// turns such a table into one table per growout (FL_2006.csv, MO_2006.csv),
// keeping every measured value and dropping only rows with no value in a
// growout. Tables that tag each row with its growout instead are split by
// that tag.
//
// # Architecture
//
//   - pkg/loyr: location-year codes and growout filenames
//   - pkg/table: the typed in-memory table and its readers
//   - pkg/transformer: the registry of splitting strategies
//   - pkg/sink: file, object store, database and preview outputs
//   - pkg/vcf: cutting vcftools 012 genotype files by chromosome
//   - internal/pipeline: runs a command end to end
//
// # Quick Start
//
//	growout split -t trait-suffix -o results phenotypes.csv
//	growout split -t row-tag --format parquet --compression zstd -o s3://bucket/trial *.csv
//	growout cut -g setaria.012 -p setaria.012.pos -i setaria.012.indv -n setaria
//
// Run `growout list` for the available transformers.
package growout
