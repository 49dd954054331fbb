// Package config holds the run configuration for growout.
//
// A RunConfig is organised into sections:
//
//   - Input: files, delimiter, row key and tag column
//   - Output: destination, format, compression, dry run
//   - Locations: the location code lookup table
//   - Logging, Metrics, Tracing: observability settings
//
// # Usage
//
//	cfg := config.NewRunConfig(time.Now())
//	if err := config.Load("growout.yaml", cfg); err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Variable Substitution
//
// ${VAR_NAME} in a configuration file is replaced by the variable's value
// before parsing:
//
//	output:
//	  dir: s3://${GROWOUT_BUCKET}/phenotypes
//	  format: parquet
//	  compression: zstd
//
// Values loaded from a file are overridden by command line flags and
// GROWOUT_* environment variables.
package config
