package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/growout/internal/pipeline"
	"github.com/ajitpratap0/growout/pkg/config"
	"github.com/ajitpratap0/growout/pkg/vcf"
)

func newCutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cut",
		Short: "Split vcftools 012 output into files per chromosome",
		Long: `Split the output of vcftools --012 (.012, .012.pos and .012.indv) into one
set of files per chromosome or scaffold.

Example:
  growout cut -g setaria.012 -p setaria.012.pos -i setaria.012.indv -n setaria`,
		RunE: runCut,
	}

	f := cmd.Flags()
	f.StringP("genotypes", "g", "", ".012 input file (required)")
	f.StringP("positions", "p", "", ".012.pos input file (required)")
	f.StringP("individuals", "i", "", ".012.indv input file (required)")
	f.StringP("outdir", "o", "", "Output directory (default output_<timestamp>)")
	f.StringP("name", "n", vcf.DefaultName, "Species name used in output filenames")
	f.Bool("debug", false, "Enable debug logging and disable writes")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("metrics-file", "", "Write Prometheus metrics to this file after the run")
	_ = cmd.MarkFlagRequired("genotypes")
	_ = cmd.MarkFlagRequired("positions")
	_ = cmd.MarkFlagRequired("individuals")

	return cmd
}

func runCut(cmd *cobra.Command, _ []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}

	now := time.Now()
	cfg := config.NewRunConfig(now)
	overrideString(v, "log-level", &cfg.Logging.Level)
	overrideString(v, "metrics-file", &cfg.Metrics.File)
	debug := v.GetBool("debug")
	if debug {
		cfg.Logging.Level = "debug"
	}
	if err := initLogger(cfg.Logging); err != nil {
		return err
	}

	opts := vcf.Options{
		Genotypes:   v.GetString("genotypes"),
		Positions:   v.GetString("positions"),
		Individuals: v.GetString("individuals"),
		OutDir:      v.GetString("outdir"),
		Name:        v.GetString("name"),
		DryRun:      debug,
	}
	if opts.OutDir == "" {
		opts.OutDir = config.DefaultOutputDir(now)
	}

	result, err := pipeline.New(cfg, nil).Cut(cmd.Context(), opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
