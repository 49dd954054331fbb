package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/growout/pkg/logger"
	"github.com/ajitpratap0/growout/pkg/transformer"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "growout",
		Short: "Split phenotype and genotype tables by growout",
		Long: `growout splits wide phenotype tables, whose columns carry a location and
year code such as weight_FL06, into one table per growout (FL_2006), and cuts
vcftools 012 genotype files into one set of files per chromosome.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newVersionCmd(),
		newListCmd(),
		newSplitCmd(),
		newCutCmd(),
		newLocationsCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "growout v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available transformers",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available Transformers:")
			for _, info := range transformer.List() {
				fmt.Fprintf(out, "  - %-14s %-9s %s\n", info.Name, info.Extension, info.Description)
				if len(info.Aliases) > 0 {
					fmt.Fprintf(out, "    aliases: %v\n", info.Aliases)
				}
			}
		},
	}
}
