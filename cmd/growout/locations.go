package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/growout/pkg/loyr"
)

func newLocationsCmd() *cobra.Command {
	var table string

	cmd := &cobra.Command{
		Use:   "locations [CODE...]",
		Short: "Expand location codes to location names",
		Long: `Expand location codes to the names listed in a locations table, a CSV file
with Code and Name columns. Without codes, every entry is listed.

Example:
  growout locations FL MO --table locations.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			locations, err := loyr.LoadLocationsFile(table)
			if err != nil {
				return err
			}
			codec := loyr.NewCodec(loyr.WithLocations(locations))

			codes := args
			if len(codes) == 0 {
				codes = locations.Codes()
			}
			out := cmd.OutOrStdout()
			for _, code := range codes {
				fmt.Fprintf(out, "%s\t%s\n", code, codec.ExpandLocation(code))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&table, "table", "locations.csv", "Locations table")
	return cmd
}
