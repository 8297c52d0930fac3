package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/FPGAwars/verible-packager/internal/platform"
)

// createPlatformsCommand creates the platforms subcommand
func createPlatformsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "lists the supported platform identifiers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PLATFORM\tARCHIVE\tEXTRACT")
			for _, id := range platform.IDs() {
				info, err := platform.Resolve(id, cfg.VeribleTag)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", id, info.ArchiveName(), info.UnarchiveCmd[0])
			}
			return w.Flush()
		},
	}
}
