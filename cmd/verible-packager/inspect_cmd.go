package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FPGAwars/verible-packager/internal/archive"
)

// createInspectCommand creates the inspect subcommand
func createInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect PACKAGE.tar.gz",
		Short: "lists the entries of a generated package",
		Long: `Inspect opens a generated package, prints its entries and checks
that the BUILD-INFO metadata file is present.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := archive.ListTarGz(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				switch {
				case e.Dir:
					fmt.Fprintf(out, "%s/\n", e.Name)
				case e.Linkname != "":
					fmt.Fprintf(out, "%s -> %s\n", e.Name, e.Linkname)
				default:
					fmt.Fprintf(out, "%s (%d bytes)\n", e.Name, e.Size)
				}
			}

			if !archive.HasEntry(entries, "BUILD-INFO") {
				return fmt.Errorf("package %s has no BUILD-INFO entry", args[0])
			}
			fmt.Fprintf(out, "%d entries, BUILD-INFO present\n", len(entries))
			return nil
		},
	}
}
