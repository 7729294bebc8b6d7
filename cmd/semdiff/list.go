package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"semdiff/internal/export"
	"semdiff/internal/provider"
)

func newFormatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the available output formats",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FORMAT\tDESCRIPTION")
			for _, e := range export.DefaultRegistry().Exporters() {
				fmt.Fprintf(w, "%s\t%s\n", e.Format(), e.Description())
			}
			return w.Flush()
		},
	}
}

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the available artifact providers",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tFORM\tDESCRIPTION")
			for _, f := range provider.DefaultRegistry().Factories() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.Name, f.Format, f.Description)
			}
			return w.Flush()
		},
	}
}
