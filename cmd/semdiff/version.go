package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"semdiff/internal/version"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.stdout, version.Full())
			return nil
		},
	}
}
