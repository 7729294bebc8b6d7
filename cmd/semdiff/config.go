package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"semdiff/internal/config"
	"semdiff/internal/errors"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the project configuration",
	}
	cmd.AddCommand(newConfigShowCmd(a), newConfigInitCmd(a))
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(a.cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, string(data))
			return nil
		},
	}
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to .semdiff/config.json",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(a.workDir, config.Dir, "config.json")
			if _, err := os.Stat(path); err == nil && !force {
				return errors.NewWithFixes(errors.ConfigInvalid, "configuration already exists at "+path, nil,
					[]errors.FixAction{{
						Type:        errors.RunCommand,
						Command:     "semdiff config init --force",
						Description: "Overwrite the existing configuration",
					}})
			}
			written, err := config.DefaultConfig().Save(a.workDir)
			if err != nil {
				return errors.New(errors.OutputFailed, "failed to write configuration", err)
			}
			a.logger.Info("Configuration written", "path", written)
			fmt.Fprintf(a.stdout, "Created %s\n", written)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	return cmd
}
