package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
	"semdiff/internal/errors"
	"semdiff/internal/severity"
)

func newClassifyCmd(a *app) *cobra.Command {
	var preventChange, reportThreshold string
	var exclude []string

	cmd := &cobra.Command{
		Use:   "classify <diff-tree>",
		Short: "Classify a diff tree produced by an external engine",
		Long: `Read a diff tree (.json, .yaml or .yml, optionally .gz or .zst compressed),
print its semver impact and the changes at or above the report threshold.
Exits 4 when the impact meets --prevent-change.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if cmd.Flags().Changed("prevent-change") {
				cfg.PreventChange = preventChange
			}
			if cmd.Flags().Changed("report-threshold") {
				cfg.ReportThreshold = reportThreshold
			}
			if cmd.Flags().Changed("exclude") {
				cfg.Exclude = exclude
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			root, err := difftree.DecodeFile(args[0])
			if err != nil {
				return errors.New(errors.DecodeFailed, "failed to read diff tree "+args[0], err)
			}

			policy := breaking.Policy{Exclude: breaking.ExcludeNothing, Threshold: cfg.Report()}
			if elems := cfg.ExcludedElements(); len(elems) > 0 {
				policy.Exclude = breaking.ExcludeElements(elems...)
			}

			level := breaking.Classify(root)
			report := breaking.Visit(root, policy)
			decision := breaking.Gate(level, cfg.Prevent())
			a.logger.Debug("Classified diff tree", "path", args[0], "level", level, "changes", len(report.Changes))

			printClassification(a, level, report)
			if decision.Failed {
				a.logger.Warn(decision.Message(), "overall", decision.Overall, "prevent", decision.Threshold)
				return &exitError{code: 4}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&preventChange, "prevent-change", "", "Fail when the change is at least none, patch, minor or major")
	cmd.Flags().StringVar(&reportThreshold, "report-threshold", "", "Lowest level of change to list (defaults to --prevent-change)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Elements left out of the listing")
	return cmd
}

func printClassification(a *app, level severity.Level, report breaking.Report) {
	fmt.Fprintf(a.stdout, "%s\n", level)
	fmt.Fprintf(a.stdout, "deleted=%d modified=%d new=%d\n", report.Deleted, report.Modified, report.New)
	for _, c := range report.Changes {
		marker := " "
		if c.Node.Breaking {
			marker = "!"
		}
		indent := strings.Repeat("  ", c.Level-breaking.TypeLevel)
		fmt.Fprintf(a.stdout, "%s %s%s\n", marker, indent, c.Node.DisplayText())
	}
}
