package main

import (
	"github.com/spf13/cobra"

	"semdiff/internal/pipeline"
)

type diffFlags struct {
	format          string
	output          string
	preventChange   string
	reportThreshold string
	targets         []string
	allowEmpty      []string
	exclude         []string
	engine          string
	engineCommand   string
	engineArgs      []string
	timeout         string
	workers         int
	currentVersion  string
}

func newDiffCmd(a *app) *cobra.Command {
	var f diffFlags
	cmd := &cobra.Command{
		Use:   "diff <old-provider> <new-provider>",
		Short: "Compare two sets of artifacts and gate on the semver impact",
		Long: `Compare the artifacts of an old and a new provider, classify every difference
and write a report in the configured format.

Providers take the form name|argument, for example:
  semdiff diff "directory|./v1" "directory|./v2"
  semdiff diff "file|old/lib.yaml" "file|new/lib.yaml" --prevent-change major

Exit codes: 0 success, 1 runtime failure or no comparable artifacts,
2 usage or configuration error, 4 the change meets --prevent-change.`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, a, &f, args[0], args[1])
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", "", "Output format (see 'semdiff formats')")
	fl.StringVarP(&f.output, "output", "o", "", "Also write the report to this file or directory")
	fl.StringVar(&f.preventChange, "prevent-change", "", "Fail when the change is at least none, patch, minor or major")
	fl.StringVar(&f.reportThreshold, "report-threshold", "", "Lowest level of change to report (defaults to --prevent-change)")
	fl.StringArrayVarP(&f.targets, "target", "t", nil, "Only compare artifacts matching these names or globs")
	fl.StringSliceVar(&f.allowEmpty, "allow-empty", nil, "Providers allowed to yield no comparable artifacts")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "Elements left out of the report (e.g. reference,attribute)")
	fl.StringVar(&f.engine, "engine", "", "Diff engine: auto, surface or exec")
	fl.StringVar(&f.engineCommand, "engine-command", "", "External diff engine command")
	fl.StringArrayVar(&f.engineArgs, "engine-arg", nil, "Argument for the external diff engine (repeatable)")
	fl.StringVar(&f.timeout, "timeout", "", "Per-pair timeout for the external diff engine")
	fl.IntVarP(&f.workers, "workers", "j", 0, "Pairs compared concurrently")
	fl.StringVar(&f.currentVersion, "current-version", "", "Current version, used to suggest the next one")
	return cmd
}

func runDiff(cmd *cobra.Command, a *app, f *diffFlags, oldSpec, newSpec string) error {
	cfg := *a.cfg
	changed := cmd.Flags().Changed

	if changed("format") {
		cfg.Format = f.format
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("prevent-change") {
		cfg.PreventChange = f.preventChange
	}
	if changed("report-threshold") {
		cfg.ReportThreshold = f.reportThreshold
	}
	if changed("target") {
		cfg.Targets = f.targets
	}
	if changed("allow-empty") {
		cfg.AllowEmpty = f.allowEmpty
	}
	if changed("exclude") {
		cfg.Exclude = f.exclude
	}
	if changed("engine") {
		cfg.Engine.Kind = f.engine
	}
	if changed("engine-command") {
		cfg.Engine.Command = f.engineCommand
	}
	if changed("engine-arg") {
		cfg.Engine.Args = f.engineArgs
	}
	if changed("timeout") {
		cfg.Engine.Timeout = f.timeout
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("current-version") {
		cfg.CurrentVersion = f.currentVersion
	}

	opts, err := pipeline.OptionsFromConfig(&cfg, oldSpec, newSpec, a.stdout, a.logger)
	if err != nil {
		return err
	}
	p, err := pipeline.New(opts)
	if err != nil {
		return err
	}
	report, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}
	if code := report.Outcome.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}
