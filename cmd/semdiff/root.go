package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"semdiff/internal/config"
	"semdiff/internal/errors"
	"semdiff/internal/slogutil"
	"semdiff/internal/version"
)

// app carries what every command of one invocation shares.
type app struct {
	stdout io.Writer
	stderr io.Writer

	workDir   string
	verbosity int
	quiet     bool
	logLevel  string
	logFile   string

	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semdiff",
		Short: "semdiff - semantic-versioning impact of API changes",
		Long: `semdiff compares the public API surface of two sets of artifacts, classifies
each difference as a major, minor or patch change, reports the changes and fails
when the overall change meets a configured lock.`,
		Version:           version.Info(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
	}
	cmd.SetVersionTemplate("semdiff version {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return &usageError{err} })

	pf := cmd.PersistentFlags()
	pf.CountVarP(&a.verbosity, "verbose", "v", "Log more (-v info, -vv debug)")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "Disable logging")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error or silent")
	pf.StringVar(&a.logFile, "log-file", "", "Also write logs to this size-rotated file")
	pf.StringVarP(&a.workDir, "dir", "C", ".", "Directory containing the .semdiff configuration")

	cmd.AddCommand(
		newDiffCmd(a),
		newClassifyCmd(a),
		newFormatsCmd(a),
		newProvidersCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// setup loads configuration and builds the logger.
func (a *app) setup() error {
	cfg, err := config.LoadConfig(a.workDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := a.level()
	if err != nil {
		return err
	}
	fileLevel := level
	if fileLevel > slog.LevelInfo {
		fileLevel = slog.LevelInfo
	}
	file := a.logFile
	if file == "" {
		file = cfg.Logging.File
	}

	logger, closer, err := slogutil.Setup(slogutil.Options{
		Level:      level,
		Console:    a.stderr,
		File:       file,
		FileLevel:  fileLevel,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return errors.New(errors.ConfigInvalid, "failed to set up logging", err)
	}
	a.logger, a.closer = logger, closer
	a.logger.Debug("Configuration loaded", "dir", a.workDir, "format", cfg.Format, "preventChange", cfg.PreventChange)
	return nil
}

// level resolves --log-level, then -v/-q, then logging.level, then warn.
func (a *app) level() (slog.Level, error) {
	if a.logLevel != "" {
		l, err := slogutil.ParseLevel(a.logLevel)
		if err != nil {
			return 0, &usageError{err}
		}
		return l, nil
	}
	if a.quiet || a.verbosity > 0 {
		return slogutil.LevelFromVerbosity(a.verbosity, a.quiet), nil
	}
	if a.cfg != nil && a.cfg.Logging.Level != "" {
		l, err := slogutil.ParseLevel(a.cfg.Logging.Level)
		if err != nil {
			return 0, errors.New(errors.ConfigInvalid, "invalid logging.level", err)
		}
		return l, nil
	}
	return slogutil.LevelFromVerbosity(0, false), nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{fmt.Errorf("%w\n\nUsage: %s", err, cmd.UseLine())}
		}
		return nil
	}
}
