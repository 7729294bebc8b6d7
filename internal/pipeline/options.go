package pipeline

import (
	"io"
	"log/slog"

	"semdiff/internal/breaking"
	"semdiff/internal/config"
	"semdiff/internal/engine"
	"semdiff/internal/export"
	"semdiff/internal/provider"
	"semdiff/internal/version"
)

// OptionsFromConfig validates cfg and builds pipeline options comparing the
// old and new provider specs. Reports go to console and, when cfg.Output is
// set, to that file or directory.
func OptionsFromConfig(cfg *config.Config, oldSpec, newSpec string, console io.Writer, logger *slog.Logger) (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}

	exporter, err := export.DefaultRegistry().Lookup(cfg.Format)
	if err != nil {
		return Options{}, err
	}
	targets, err := provider.ParseTargets(cfg.Targets...)
	if err != nil {
		return Options{}, err
	}

	engineOpts := cfg.EngineOptions()
	engineOpts.Logger = logger
	eng, err := engine.New(engineOpts)
	if err != nil {
		return Options{}, err
	}

	exclude := breaking.ExcludeNothing
	if elems := cfg.ExcludedElements(); len(elems) > 0 {
		exclude = breaking.ExcludeElements(elems...)
	}

	return Options{
		Old:            oldSpec,
		New:            newSpec,
		Providers:      provider.DefaultRegistry(),
		Targets:        targets,
		AllowEmpty:     cfg.AllowEmpty,
		Engine:         eng,
		Exporter:       exporter,
		Writers:        export.NewWriterFactory(cfg.Output, console),
		Prevent:        cfg.Prevent(),
		Report:         cfg.Report(),
		Exclude:        exclude,
		Workers:        cfg.Workers,
		CurrentVersion: cfg.CurrentVersion,
		ToolVersion:    version.Version,
		Logger:         logger,
	}, nil
}
