// Package pipeline runs a complete comparison: it resolves both providers,
// joins their artifacts into pairs, diffs the pairs concurrently, classifies
// and aggregates the results, renders them and applies the threshold gate.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
	"semdiff/internal/engine"
	"semdiff/internal/errors"
	"semdiff/internal/export"
	"semdiff/internal/provider"
	"semdiff/internal/severity"
	"semdiff/internal/slogutil"
)

// Outcome is how a run ended when it did not fail with an error.
type Outcome int

const (
	// Success means the gate passed.
	Success Outcome = iota
	// GateFailed means the aggregate level met or exceeded the prevent threshold.
	GateFailed
	// NoPairs means the providers yielded no comparable pairs.
	NoPairs
	// NoPairsTolerated means no pairs were found but a provider was listed
	// in AllowEmpty.
	NoPairsTolerated
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case GateFailed:
		return "gate-failed"
	case NoPairs:
		return "no-pairs"
	case NoPairsTolerated:
		return "no-pairs-tolerated"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ExitCode is the process exit status for the outcome.
func (o Outcome) ExitCode() int {
	switch o {
	case Success, NoPairsTolerated:
		return 0
	case GateFailed:
		return 4
	default:
		return 1
	}
}

// Options configures a Pipeline.
type Options struct {
	Old string // provider spec, e.g. directory|./v1
	New string

	Providers  *provider.Registry
	Targets    provider.Targets
	AllowEmpty []string

	Engine   engine.Engine
	Exporter export.Exporter
	Writers  *export.WriterFactory

	Prevent severity.Level
	Report  severity.Level
	Exclude breaking.Exclusion

	Workers        int
	CurrentVersion string
	ToolVersion    string

	Logger *slog.Logger
}

// Report describes a finished run.
type Report struct {
	Outcome     Outcome
	Acquisition *provider.Acquisition
	Run         *export.Run
	Decision    breaking.Decision
	NextVersion string
}

// Pipeline runs comparisons.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
}

// New checks opts and fills in defaults.
func New(opts Options) (*Pipeline, error) {
	if opts.Engine == nil {
		return nil, errors.New(errors.InternalError, "pipeline requires a diff engine", nil)
	}
	if opts.Exporter == nil {
		return nil, errors.New(errors.InternalError, "pipeline requires an exporter", nil)
	}
	if !opts.Prevent.Valid() || !opts.Report.Valid() {
		return nil, errors.New(errors.InvalidThreshold, "thresholds must be none, patch, minor or major", nil)
	}
	if opts.CurrentVersion != "" {
		if _, err := severity.Bump(opts.CurrentVersion, severity.None); err != nil {
			return nil, errors.New(errors.ConfigInvalid, "invalid current version", err)
		}
	}
	if opts.Providers == nil {
		opts.Providers = provider.DefaultRegistry()
	}
	if opts.Writers == nil {
		opts.Writers = export.NewWriterFactory("", nil)
	}
	if opts.Exclude == nil {
		opts.Exclude = breaking.ExcludeNothing
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Pipeline{opts: opts, logger: logger}, nil
}

// Run performs one comparison. A failed gate is reported through the
// outcome, not as an error. When no pairs are found and none are tolerated
// the report carries NoPairs and the error has code NO_COMPARABLE_PAIRS.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	policy := breaking.Policy{Exclude: p.opts.Exclude, Threshold: p.opts.Report}
	run := export.NewRun(nil, policy)
	run.ToolVersion = p.opts.ToolVersion
	run.CurrentVersion = p.opts.CurrentVersion
	logger := p.logger.With("run", run.ID)

	oldP, err := p.opts.Providers.Resolve(p.opts.Old)
	if err != nil {
		return nil, err
	}
	newP, err := p.opts.Providers.Resolve(p.opts.New)
	if err != nil {
		return nil, err
	}

	acq, err := provider.Acquire(ctx, oldP, newP, p.opts.Targets)
	if err != nil {
		return nil, err
	}
	report := &Report{Acquisition: acq}

	if acq.Empty() {
		if acq.Tolerated(p.opts.AllowEmpty) {
			logger.Warn("No comparable pairs, tolerated by allowEmpty",
				"old", acq.OldProvider, "oldCount", acq.OldCount,
				"new", acq.NewProvider, "newCount", acq.NewCount)
			report.Outcome = NoPairsTolerated
			return report, nil
		}
		logger.Error("Unable to create diff",
			"old", acq.OldProvider, "oldCount", acq.OldCount,
			"new", acq.NewProvider, "newCount", acq.NewCount)
		report.Outcome = NoPairs
		return report, errors.New(errors.NoComparablePairs, "no comparable pairs: "+acq.Summary(), nil).
			WithDetails(map[string]int{"old": acq.OldCount, "new": acq.NewCount})
	}
	logger.Info("Comparing artifacts", "pairs", len(acq.Pairs), "workers", p.opts.Workers)

	if err := p.diff(ctx, logger, acq.Pairs, policy); err != nil {
		return nil, err
	}

	result := breaking.NewResult(acq.Pairs, p.opts.Prevent)
	run.Result = result
	overall := result.Overall()
	if p.opts.CurrentVersion != "" {
		next, err := severity.Bump(p.opts.CurrentVersion, overall)
		if err != nil {
			return nil, errors.New(errors.ConfigInvalid, "invalid current version", err)
		}
		run.NextVersion = next
		report.NextVersion = next
		logger.Info("Suggested next version", "current", p.opts.CurrentVersion, "next", next)
	}
	report.Run = run

	if err := export.Export(p.opts.Exporter, run, p.opts.Writers); err != nil {
		return nil, err
	}

	decision := result.Gate()
	report.Decision = decision
	if decision.Failed {
		logger.Warn(decision.Message(), "overall", decision.Overall, "prevent", decision.Threshold)
		report.Outcome = GateFailed
		return report, nil
	}
	logger.Info(decision.Message(), "overall", decision.Overall)
	report.Outcome = Success
	return report, nil
}

// diff runs the engine over every pair with at most Workers in flight and
// attaches the trees in pair order. Each attached pair is logged with its
// assessment at policy.
func (p *Pipeline) diff(ctx context.Context, logger *slog.Logger, pairs []*breaking.Comparison, policy breaking.Policy) error {
	trees := make([]*difftree.Node, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, c := range pairs {
		i, c := i, c
		g.Go(func() error {
			root, err := p.opts.Engine.Diff(gctx, c.Old, c.New)
			if err != nil {
				return fmt.Errorf("failed to diff %s and %s: %w", c.Old.Path, c.New.Path, err)
			}
			trees[i] = root
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, c := range pairs {
		if err := c.Attach(trees[i]); err != nil {
			return errors.New(errors.InternalError, "diff attached twice", err)
		}
		if trees[i] == nil {
			logger.Info("No diff", "old", c.Old.Path, "new", c.New.Path)
			continue
		}
		a := breaking.Assess(c, policy)
		logger.Info("Difference found",
			"old", c.Old.Provider+":"+c.Old.Name,
			"new", c.New.Provider+":"+c.New.Name,
			"level", a.Level,
			"nodes", trees[i].Size(),
			"changes", len(a.Report.Changes))
	}
	return nil
}
