// Package export renders the results of a run. Pair exporters write one
// document per compared artifact pair that has differences; run exporters
// write a single document covering every pair.
package export

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
	"semdiff/internal/errors"
	"semdiff/internal/severity"
)

// Run is everything an exporter may render.
type Run struct {
	ID        string
	Generated time.Time
	Result    *breaking.Result
	// Policy selects the changes to render. Its threshold is the report
	// threshold, which may differ from the gate's.
	Policy breaking.Policy

	ToolVersion    string
	CurrentVersion string
	NextVersion    string
}

// NewRun stamps result with a fresh run ID.
func NewRun(result *breaking.Result, policy breaking.Policy) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Generated: time.Now().UTC(),
		Result:    result,
		Policy:    policy,
	}
}

// Threshold is the report threshold.
func (r *Run) Threshold() severity.Level {
	return r.Policy.Threshold
}

func (r *Run) excluded(n *difftree.Node) bool {
	if r.Policy.Exclude == nil {
		return false
	}
	return r.Policy.Exclude(n)
}

// Exporter is a named output format.
type Exporter interface {
	Format() string
	Description() string
}

// PairExporter renders a single comparison.
type PairExporter interface {
	Exporter
	ExportPair(run *Run, c *breaking.Comparison, wf *WriterFactory) error
}

// RunExporter renders every comparison of a run at once.
type RunExporter interface {
	Exporter
	ExportRun(run *Run, wf *WriterFactory) error
}

// Registry holds the known exporters.
type Registry struct {
	exporters map[string]Exporter
}

// NewRegistry creates a registry holding exporters.
func NewRegistry(exporters ...Exporter) *Registry {
	r := &Registry{exporters: make(map[string]Exporter, len(exporters))}
	for _, e := range exporters {
		r.exporters[e.Format()] = e
	}
	return r
}

// DefaultRegistry holds every built-in exporter.
func DefaultRegistry() *Registry {
	return NewRegistry(
		XMLExporter{},
		MarkdownExporter(),
		AsciiDocExporter(),
		GitHubCommentExporter{},
		JSONExporter{},
		SARIFExporter{},
		TOMLExporter{},
	)
}

// Formats returns the format names, sorted.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.exporters))
	for name := range r.exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exporters returns the exporters sorted by format.
func (r *Registry) Exporters() []Exporter {
	out := make([]Exporter, 0, len(r.exporters))
	for _, name := range r.Formats() {
		out = append(out, r.exporters[name])
	}
	return out
}

// Lookup finds the exporter for format, ignoring case.
func (r *Registry) Lookup(format string) (Exporter, error) {
	if e, ok := r.exporters[strings.ToLower(strings.TrimSpace(format))]; ok {
		return e, nil
	}
	return nil, errors.New(errors.UnsupportedFormat,
		fmt.Sprintf("no exporter for format %q; supported formats are %s", format, strings.Join(r.Formats(), ", ")), nil)
}

// Export renders run with e. Pair exporters see only the comparisons that
// have a diff tree, in run order.
func Export(e Exporter, run *Run, wf *WriterFactory) error {
	switch ex := e.(type) {
	case PairExporter:
		for _, c := range run.Result.Comparisons {
			if c.Diff == nil {
				continue
			}
			if err := ex.ExportPair(run, c, wf); err != nil {
				return fmt.Errorf("%s export of %s failed: %w", e.Format(), c.Old.Name, err)
			}
		}
		return nil
	case RunExporter:
		if err := ex.ExportRun(run, wf); err != nil {
			return fmt.Errorf("%s export failed: %w", e.Format(), err)
		}
		return nil
	default:
		return errors.New(errors.InternalError, fmt.Sprintf("exporter %s renders neither pairs nor runs", e.Format()), nil)
	}
}

// withExt replaces the extension of an artifact name.
func withExt(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}

// stem is the base name of an artifact without its extension.
func stem(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}
