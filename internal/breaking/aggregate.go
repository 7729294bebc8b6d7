package breaking

import "semdiff/internal/severity"

// Aggregate folds levels with max. With no levels it returns severity.Floor.
// The result does not depend on the order of levels.
func Aggregate(levels ...severity.Level) severity.Level {
	if len(levels) == 0 {
		return severity.Floor
	}
	overall := levels[0]
	for _, l := range levels[1:] {
		overall = severity.Max(overall, l)
	}
	return overall
}

// Result is a read-only view over every comparison of a run.
type Result struct {
	Comparisons []*Comparison
	Prevent     severity.Level
}

// NewResult builds a result over resolved comparisons.
func NewResult(comparisons []*Comparison, prevent severity.Level) *Result {
	return &Result{Comparisons: comparisons, Prevent: prevent}
}

// Levels classifies every comparison, in order.
func (r *Result) Levels() []severity.Level {
	levels := make([]severity.Level, len(r.Comparisons))
	for i, c := range r.Comparisons {
		levels[i] = c.Level()
	}
	return levels
}

// Overall is the maximum level across all comparisons.
func (r *Result) Overall() severity.Level {
	return Aggregate(r.Levels()...)
}

// Gate decides the run against the configured prevent threshold.
func (r *Result) Gate() Decision {
	return Gate(r.Overall(), r.Prevent)
}

// Visit runs one visitor pass per comparison and merges the reports. Only
// comparisons with a diff tree whose level is at least minLevel contribute;
// matched is the number of comparisons that did.
func (r *Result) Visit(policy Policy, minLevel severity.Level) (report Report, matched int) {
	for _, c := range r.Comparisons {
		if c.Diff == nil || c.Level().Below(minLevel) {
			continue
		}
		matched++
		report = report.Merge(Visit(c.Diff, policy))
	}
	return report, matched
}
