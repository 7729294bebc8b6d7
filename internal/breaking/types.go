// Package breaking classifies diff trees by semantic-versioning impact and
// selects the changes worth reporting.
package breaking

import (
	"fmt"

	"semdiff/internal/difftree"
	"semdiff/internal/severity"
)

// TypeLevel is the walk level of type nodes. A Modified node at this level is
// a container whose own marker is suppressed because its descendants carry
// the real changes.
const TypeLevel = difftree.RootLevel + 1

// Artifact references one side of a comparison.
type Artifact struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Provider string `json:"provider,omitempty"`
}

// Comparison is one (old, new) artifact pair and, once the engine has run,
// its diff tree. A nil Diff means the engine found no differences.
type Comparison struct {
	Old  Artifact       `json:"old"`
	New  Artifact       `json:"new"`
	Diff *difftree.Node `json:"diff,omitempty"`

	attached bool
}

// NewComparison creates a comparison awaiting its diff result.
func NewComparison(old, new Artifact) *Comparison {
	return &Comparison{Old: old, New: new}
}

// Attach records the engine's result. It may be called once.
func (c *Comparison) Attach(root *difftree.Node) error {
	if c.attached {
		return fmt.Errorf("diff already attached for %s", c.Old.Name)
	}
	c.Diff = root
	c.attached = true
	return nil
}

// Attached reports whether the engine result has been recorded.
func (c *Comparison) Attached() bool {
	return c.attached
}

// Level classifies the comparison.
func (c *Comparison) Level() severity.Level {
	return Classify(c.Diff)
}

// Change is one reportable node together with the level it was found at.
type Change struct {
	Node  *difftree.Node `json:"node"`
	Level int            `json:"level"`
}

// Report is the outcome of one visitor pass over a diff tree.
type Report struct {
	Deleted  int      `json:"deleted"`
	Modified int      `json:"modified"`
	New      int      `json:"new"`
	Changes  []Change `json:"changes"`
}

// Total returns the number of counted differences.
func (r Report) Total() int {
	return r.Deleted + r.Modified + r.New
}

// Merge returns the sum of r and other, with other's changes appended.
func (r Report) Merge(other Report) Report {
	changes := make([]Change, 0, len(r.Changes)+len(other.Changes))
	changes = append(changes, r.Changes...)
	changes = append(changes, other.Changes...)
	return Report{
		Deleted:  r.Deleted + other.Deleted,
		Modified: r.Modified + other.Modified,
		New:      r.New + other.New,
		Changes:  changes,
	}
}

// Assessment bundles a comparison with its classification and visitor report.
type Assessment struct {
	Comparison *Comparison    `json:"comparison"`
	Level      severity.Level `json:"level"`
	Report     Report         `json:"report"`
}

// Assess classifies c and runs one visitor pass with policy.
func Assess(c *Comparison, policy Policy) Assessment {
	return Assessment{
		Comparison: c,
		Level:      c.Level(),
		Report:     Visit(c.Diff, policy),
	}
}
