package breaking

import (
	"semdiff/internal/difftree"
	"semdiff/internal/severity"
)

// Exclusion reports whether a node is left out of breaking-change selection.
// Excluded nodes are still counted.
type Exclusion func(n *difftree.Node) bool

// ExcludeElements excludes nodes whose element is one of elems.
func ExcludeElements(elems ...difftree.Element) Exclusion {
	set := make(map[difftree.Element]struct{}, len(elems))
	for _, e := range elems {
		set[e] = struct{}{}
	}
	return func(n *difftree.Node) bool {
		_, ok := set[n.Element]
		return ok
	}
}

// ExcludeNothing is an Exclusion that keeps every node.
func ExcludeNothing(*difftree.Node) bool { return false }

// DefaultExclusion leaves out reference-level metadata changes, which are not
// member-level API changes.
var DefaultExclusion = ExcludeElements(difftree.ElementReference)

// Policy controls which nodes a visitor pass selects.
type Policy struct {
	Exclude   Exclusion
	Threshold severity.Level
}

// DefaultPolicy returns a policy using DefaultExclusion.
func DefaultPolicy(threshold severity.Level) Policy {
	return Policy{Exclude: DefaultExclusion, Threshold: threshold}
}

// Includes reports whether n satisfies the inclusion threshold.
func Includes(threshold severity.Level, n *difftree.Node) bool {
	switch threshold {
	case severity.Major:
		return n.Breaking
	case severity.Minor:
		return n.Breaking || n.Kind == difftree.KindNew
	case severity.Patch:
		return true
	default:
		return false
	}
}

// Visit walks the tree once in pre-order, counting differences and selecting
// the changes that pass policy. The result preserves traversal order.
//
// Deleted and New nodes are counted at every level. Modified nodes are counted
// only below the type level. Selection skips the root, excluded nodes and
// Modified type containers.
func Visit(root *difftree.Node, policy Policy) Report {
	exclude := policy.Exclude
	if exclude == nil {
		exclude = ExcludeNothing
	}

	var r Report
	difftree.Walk(root, func(n *difftree.Node, level int) bool {
		switch n.Kind {
		case difftree.KindDeleted:
			r.Deleted++
		case difftree.KindNew:
			r.New++
		case difftree.KindModified:
			if level > TypeLevel {
				r.Modified++
			}
		}

		if level < TypeLevel || exclude(n) {
			return true
		}
		if level == TypeLevel && n.Kind == difftree.KindModified {
			return true
		}
		if Includes(policy.Threshold, n) {
			r.Changes = append(r.Changes, Change{Node: n, Level: level})
		}
		return true
	})
	return r
}
