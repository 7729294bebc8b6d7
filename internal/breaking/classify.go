package breaking

import (
	"semdiff/internal/difftree"
	"semdiff/internal/severity"
)

// Classify computes the version impact of one diff tree. It is total: every
// tree shape, including a nil root, yields exactly one level.
//
// Rules, first match wins:
//   - no tree: the floor (Patch)
//   - root flagged breaking: Major
//   - no immediate differences: Patch
//   - any immediate Deleted or Modified difference: Major
//   - any immediate New difference: Minor
//   - otherwise: Patch
func Classify(root *difftree.Node) severity.Level {
	if root == nil {
		return severity.Floor
	}
	if root.Breaking {
		return severity.Major
	}

	differences := root.Differences()
	if len(differences) == 0 {
		return severity.Patch
	}

	anyNew := false
	for _, d := range differences {
		if d == nil {
			continue
		}
		switch d.Kind {
		case difftree.KindDeleted, difftree.KindModified:
			return severity.Major
		case difftree.KindNew:
			anyNew = true
		}
	}
	if anyNew {
		return severity.Minor
	}
	return severity.Patch
}
