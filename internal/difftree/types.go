// Package difftree models the hierarchical comparison result produced by a diff
// engine: an assembly root whose children are types, whose children and
// declaration changes are members, followed by finer-grained detail nodes.
package difftree

import (
	"fmt"
	"strings"
)

// Kind is the kind of difference a node represents.
type Kind string

const (
	KindUnchanged Kind = "unchanged"
	KindNew       Kind = "new"
	KindDeleted   Kind = "deleted"
	KindModified  Kind = "modified"
)

// ParseKind converts a case-insensitive kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindUnchanged, "":
		return KindUnchanged, nil
	case KindNew, "added":
		return KindNew, nil
	case KindDeleted, "removed":
		return KindDeleted, nil
	case KindModified, "changed":
		return KindModified, nil
	default:
		return "", fmt.Errorf("unknown diff kind %q", s)
	}
}

// Element identifies what a node describes. Elements carry no ordering
// semantics; they exist so reporting policies can include or exclude
// categories of nodes.
type Element string

const (
	ElementAssembly  Element = "assembly"
	ElementReference Element = "reference"
	ElementType      Element = "type"
	ElementMethod    Element = "method"
	ElementProperty  Element = "property"
	ElementField     Element = "field"
	ElementEvent     Element = "event"
	ElementAttribute Element = "attribute"
	ElementDetail    Element = "detail"
)

// Node is one node of a diff tree. Trees are produced once by an engine and
// never mutated afterwards.
type Node struct {
	Kind     Kind    `json:"kind" yaml:"kind" xml:"kind,attr"`
	Breaking bool    `json:"breaking,omitempty" yaml:"breaking,omitempty" xml:"breaking,attr,omitempty"`
	Element  Element `json:"element,omitempty" yaml:"element,omitempty" xml:"element,attr,omitempty"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty" xml:"name,attr,omitempty"`
	Text     string  `json:"text,omitempty" yaml:"text,omitempty" xml:"text,omitempty"`

	Children           []*Node `json:"children,omitempty" yaml:"children,omitempty" xml:"children>node,omitempty"`
	DeclarationChanges []*Node `json:"declarationChanges,omitempty" yaml:"declarationChanges,omitempty" xml:"declarationChanges>node,omitempty"`
}

// DisplayText returns Text, falling back to a description built from Kind and Name.
func (n *Node) DisplayText() string {
	if n.Text != "" {
		return n.Text
	}
	subject := string(n.Element)
	if n.Name != "" {
		if subject != "" {
			subject += " "
		}
		subject += "`" + n.Name + "`"
	}
	if subject == "" {
		subject = "node"
	}
	switch n.Kind {
	case KindNew:
		return subject + " is new"
	case KindDeleted:
		return subject + " is deleted"
	case KindModified:
		return subject + " is modified"
	default:
		return subject
	}
}

// Differences returns the node's immediate differences: its children followed
// by its declaration changes.
func (n *Node) Differences() []*Node {
	out := make([]*Node, 0, len(n.Children)+len(n.DeclarationChanges))
	out = append(out, n.Children...)
	out = append(out, n.DeclarationChanges...)
	return out
}

// Size returns the number of nodes in the tree rooted at n.
func (n *Node) Size() int {
	count := 0
	Walk(n, func(*Node, int) bool {
		count++
		return true
	})
	return count
}
