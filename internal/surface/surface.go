// Package surface models the public API surface of one artifact (an assembly
// with its types, their members and the assembly's references) and loads it
// from manifest files or SCIP indexes.
package surface

import (
	"fmt"
	"strings"

	"semdiff/internal/difftree"
)

// Surface is the public API of one artifact.
type Surface struct {
	Name       string      `json:"name" yaml:"name" toml:"name"`
	Version    string      `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	References []Reference `json:"references,omitempty" yaml:"references,omitempty" toml:"references,omitempty"`
	Types      []Type      `json:"types,omitempty" yaml:"types,omitempty" toml:"types,omitempty"`
}

// Reference is a dependency of the artifact.
type Reference struct {
	Name    string `json:"name" yaml:"name" toml:"name"`
	Version string `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
}

// Type is a publicly visible type.
type Type struct {
	Name        string   `json:"name" yaml:"name" toml:"name"`
	Kind        string   `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Declaration string   `json:"declaration,omitempty" yaml:"declaration,omitempty" toml:"declaration,omitempty"`
	Attributes  []string `json:"attributes,omitempty" yaml:"attributes,omitempty" toml:"attributes,omitempty"`
	Members     []Member `json:"members,omitempty" yaml:"members,omitempty" toml:"members,omitempty"`
}

// Member is a publicly visible member of a type.
type Member struct {
	Name      string `json:"name" yaml:"name" toml:"name"`
	Kind      string `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Signature string `json:"signature,omitempty" yaml:"signature,omitempty" toml:"signature,omitempty"`
}

// Element maps the member kind onto a diff tree element.
func (m Member) Element() difftree.Element {
	switch strings.ToLower(m.Kind) {
	case "property":
		return difftree.ElementProperty
	case "field", "constant", "enummember", "variable":
		return difftree.ElementField
	case "event":
		return difftree.ElementEvent
	default:
		return difftree.ElementMethod
	}
}

// Key identifies a member within its type. Overloads share a key.
func (m Member) Key() string {
	return strings.ToLower(m.Kind) + " " + m.Name
}

// Validate checks that every type and member is named and that type names are
// unique.
func (s *Surface) Validate() error {
	seen := make(map[string]bool, len(s.Types))
	for i, t := range s.Types {
		if t.Name == "" {
			return fmt.Errorf("type %d has no name", i)
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate type %q", t.Name)
		}
		seen[t.Name] = true
		for j, m := range t.Members {
			if m.Name == "" {
				return fmt.Errorf("member %d of type %q has no name", j, t.Name)
			}
		}
	}
	for i, r := range s.References {
		if r.Name == "" {
			return fmt.Errorf("reference %d has no name", i)
		}
	}
	return nil
}

// MemberCount returns the number of members across all types.
func (s *Surface) MemberCount() int {
	n := 0
	for _, t := range s.Types {
		n += len(t.Members)
	}
	return n
}
