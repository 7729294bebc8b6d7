package provider

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"semdiff/internal/errors"
)

// Targets is an allow-list of artifact names. An empty list allows
// everything.
type Targets struct {
	patterns []string
}

// ParseTargets splits each value on ',' and '|'. Entries are matched
// case-insensitively against the artifact's base name, its base name
// without extension, or as a ** glob against its relative path.
func ParseTargets(values ...string) (Targets, error) {
	var t Targets
	for _, v := range values {
		for _, p := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '|' }) {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			if !doublestar.ValidatePattern(p) {
				return Targets{}, errors.New(errors.ConfigInvalid, fmt.Sprintf("invalid target pattern %q", p), nil)
			}
			t.patterns = append(t.patterns, p)
		}
	}
	return t, nil
}

// Empty reports whether every artifact is allowed.
func (t Targets) Empty() bool {
	return len(t.patterns) == 0
}

// Patterns returns the normalised entries.
func (t Targets) Patterns() []string {
	return append([]string(nil), t.patterns...)
}

// Match reports whether name is allowed.
func (t Targets) Match(name string) bool {
	if t.Empty() {
		return true
	}
	lower := strings.ToLower(name)
	base := path.Base(lower)
	stem := strings.TrimSuffix(base, path.Ext(base))
	for _, p := range t.patterns {
		if p == base || p == stem {
			return true
		}
		if ok, _ := doublestar.Match(p, lower); ok {
			return true
		}
	}
	return false
}
