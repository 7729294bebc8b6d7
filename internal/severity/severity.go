// Package severity defines the ordered version-impact levels shared by
// per-pair classification, aggregation and the threshold gate.
package severity

import (
	"fmt"
	"strings"
)

// Level is a semantic-versioning impact. Levels are totally ordered:
// None < Patch < Minor < Major.
type Level int

const (
	// None means no detectable difference. As a gate threshold it disables the gate.
	None Level = iota
	// Patch is a non-breaking, non-feature release.
	Patch
	// Minor is a purely additive change.
	Minor
	// Major is an incompatible change.
	Major
)

// Floor is the level reported when there is nothing to report: a pair without a
// diff tree, or an empty pair list.
const Floor = Patch

var names = [...]string{
	None:  "none",
	Patch: "patch",
	Minor: "minor",
	Major: "major",
}

// All returns every level in ascending order.
func All() []Level {
	return []Level{None, Patch, Minor, Major}
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	return l >= None && l <= Major
}

// String returns the lowercase name used in flags and config.
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return names[l]
}

// Title returns the capitalised name used in rendered reports.
func (l Level) Title() string {
	s := l.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// AtLeast reports whether l >= other.
func (l Level) AtLeast(other Level) bool {
	return l >= other
}

// Below reports whether l < other.
func (l Level) Below(other Level) bool {
	return l < other
}

// Max returns the greater of a and b.
func Max(a, b Level) Level {
	if a >= b {
		return a
	}
	return b
}

// Parse converts a textual level (case-insensitive) to a Level.
func Parse(s string) (Level, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for l, name := range names {
		if name == want {
			return Level(l), nil
		}
	}
	valid := make([]string, 0, len(names))
	for _, l := range All() {
		valid = append(valid, l.String())
	}
	return None, fmt.Errorf("invalid severity %q: expected one of %s", s, strings.Join(valid, ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid severity level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
