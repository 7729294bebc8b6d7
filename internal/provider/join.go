package provider

import (
	"context"
	"fmt"
	"strings"

	"semdiff/internal/breaking"
)

// Acquisition is the outcome of listing both sides and joining them.
type Acquisition struct {
	Pairs       []*breaking.Comparison
	OldProvider string
	NewProvider string
	OldCount    int
	NewCount    int
}

// Empty reports whether no pairs were found.
func (a *Acquisition) Empty() bool {
	return len(a.Pairs) == 0
}

// Tolerated reports whether an empty acquisition is acceptable because one of
// the providers is listed in allow.
func (a *Acquisition) Tolerated(allow []string) bool {
	for _, name := range allow {
		if strings.EqualFold(name, a.OldProvider) || strings.EqualFold(name, a.NewProvider) {
			return true
		}
	}
	return false
}

// Summary describes the artifact counts for "no comparable pairs" reports.
func (a *Acquisition) Summary() string {
	return fmt.Sprintf("%s provider found %d artifact(s), %s provider found %d artifact(s)",
		a.OldProvider, a.OldCount, a.NewProvider, a.NewCount)
}

// Acquire lists both providers and joins their artifacts.
func Acquire(ctx context.Context, old, new Provider, targets Targets) (*Acquisition, error) {
	before, err := old.Artifacts(targets)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	after, err := new.Artifacts(targets)
	if err != nil {
		return nil, err
	}
	return &Acquisition{
		Pairs:       Join(before, after),
		OldProvider: old.Name(),
		NewProvider: new.Name(),
		OldCount:    len(before),
		NewCount:    len(after),
	}, nil
}

// Join pairs artifacts whose names are equal ignoring case, in the order of
// old. When each side holds exactly one artifact they are paired regardless
// of name, so two single files can always be compared.
func Join(old, new []breaking.Artifact) []*breaking.Comparison {
	if len(old) == 1 && len(new) == 1 {
		return []*breaking.Comparison{breaking.NewComparison(old[0], new[0])}
	}

	byName := make(map[string]breaking.Artifact, len(new))
	for _, a := range new {
		key := strings.ToLower(a.Name)
		if _, ok := byName[key]; !ok {
			byName[key] = a
		}
	}

	var pairs []*breaking.Comparison
	for _, o := range old {
		if n, ok := byName[strings.ToLower(o.Name)]; ok {
			pairs = append(pairs, breaking.NewComparison(o, n))
		}
	}
	return pairs
}
