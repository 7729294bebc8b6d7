// Package provider acquires the artifacts to compare. A provider is created
// from a spec of the form name|argument[|argument...] and lists the artifacts
// it can supply; the old and new artifact lists are joined by name into
// comparison pairs.
package provider

import (
	"fmt"
	"sort"
	"strings"

	"semdiff/internal/breaking"
	"semdiff/internal/errors"
)

// Provider lists artifacts for one side of a comparison.
type Provider interface {
	// Name is the factory name the provider was created from.
	Name() string
	// Artifacts returns the artifacts matching targets, in a stable order.
	Artifacts(targets Targets) ([]breaking.Artifact, error)
}

// Factory creates providers from spec arguments.
type Factory struct {
	Name        string
	Format      string
	Description string
	Create      func(args []string) (Provider, error)
}

// Registry resolves provider specs.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates a registry holding factories.
func NewRegistry(factories ...Factory) *Registry {
	r := &Registry{factories: make(map[string]Factory, len(factories))}
	for _, f := range factories {
		r.factories[strings.ToLower(f.Name)] = f
	}
	return r
}

// DefaultRegistry holds the file and directory providers.
func DefaultRegistry() *Registry {
	return NewRegistry(FileFactory(), DirectoryFactory())
}

// Factories returns the registered factories sorted by name.
func (r *Registry) Factories() []Factory {
	out := make([]Factory, 0, len(r.factories))
	for _, f := range r.factories {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve creates the provider described by spec.
func (r *Registry) Resolve(spec string) (Provider, error) {
	parts := strings.Split(spec, "|")
	name := strings.ToLower(strings.TrimSpace(parts[0]))
	if name == "" {
		return nil, errors.New(errors.ProviderInvalid, fmt.Sprintf("empty provider spec %q", spec), nil)
	}
	f, ok := r.factories[name]
	if !ok {
		return nil, errors.New(errors.ProviderNotFound, fmt.Sprintf("no provider named %q", parts[0]), nil)
	}
	return f.Create(parts[1:])
}

// Names returns the registered factory names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for _, f := range r.Factories() {
		names = append(names, f.Name)
	}
	return names
}

func argCount(f string, args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		return errors.New(errors.ProviderInvalid, fmt.Sprintf("provider spec must have the form %s", f), nil)
	}
	return nil
}
