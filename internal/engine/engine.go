// Package engine is the boundary to the metadata-diff engine: given an old
// and a new artifact it produces a diff tree, or nil when the artifacts have
// no public difference.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
	"semdiff/internal/errors"
)

// Engine compares two artifacts.
type Engine interface {
	Diff(ctx context.Context, old, new breaking.Artifact) (*difftree.Node, error)
}

// Func adapts a function to Engine.
type Func func(ctx context.Context, old, new breaking.Artifact) (*difftree.Node, error)

// Diff calls f.
func (f Func) Diff(ctx context.Context, old, new breaking.Artifact) (*difftree.Node, error) {
	return f(ctx, old, new)
}

// Kind selects an engine implementation.
type Kind string

const (
	// KindAuto uses the exec engine when a command is configured and the
	// surface engine otherwise.
	KindAuto    Kind = "auto"
	KindSurface Kind = "surface"
	KindExec    Kind = "exec"
)

// Kinds lists the selectable engine kinds.
func Kinds() []Kind {
	return []Kind{KindAuto, KindSurface, KindExec}
}

// ParseKind converts a case-insensitive engine kind; empty means auto.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindSurface, KindExec:
		return k, nil
	default:
		return "", errors.New(errors.ConfigInvalid, fmt.Sprintf("unknown engine kind %q", s), nil)
	}
}

// Options configures New.
type Options struct {
	Kind    Kind
	Command string
	Args    []string
	Timeout time.Duration
	Logger  *slog.Logger
}

// New builds the configured engine, wrapped so byte-identical artifacts are
// reported as having no difference without invoking it.
func New(opts Options) (Engine, error) {
	kind := opts.Kind
	if kind == "" || kind == KindAuto {
		kind = KindSurface
		if opts.Command != "" {
			kind = KindExec
		}
	}

	var inner Engine
	switch kind {
	case KindSurface:
		inner = NewSurfaceEngine()
	case KindExec:
		if opts.Command == "" {
			return nil, errors.New(errors.ConfigInvalid, "engine.command is required for the exec engine", nil)
		}
		inner = &ExecEngine{Command: opts.Command, Args: opts.Args, Timeout: opts.Timeout}
	default:
		return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("unknown engine kind %q", opts.Kind), nil)
	}
	return SkipIdentical(inner, opts.Logger), nil
}
