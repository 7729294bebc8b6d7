package engine

import (
	"context"
	"fmt"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
	"semdiff/internal/errors"
	"semdiff/internal/surface"
)

// SurfaceEngine diffs artifacts that are surface manifests or SCIP indexes.
type SurfaceEngine struct {
	load func(path string) (*surface.Surface, error)
}

// NewSurfaceEngine creates a SurfaceEngine reading surfaces from disk.
func NewSurfaceEngine() *SurfaceEngine {
	return &SurfaceEngine{load: surface.Load}
}

// Diff loads both surfaces and compares them.
func (e *SurfaceEngine) Diff(ctx context.Context, old, new breaking.Artifact) (*difftree.Node, error) {
	before, err := e.loadArtifact(old)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	after, err := e.loadArtifact(new)
	if err != nil {
		return nil, err
	}
	return Compare(before, after), nil
}

func (e *SurfaceEngine) loadArtifact(a breaking.Artifact) (*surface.Surface, error) {
	if !surface.CanLoad(a.Path) {
		return nil, errors.New(errors.UnsupportedFormat,
			fmt.Sprintf("%s is not a surface manifest or SCIP index", a.Name), nil)
	}
	s, err := e.load(a.Path)
	if err != nil {
		return nil, errors.New(errors.DecodeFailed, fmt.Sprintf("failed to load surface for %s", a.Name), err)
	}
	return s, nil
}
