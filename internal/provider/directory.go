package provider

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"semdiff/internal/breaking"
	"semdiff/internal/errors"
)

// DefaultPattern selects the files directly inside the directory.
const DefaultPattern = "*"

// DirectoryProvider supplies the files of a directory that match a glob
// pattern. Artifact names are slash-separated paths relative to the
// directory.
type DirectoryProvider struct {
	root    string
	pattern string
}

// DirectoryFactory creates providers from directory|<path>[|<glob>].
func DirectoryFactory() Factory {
	const format = "directory|<path>[|<glob>]"
	return Factory{
		Name:        "directory",
		Format:      format,
		Description: "every file in a directory matching an optional ** glob (default *)",
		Create: func(args []string) (Provider, error) {
			if err := argCount(format, args, 1, 2); err != nil {
				return nil, err
			}
			pattern := DefaultPattern
			if len(args) == 2 && args[1] != "" {
				pattern = args[1]
			}
			return NewDirectoryProvider(args[0], pattern)
		},
	}
}

// NewDirectoryProvider checks that root is a directory and pattern is valid.
func NewDirectoryProvider(root, pattern string) (*DirectoryProvider, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.New(errors.ArtifactNotFound, fmt.Sprintf("no directory found at %s", root), err)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ProviderInvalid, fmt.Sprintf("%s is not a directory", root), nil)
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.New(errors.ProviderInvalid, fmt.Sprintf("invalid glob %q", pattern), nil)
	}
	return &DirectoryProvider{root: root, pattern: pattern}, nil
}

// Name implements Provider.
func (p *DirectoryProvider) Name() string { return "directory" }

// Artifacts implements Provider.
func (p *DirectoryProvider) Artifacts(targets Targets) ([]breaking.Artifact, error) {
	fsys := os.DirFS(p.root)
	matches, err := doublestar.Glob(fsys, p.pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", p.root, err)
	}
	sort.Strings(matches)

	var out []breaking.Artifact
	for _, rel := range matches {
		info, err := fs.Stat(fsys, rel)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if !targets.Match(rel) {
			continue
		}
		out = append(out, breaking.Artifact{
			Name:     rel,
			Path:     filepath.Join(p.root, filepath.FromSlash(rel)),
			Provider: p.Name(),
		})
	}
	return out, nil
}
