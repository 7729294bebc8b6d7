package provider

import (
	"fmt"
	"os"
	"path/filepath"

	"semdiff/internal/breaking"
	"semdiff/internal/errors"
)

// FileProvider supplies a single file. Targets do not apply to it.
type FileProvider struct {
	path string
}

// FileFactory creates providers from file|<path>.
func FileFactory() Factory {
	const format = "file|<path>"
	return Factory{
		Name:        "file",
		Format:      format,
		Description: "a single artifact file",
		Create: func(args []string) (Provider, error) {
			if err := argCount(format, args, 1, 1); err != nil {
				return nil, err
			}
			return NewFileProvider(args[0])
		},
	}
}

// NewFileProvider checks that path is an existing file.
func NewFileProvider(path string) (*FileProvider, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.New(errors.ArtifactNotFound, fmt.Sprintf("no file found at %s", path), err)
	}
	if info.IsDir() {
		return nil, errors.New(errors.ProviderInvalid, fmt.Sprintf("%s is a directory; use directory|%s", path, path), nil)
	}
	return &FileProvider{path: path}, nil
}

// Name implements Provider.
func (p *FileProvider) Name() string { return "file" }

// Artifacts implements Provider.
func (p *FileProvider) Artifacts(Targets) ([]breaking.Artifact, error) {
	return []breaking.Artifact{{
		Name:     filepath.Base(p.path),
		Path:     p.path,
		Provider: p.Name(),
	}}, nil
}
