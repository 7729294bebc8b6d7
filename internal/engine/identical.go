package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/crypto/blake2b"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
	"semdiff/internal/slogutil"
)

// SkipIdentical wraps inner so that pairs whose files hash identically are
// reported as having no difference.
func SkipIdentical(inner Engine, logger *slog.Logger) Engine {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return Func(func(ctx context.Context, old, new breaking.Artifact) (*difftree.Node, error) {
		same, err := Identical(old.Path, new.Path)
		if err != nil {
			logger.Debug("Content hash unavailable", "old", old.Path, "new", new.Path, "error", err)
		} else if same {
			logger.Debug("Artifacts are byte-identical", "name", old.Name)
			return nil, nil
		}
		return inner.Diff(ctx, old, new)
	})
}

// Identical reports whether two files have the same BLAKE2b-256 digest.
func Identical(a, b string) (bool, error) {
	ha, err := fileDigest(a)
	if err != nil {
		return false, err
	}
	hb, err := fileDigest(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ha, hb), nil
}

func fileDigest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
