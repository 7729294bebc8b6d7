// Package compression reads and writes optionally compressed artifact files.
// Compression is selected by file suffix: .gz (gzip) or .zst (zstandard).
package compression

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Algorithm names a supported compression algorithm.
type Algorithm string

const (
	None Algorithm = ""
	Gzip Algorithm = "gzip"
	Zstd Algorithm = "zstd"
)

var suffixes = map[string]Algorithm{
	".gz":  Gzip,
	".zst": Zstd,
}

// Detect returns the algorithm implied by path's suffix.
func Detect(path string) Algorithm {
	lower := strings.ToLower(path)
	for suffix, algo := range suffixes {
		if strings.HasSuffix(lower, suffix) {
			return algo
		}
	}
	return None
}

// StripSuffix removes a recognised compression suffix from path.
func StripSuffix(path string) string {
	lower := strings.ToLower(path)
	for suffix := range suffixes {
		if strings.HasSuffix(lower, suffix) {
			return path[:len(path)-len(suffix)]
		}
	}
	return path
}

// Open opens path for reading, decompressing it when the suffix asks for it.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	rc, err := NewReader(f, Detect(path))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &stackedCloser{ReadCloser: rc, under: f}, nil
}

// NewReader wraps r with a decompressor for algo.
func NewReader(r io.Reader, algo Algorithm) (io.ReadCloser, error) {
	switch algo {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", algo)
	}
}

// NewWriter wraps w with a compressor for algo. Closing the returned writer
// flushes the compressor but does not close w.
func NewWriter(w io.Writer, algo Algorithm) (io.WriteCloser, error) {
	switch algo {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w)
	default:
		return nil, fmt.Errorf("unsupported compression %q", algo)
	}
}

// ReadFile reads the whole of path, decompressing as needed.
func ReadFile(path string) ([]byte, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

type stackedCloser struct {
	io.ReadCloser
	under io.Closer
}

func (s *stackedCloser) Close() error {
	err := s.ReadCloser.Close()
	if cerr := s.under.Close(); err == nil {
		err = cerr
	}
	return err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
