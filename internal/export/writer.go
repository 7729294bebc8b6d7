package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"semdiff/internal/compression"
	"semdiff/internal/errors"
)

// WriterFactory opens exporter destinations. Output always goes to the
// console; with a configured path it is also written to that file, or to the
// exporter's default file name when the path is an existing directory.
// Files ending in .gz or .zst are compressed.
type WriterFactory struct {
	path    string
	console io.Writer

	mu     sync.Mutex
	opened map[string]bool
}

// NewWriterFactory creates a factory. console may be nil to write files only.
func NewWriterFactory(path string, console io.Writer) *WriterFactory {
	return &WriterFactory{path: path, console: console, opened: make(map[string]bool)}
}

// Path is the configured output path, or "" for console only.
func (f *WriterFactory) Path() string {
	return f.path
}

// Create opens a writer. The first Create of a file truncates it; later ones
// append, so a pair exporter pointed at a single file collects every pair.
func (f *WriterFactory) Create(defaultName string) (io.WriteCloser, error) {
	if f.path == "" {
		if f.console == nil {
			return nopWriteCloser{io.Discard}, nil
		}
		return nopWriteCloser{f.console}, nil
	}

	target := f.path
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		if defaultName == "" {
			return nil, errors.New(errors.OutputFailed,
				"output path is a directory but the exporter has no default file name; point --output at a file instead", nil)
		}
		target = filepath.Join(target, filepath.FromSlash(defaultName))
	}

	f.mu.Lock()
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if f.opened[target] {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f.opened[target] = true
	f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, errors.New(errors.OutputFailed, fmt.Sprintf("failed to create %s", filepath.Dir(target)), err)
	}
	file, err := os.OpenFile(target, flag, 0o644)
	if err != nil {
		return nil, errors.New(errors.OutputFailed, fmt.Sprintf("failed to open %s", target), err)
	}
	cw, err := compression.NewWriter(file, compression.Detect(target))
	if err != nil {
		_ = file.Close()
		return nil, errors.New(errors.OutputFailed, fmt.Sprintf("failed to open %s", target), err)
	}

	w := &fileWriter{compressor: cw, file: file, Writer: cw}
	if f.console != nil {
		w.Writer = io.MultiWriter(f.console, cw)
	}
	return w, nil
}

type fileWriter struct {
	io.Writer
	compressor io.WriteCloser
	file       *os.File
}

func (w *fileWriter) Close() error {
	err := w.compressor.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	return err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// writeAll writes data through a writer from wf and closes it.
func writeAll(wf *WriterFactory, defaultName string, data []byte) (err error) {
	w, err := wf.Create(defaultName)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = errors.New(errors.OutputFailed, "failed to finish output", cerr)
		}
	}()
	if _, err := w.Write(data); err != nil {
		return errors.New(errors.OutputFailed, "failed to write output", err)
	}
	return nil
}
