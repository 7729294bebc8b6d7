package slogutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// RotatingFile is a log file that is shifted to path.1, path.2, ... once a
// write would take it past maxSize bytes. A zero maxSize never rotates.
type RotatingFile struct {
	mu      sync.Mutex
	path    string
	limit   int64
	backups int

	f       *os.File
	written int64
}

// OpenRotatingFile opens path for appending, creating parent directories.
// With zero maxBackups a full file is discarded instead of kept.
func OpenRotatingFile(path string, maxSize int64, maxBackups int) (*RotatingFile, error) {
	rf := &RotatingFile{path: path, limit: maxSize, backups: maxBackups}
	if err := rf.open(); err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return rf, nil
}

func (r *RotatingFile) open() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return err
	}
	r.f, r.written = f, info.Size()
	return nil
}

func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.limit > 0 && r.written+int64(len(p)) > r.limit {
		// A failed rotation keeps writing to whatever file is open.
		_ = r.shift()
	}
	if r.f == nil {
		return 0, os.ErrClosed
	}
	n, err := r.f.Write(p)
	r.written += int64(n)
	return n, err
}

func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

// shift closes the current file, moves path.N to path.N+1 dropping the
// oldest, and reopens an empty file.
func (r *RotatingFile) shift() error {
	if err := r.f.Close(); err != nil {
		return err
	}
	r.f = nil

	if r.backups == 0 {
		_ = os.Remove(r.path)
		return r.open()
	}
	_ = os.Remove(r.backup(r.backups))
	for i := r.backups - 1; i >= 1; i-- {
		if _, err := os.Stat(r.backup(i)); err == nil {
			_ = os.Rename(r.backup(i), r.backup(i+1))
		}
	}
	_ = os.Rename(r.path, r.backup(1))
	return r.open()
}

func (r *RotatingFile) backup(n int) string {
	return r.path + "." + strconv.Itoa(n)
}

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([KMG]?B)?$`)

var sizeUnits = map[string]float64{
	"":   1,
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
}

// ParseSize converts sizes such as "512", "10MB" or "1.5gb" to bytes.
// Empty or malformed input yields 0.
func ParseSize(s string) int64 {
	m := sizePattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return int64(v * sizeUnits[m[2]])
}
