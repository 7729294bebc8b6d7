package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"semdiff/internal/breaking"
	"semdiff/internal/difftree"
	"semdiff/internal/errors"
)

// Argument placeholders substituted by ExecEngine.
const (
	PlaceholderOld = "{old}"
	PlaceholderNew = "{new}"
)

// ExecEngine delegates the comparison to an external command that prints a
// JSON diff tree on stdout. Empty output means no difference.
type ExecEngine struct {
	Command string
	// Args may reference {old} and {new}. When neither appears the two
	// paths are appended.
	Args    []string
	Timeout time.Duration
}

// Diff runs the command for one pair.
func (e *ExecEngine) Diff(ctx context.Context, old, new breaking.Artifact) (*difftree.Node, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.Command, e.args(old.Path, new.Path)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := fmt.Sprintf("diff engine %s failed for %s", e.Command, old.Name)
		if s := strings.TrimSpace(stderr.String()); s != "" {
			msg += " (" + s + ")"
		}
		if ctx.Err() == context.DeadlineExceeded {
			msg += fmt.Sprintf(" after %s", e.Timeout)
		}
		return nil, errors.New(errors.EngineFailed, msg, err)
	}

	root, err := difftree.Decode(&stdout, difftree.FormatJSON)
	if err != nil {
		return nil, errors.New(errors.DecodeFailed, fmt.Sprintf("diff engine %s printed an invalid tree for %s", e.Command, old.Name), err)
	}
	return root, nil
}

func (e *ExecEngine) args(oldPath, newPath string) []string {
	out := make([]string, 0, len(e.Args)+2)
	substituted := false
	for _, a := range e.Args {
		if strings.Contains(a, PlaceholderOld) || strings.Contains(a, PlaceholderNew) {
			substituted = true
		}
		a = strings.ReplaceAll(a, PlaceholderOld, oldPath)
		a = strings.ReplaceAll(a, PlaceholderNew, newPath)
		out = append(out, a)
	}
	if !substituted {
		out = append(out, oldPath, newPath)
	}
	return out
}
