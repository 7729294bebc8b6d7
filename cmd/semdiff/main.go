package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"semdiff/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code:
// 0 success, 1 runtime failure, 2 usage or configuration error, 4 failed gate.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return 0
	}
	reportError(stderr, err)
	return exitCode(err)
}

// exitError ends the process with code. A nil err means the reason has
// already been logged.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// usageError marks bad command-line usage.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ee *exitError
	if stderrors.As(err, &ee) {
		return ee.code
	}
	var ue *usageError
	if stderrors.As(err, &ue) || errors.IsConfigError(err) {
		return 2
	}
	return 1
}

func reportError(w io.Writer, err error) {
	var ee *exitError
	if stderrors.As(err, &ee) && ee.err == nil {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)

	var se *errors.SemdiffError
	if !stderrors.As(err, &se) {
		return
	}
	for _, fix := range se.SuggestedFixes {
		switch {
		case fix.Command != "":
			fmt.Fprintf(w, "  hint: %s: %s\n", fix.Description, fix.Command)
		case fix.Key != "":
			fmt.Fprintf(w, "  hint: %s (config key %s)\n", fix.Description, fix.Key)
		}
	}
}
