// Package command runs the external tools zaphod collaborates with (git,
// latexdiff, pdflatex, bibtex) and turns their failures into
// CollaboratorError values.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Output captures what a finished command wrote.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes name with args in dir.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Output, error)
}

// Printer is satisfied by *logging.Logger.
type Printer interface {
	Printf(format string, args ...any)
}

// CollaboratorError reports a tool that could not be started or exited
// non-zero.
type CollaboratorError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CollaboratorError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Tool, strings.Join(e.Args, " "))
	msg = strings.TrimSpace(msg)
	switch {
	case e.Err != nil && e.ExitCode == 0:
		msg += ": " + e.Err.Error()
	default:
		msg += fmt.Sprintf(": exit status %d", e.ExitCode)
	}
	if stderr := lastLine(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// Exec runs commands on the host.
type Exec struct {
	log Printer
}

// NewExec returns a host runner that logs each invocation to log (which
// may be nil).
func NewExec(log Printer) *Exec {
	return &Exec{log: log}
}

// Run executes the command and returns its captured output. A non-zero exit
// is reported as *CollaboratorError alongside the output.
func (e *Exec) Run(ctx context.Context, dir, name string, args ...string) (Output, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.printf("run (%s): %s %s", displayDir(dir), name, strings.Join(args, " "))
	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return out, nil
	}

	collab := &CollaboratorError{Tool: name, Args: append([]string(nil), args...), Stderr: out.Stderr, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		collab.ExitCode = out.ExitCode
	}
	e.printf("failed: %s\n%s", collab.Error(), strings.TrimSpace(out.Stderr))
	return out, collab
}

func (e *Exec) printf(format string, args ...any) {
	if e == nil || e.log == nil {
		return
	}
	e.log.Printf(format, args...)
}

func displayDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
