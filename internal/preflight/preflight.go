// Package preflight verifies the environment before zaphod touches the
// working tree: a clean git status, the document location, and the external
// tools each workflow needs.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var (
	// ErrDirtyTree means git reports modified or untracked files.
	ErrDirtyTree = errors.New("preflight: modified or untracked files found")
	// ErrMissingTool means a required binary is not on PATH.
	ErrMissingTool = errors.New("preflight: required tool not found")
	// ErrMissingPath means the document subdir or main file does not exist.
	ErrMissingPath = errors.New("preflight: path not found")
)

// StatusChecker reports whether the working tree is dirty.
type StatusChecker interface {
	IsDirty(ctx context.Context) (bool, string, error)
}

// Checks describes what to verify.
type Checks struct {
	Subdir string
	Main   string
	Tools  []string
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// Tools lists the binaries a workflow needs.
func Tools(engine, bibtex string, diff, citations bool) []string {
	tools := []string{"git", engine}
	if diff {
		tools = append(tools, "latexdiff")
	}
	if citations {
		tools = append(tools, bibtex)
	}
	return tools
}

// CheckClean refuses a dirty tree, including the porcelain listing in the
// error.
func CheckClean(ctx context.Context, status StatusChecker) error {
	dirty, listing, err := status.IsDirty(ctx)
	if err != nil {
		return fmt.Errorf("preflight: git status: %w", err)
	}
	if dirty {
		return fmt.Errorf("%w\ngit status output:\n%s\nPlease stash or commit and rerun zaphod", ErrDirtyTree, listing)
	}
	return nil
}

// Run performs every check and reports all problems found.
func Run(ctx context.Context, c Checks, status StatusChecker) error {
	var errs []error
	if status != nil {
		if err := CheckClean(ctx, status); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Subdir != "" {
		if info, err := os.Stat(c.Subdir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("%w: subdirectory %s", ErrMissingPath, c.Subdir))
		} else if c.Main != "" {
			main := filepath.Join(c.Subdir, c.Main)
			if info, err := os.Stat(main); err != nil || info.IsDir() {
				errs = append(errs, fmt.Errorf("%w: main file %s", ErrMissingPath, main))
			}
		}
	}
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	seen := map[string]bool{}
	for _, tool := range c.Tools {
		tool = strings.TrimSpace(tool)
		if tool == "" || seen[tool] {
			continue
		}
		seen[tool] = true
		if _, err := lookPath(tool); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingTool, tool))
		}
	}
	return errors.Join(errs...)
}
