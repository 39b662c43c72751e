// Package vcs wraps the git operations zaphod needs: branch bookkeeping for
// the diff workflow, the dirty-tree check, and staging and committing
// resolved documents.
package vcs

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kingrea/zaphod/internal/command"
)

// Git runs git in a single working tree.
type Git struct {
	dir    string
	runner command.Runner
}

// New returns a Git bound to dir.
func New(dir string, runner command.Runner) *Git {
	return &Git{dir: dir, runner: runner}
}

// Dir returns the working tree root.
func (g *Git) Dir() string { return g.dir }

// Status returns the porcelain status listing.
func (g *Git) Status(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// IsDirty reports whether the tree has modified or untracked entries.
func (g *Git) IsDirty(ctx context.Context) (bool, string, error) {
	status, err := g.Status(ctx)
	if err != nil {
		return false, "", err
	}
	return strings.TrimSpace(status) != "", status, nil
}

// CreateBranch creates name at from and checks it out.
func (g *Git) CreateBranch(ctx context.Context, name, from string) error {
	_, err := g.git(ctx, "checkout", "-b", name, from)
	return err
}

// Checkout switches to ref.
func (g *Git) Checkout(ctx context.Context, ref string) error {
	_, err := g.git(ctx, "checkout", ref)
	return err
}

// ResetHard discards working tree changes.
func (g *Git) ResetHard(ctx context.Context) error {
	_, err := g.git(ctx, "reset", "--hard")
	return err
}

// StageAll stages every change in the tree.
func (g *Git) StageAll(ctx context.Context) error {
	_, err := g.git(ctx, "add", "-A")
	return err
}

// Commit records the staged changes.
func (g *Git) Commit(ctx context.Context, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("vcs: commit message is required")
	}
	_, err := g.git(ctx, "commit", "-m", message)
	return err
}

// CurrentBranch returns the checked out branch name, or the commit hash
// when HEAD is detached.
func (g *Git) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if name := strings.TrimSpace(out); name != "HEAD" {
		return name, nil
	}
	out, err = g.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ListFiles returns the tracked files with extension ext at the checked out
// revision, relative to the tree root and sorted.
func (g *Git) ListFiles(ctx context.Context, ext string) ([]string, error) {
	out, err := g.git(ctx, "ls-files")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(filepath.Ext(line), ext) {
			files = append(files, filepath.FromSlash(line))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Show returns the content of path at rev. A path missing at that revision
// returns ok == false.
func (g *Git) Show(ctx context.Context, rev, path string) (string, bool, error) {
	object := rev + ":" + filepath.ToSlash(path)
	if _, err := g.git(ctx, "cat-file", "-e", object); err != nil {
		return "", false, nil
	}
	out, err := g.git(ctx, "show", object)
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

func (g *Git) git(ctx context.Context, args ...string) (string, error) {
	out, err := g.runner.Run(ctx, g.dir, "git", args...)
	if err != nil {
		return out.Stdout, fmt.Errorf("vcs: %w", err)
	}
	return out.Stdout, nil
}
