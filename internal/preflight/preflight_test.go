package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeStatus struct {
	dirty   bool
	listing string
	err     error
}

func (f fakeStatus) IsDirty(context.Context) (bool, string, error) {
	return f.dirty, f.listing, f.err
}

func lookPathFor(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestCheckCleanIncludesListing(t *testing.T) {
	err := CheckClean(context.Background(), fakeStatus{dirty: true, listing: " M main.tex"})
	if !errors.Is(err, ErrDirtyTree) {
		t.Fatalf("expected ErrDirtyTree, got %v", err)
	}
	if !strings.Contains(err.Error(), " M main.tex") {
		t.Fatalf("listing missing from %q", err.Error())
	}
	if err := CheckClean(context.Background(), fakeStatus{}); err != nil {
		t.Fatalf("clean tree: %v", err)
	}
}

func TestRunReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	checks := Checks{
		Subdir:   dir,
		Main:     "main.tex",
		Tools:    Tools("pdflatex", "bibtex", true, true),
		LookPath: lookPathFor("git", "pdflatex"),
	}
	err := Run(context.Background(), checks, fakeStatus{dirty: true, listing: "?? notes.tex"})
	for _, want := range []error{ErrDirtyTree, ErrMissingPath, ErrMissingTool} {
		if !errors.Is(err, want) {
			t.Fatalf("expected %v in %v", want, err)
		}
	}
	for _, tool := range []string{"latexdiff", "bibtex"} {
		if !strings.Contains(err.Error(), tool) {
			t.Fatalf("missing tool %s not reported: %v", tool, err)
		}
	}
}

func TestRunPasses(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.tex"), []byte(`\documentclass{article}`), 0o644); err != nil {
		t.Fatal(err)
	}
	checks := Checks{
		Subdir:   dir,
		Main:     "main.tex",
		Tools:    Tools("pdflatex", "bibtex", false, false),
		LookPath: lookPathFor("git", "pdflatex"),
	}
	if err := Run(context.Background(), checks, fakeStatus{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunMissingSubdir(t *testing.T) {
	checks := Checks{Subdir: filepath.Join(t.TempDir(), "nope"), LookPath: lookPathFor()}
	if err := Run(context.Background(), checks, nil); !errors.Is(err, ErrMissingPath) {
		t.Fatalf("expected ErrMissingPath, got %v", err)
	}
}
