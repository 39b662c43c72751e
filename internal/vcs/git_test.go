package vcs

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/zaphod/internal/command"
)

func TestIsDirtyReadsPorcelain(t *testing.T) {
	tests := []struct {
		name   string
		status string
		dirty  bool
	}{
		{name: "clean", status: "", dirty: false},
		{name: "modified", status: " M paper/main.tex\n", dirty: true},
		{name: "untracked", status: "?? notes.tex\n", dirty: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &command.Fake{Handler: func(command.Call) (command.Output, error) {
				return command.Output{Stdout: tc.status}, nil
			}}
			dirty, status, err := New("/repo", fake).IsDirty(context.Background())
			if err != nil {
				t.Fatalf("IsDirty: %v", err)
			}
			if dirty != tc.dirty {
				t.Fatalf("dirty = %v, want %v", dirty, tc.dirty)
			}
			if status != strings.TrimRight(tc.status, "\n") {
				t.Fatalf("status = %q", status)
			}
			if fake.Calls[0].Dir != "/repo" {
				t.Fatalf("git ran in %q", fake.Calls[0].Dir)
			}
		})
	}
}

func TestBranchAndCommitCommands(t *testing.T) {
	fake := &command.Fake{}
	git := New("/repo", fake)
	ctx := context.Background()
	if err := git.CreateBranch(ctx, "1700000000-latexdiff-rev1", "master^"); err != nil {
		t.Fatal(err)
	}
	if err := git.Checkout(ctx, "master"); err != nil {
		t.Fatal(err)
	}
	if err := git.ResetHard(ctx); err != nil {
		t.Fatal(err)
	}
	if err := git.StageAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := git.Commit(ctx, "  Resolve changes "); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"git checkout -b 1700000000-latexdiff-rev1 master^",
		"git checkout master",
		"git reset --hard",
		"git add -A",
		"git commit -m Resolve changes",
	}
	got := fake.Lines()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("calls = %v\nwant %v", got, want)
	}
}

func TestCommitRequiresMessage(t *testing.T) {
	fake := &command.Fake{}
	if err := New("/repo", fake).Commit(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty message")
	}
	if len(fake.Calls) != 0 {
		t.Fatalf("git should not run, got %v", fake.Lines())
	}
}

func TestListFilesFiltersByExtension(t *testing.T) {
	fake := &command.Fake{Handler: func(command.Call) (command.Output, error) {
		return command.Output{Stdout: "paper/main.tex\nREADME.md\nappendix.TEX\nfigures/plot.png\n"}, nil
	}}
	files, err := New("/repo", fake).ListFiles(context.Background(), ".tex")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"appendix.TEX", filepath.FromSlash("paper/main.tex")}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Fatalf("files = %v, want %v", files, want)
	}
}

func TestShowMissingPath(t *testing.T) {
	fake := &command.Fake{Handler: func(c command.Call) (command.Output, error) {
		if c.Args[0] == "cat-file" {
			return command.Output{ExitCode: 128}, &command.CollaboratorError{Tool: "git", ExitCode: 128}
		}
		return command.Output{Stdout: "content"}, nil
	}}
	text, ok, err := New("/repo", fake).Show(context.Background(), "master^", "new.tex")
	if err != nil || ok || text != "" {
		t.Fatalf("Show = %q, %v, %v", text, ok, err)
	}
}

func TestGitErrorsAreWrapped(t *testing.T) {
	boom := &command.CollaboratorError{Tool: "git", Args: []string{"add", "-A"}, ExitCode: 1}
	fake := &command.Fake{Handler: func(command.Call) (command.Output, error) {
		return command.Output{ExitCode: 1}, boom
	}}
	err := New("/repo", fake).StageAll(context.Background())
	var collab *command.CollaboratorError
	if !errors.As(err, &collab) || !strings.HasPrefix(err.Error(), "vcs: ") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCurrentBranch(t *testing.T) {
	tests := []struct {
		name   string
		abbrev string
		want   string
		calls  int
	}{
		{name: "on a branch", abbrev: "master\n", want: "master", calls: 1},
		{name: "detached", abbrev: "HEAD\n", want: "4f2c9a1e", calls: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &command.Fake{Handler: func(c command.Call) (command.Output, error) {
				if len(c.Args) == 3 && c.Args[1] == "--abbrev-ref" {
					return command.Output{Stdout: tc.abbrev}, nil
				}
				return command.Output{Stdout: "4f2c9a1e\n"}, nil
			}}
			got, err := New("/repo", fake).CurrentBranch(context.Background())
			if err != nil {
				t.Fatalf("CurrentBranch: %v", err)
			}
			if got != tc.want || len(fake.Calls) != tc.calls {
				t.Fatalf("CurrentBranch = %q after %v", got, fake.Lines())
			}
		})
	}
}
