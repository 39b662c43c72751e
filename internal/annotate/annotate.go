// internal/annotate/annotate.go
//
// The diff workflow. Given two revisions it creates a branch for each, runs
// latexdiff over every document that exists in either, commits the annotated
// sources (and the rendered pdf) on a third branch, and leaves that branch
// checked out so `zaphod revise` can walk through the changes.

package annotate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kingrea/zaphod/internal/latexdiff"
	"github.com/kingrea/zaphod/internal/logbook"
	"github.com/kingrea/zaphod/internal/preflight"
	"github.com/kingrea/zaphod/internal/render"
)

// Repository is the slice of git the workflow uses.
type Repository interface {
	Dir() string
	IsDirty(ctx context.Context) (bool, string, error)
	CurrentBranch(ctx context.Context) (string, error)
	CreateBranch(ctx context.Context, name, from string) error
	Checkout(ctx context.Context, ref string) error
	ResetHard(ctx context.Context) error
	ListFiles(ctx context.Context, ext string) ([]string, error)
	Show(ctx context.Context, rev, path string) (string, bool, error)
	StageAll(ctx context.Context) error
	Commit(ctx context.Context, message string) error
}

// Differ annotates the changes between two files.
type Differ interface {
	Generate(ctx context.Context, oldPath, newPath string, opts latexdiff.Options) (string, error)
}

// Renderer builds the annotated pdf.
type Renderer interface {
	Render(ctx context.Context, job render.Job) (string, error)
}

// Request describes one diff run.
type Request struct {
	Rev1 string
	Rev2 string
	// Subdir is the document directory relative to the repository root.
	Subdir    string
	Main      string
	Extension string
	Citations bool
	Options   latexdiff.Options
}

// Result lists what the workflow produced.
type Result struct {
	Rev1Branch      string
	Rev2Branch      string
	AnnotatedBranch string
	Files           []string
	Artifact        string
	CommitMessage   string
}

// Workflow runs diff requests against one repository.
type Workflow struct {
	repo     Repository
	differ   Differ
	renderer Renderer
	book     *logbook.Logbook
	clock    func() time.Time
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithRenderer renders the annotated document before committing.
func WithRenderer(r Renderer) Option {
	return func(w *Workflow) { w.renderer = r }
}

// WithLogbook logs progress to book.
func WithLogbook(book *logbook.Logbook) Option {
	return func(w *Workflow) { w.book = book }
}

// WithClock overrides time.Now for branch stamps.
func WithClock(clock func() time.Time) Option {
	return func(w *Workflow) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// New returns a workflow.
func New(repo Repository, differ Differ, opts ...Option) *Workflow {
	w := &Workflow{repo: repo, differ: differ, clock: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Branches returns the three branch names for a run stamped at t.
func Branches(t time.Time) (rev1, rev2, annotated string) {
	stamp := t.UTC().Format("20060102150405")
	return stamp + "-latexdiff-rev1", stamp + "-latexdiff-rev2", stamp + "-latexdiff-annotated"
}

var unsafeJobChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// JobName returns the render job for a rev1..rev2 diff.
func JobName(rev1, rev2 string) string {
	clean := func(s string) string {
		return strings.Trim(unsafeJobChars.ReplaceAllString(s, "_"), "_")
	}
	return "diff-" + clean(rev1) + "-" + clean(rev2)
}

// CommitMessage is the message recorded on the annotated branch.
func CommitMessage(rev1, rev2 string) string {
	return fmt.Sprintf("Save annotated changes between %s and %s", rev1, rev2)
}

// Run executes the workflow. When any step after the preflight fails, the
// working tree is reset and the branch that was checked out at the start is
// restored. The run branches stay behind for inspection.
func (w *Workflow) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Rev1) == "" || strings.TrimSpace(req.Rev2) == "" {
		return nil, fmt.Errorf("annotate: both revisions are required")
	}
	if err := preflight.CheckClean(ctx, w.repo); err != nil {
		return nil, err
	}
	start, err := w.repo.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	var created []string
	res, err := w.run(ctx, req, &created)
	if err != nil {
		w.restore(ctx, start, created)
		return nil, err
	}
	return res, nil
}

// restore returns the repository to start, removing the untracked files the
// run wrote. Failures are logged only, so the caller still sees the error
// that stopped the run.
func (w *Workflow) restore(ctx context.Context, start string, created []string) {
	ctx = context.WithoutCancel(ctx)
	for _, path := range created {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			w.book.Warn("remove %s after failed diff: %v", path, err)
		}
	}
	if err := w.repo.ResetHard(ctx); err != nil {
		w.book.Warn("reset after failed diff: %v", err)
		return
	}
	if err := w.repo.Checkout(ctx, start); err != nil {
		w.book.Warn("return to %s after failed diff: %v", start, err)
		return
	}
	w.book.Warn("diff failed, returned to %s", start)
}

// run does the work of Run. Files it writes that did not exist on the
// annotated branch are appended to created.
func (w *Workflow) run(ctx context.Context, req Request, created *[]string) (*Result, error) {
	res := &Result{CommitMessage: CommitMessage(req.Rev1, req.Rev2)}
	res.Rev1Branch, res.Rev2Branch, res.AnnotatedBranch = Branches(w.clock())

	if err := w.repo.CreateBranch(ctx, res.Rev1Branch, req.Rev1); err != nil {
		return nil, err
	}
	files, err := w.documents(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := w.repo.CreateBranch(ctx, res.Rev2Branch, req.Rev2); err != nil {
		return nil, err
	}
	more, err := w.documents(ctx, req)
	if err != nil {
		return nil, err
	}
	res.Files = union(files, more)
	if len(res.Files) == 0 {
		return nil, fmt.Errorf("annotate: no %s files under %s", req.Extension, displaySubdir(req.Subdir))
	}
	w.book.Info("diffing %d file(s) between %s and %s", len(res.Files), req.Rev1, req.Rev2)

	snapshots, err := os.MkdirTemp("", "zaphod-diff-*")
	if err != nil {
		return nil, fmt.Errorf("annotate: snapshot dir: %w", err)
	}
	defer os.RemoveAll(snapshots)

	oldPaths, err := w.snapshot(ctx, snapshots, "rev1", res.Rev1Branch, res.Files)
	if err != nil {
		return nil, err
	}
	newPaths, err := w.snapshot(ctx, snapshots, "rev2", res.Rev2Branch, res.Files)
	if err != nil {
		return nil, err
	}

	if err := w.repo.CreateBranch(ctx, res.AnnotatedBranch, res.Rev2Branch); err != nil {
		return nil, err
	}
	for i, rel := range res.Files {
		text, err := w.differ.Generate(ctx, oldPaths[i], newPaths[i], req.Options)
		if err != nil {
			return nil, fmt.Errorf("annotate %s: %w", rel, err)
		}
		target := filepath.Join(w.repo.Dir(), rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("annotate %s: %w", rel, err)
		}
		if _, err := os.Stat(target); os.IsNotExist(err) {
			*created = append(*created, target)
		}
		if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
			return nil, fmt.Errorf("annotate %s: %w", rel, err)
		}
		w.book.Info("annotated %s", rel)
	}

	if w.renderer != nil {
		job := render.Job{
			Dir:       filepath.Join(w.repo.Dir(), req.Subdir),
			Main:      req.Main,
			JobName:   JobName(req.Rev1, req.Rev2),
			Citations: req.Citations,
		}
		artifact, err := w.renderer.Render(ctx, job)
		if err != nil {
			return nil, err
		}
		res.Artifact = artifact
		w.book.Info("rendered %s", artifact)
	}

	if err := w.repo.StageAll(ctx); err != nil {
		return nil, err
	}
	if err := w.repo.Commit(ctx, res.CommitMessage); err != nil {
		return nil, err
	}
	w.book.Info("committed annotated sources on %s", res.AnnotatedBranch)
	return res, nil
}

// documents lists tracked documents under the request subdir at the
// checked out revision.
func (w *Workflow) documents(ctx context.Context, req Request) ([]string, error) {
	all, err := w.repo.ListFiles(ctx, req.Extension)
	if err != nil {
		return nil, err
	}
	prefix := filepath.Clean(req.Subdir)
	if prefix == "." || prefix == "" {
		return all, nil
	}
	var files []string
	for _, f := range all {
		if strings.HasPrefix(f, prefix+string(filepath.Separator)) {
			files = append(files, f)
		}
	}
	return files, nil
}

// snapshot writes every file as it exists at rev into dir/label. Files
// missing at rev become empty so latexdiff sees them as wholly added or
// removed.
func (w *Workflow) snapshot(ctx context.Context, dir, label, rev string, files []string) ([]string, error) {
	paths := make([]string, len(files))
	for i, rel := range files {
		text, ok, err := w.repo.Show(ctx, rev, rel)
		if err != nil {
			return nil, fmt.Errorf("annotate: read %s at %s: %w", rel, rev, err)
		}
		if !ok {
			w.book.Warn("%s missing at %s, diffing against an empty file", rel, rev)
		}
		path := filepath.Join(dir, label, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("annotate: snapshot %s: %w", rel, err)
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return nil, fmt.Errorf("annotate: snapshot %s: %w", rel, err)
		}
		paths[i] = path
	}
	return paths, nil
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, f := range list {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	sort.Strings(out)
	return out
}

func displaySubdir(subdir string) string {
	if strings.TrimSpace(subdir) == "" {
		return "."
	}
	return subdir
}
