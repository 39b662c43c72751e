package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/zaphod/internal/decide"
	"github.com/kingrea/zaphod/internal/logbook"
	"github.com/kingrea/zaphod/internal/markup"
	"github.com/kingrea/zaphod/internal/render"
	"github.com/kingrea/zaphod/internal/resolve"
)

// Confirmation questions asked once the files are done.
const (
	QuestionRender  = "Generate pdf?"
	QuestionCommit  = "Commit current changes?"
	QuestionMessage = "Commit message"
)

// Renderer produces the pdf for the revised document.
type Renderer interface {
	Render(ctx context.Context, job render.Job) (string, error)
}

// Committer stages and commits the working tree.
type Committer interface {
	StageAll(ctx context.Context) error
	Commit(ctx context.Context, message string) error
}

// Recorder stores individual decisions, e.g. in the journal.
type Recorder interface {
	Record(ctx context.Context, runID, file string, res resolve.Resolution) error
}

// Status is the outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusQuit      Status = "quit"
	StatusFailed    Status = "failed"
)

// Failure describes a file that could not be resolved.
type Failure struct {
	File    string `json:"file"`
	Kind    string `json:"kind,omitempty"`
	Offset  int    `json:"offset"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// FileOutcome summarizes the decisions made in one file.
type FileOutcome struct {
	File      string `json:"file"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Accepted  int    `json:"accepted"`
	Rejected  int    `json:"rejected"`
	Pending   int    `json:"pending"`
	Written   bool   `json:"written"`
}

// RunState is the record of one batch run.
type RunState struct {
	RunID         string        `json:"run_id"`
	Files         []string      `json:"files"`
	Modified      []string      `json:"modified"`
	Failures      []Failure     `json:"failures,omitempty"`
	Outcomes      []FileOutcome `json:"outcomes,omitempty"`
	Status        Status        `json:"status"`
	Error         string        `json:"error,omitempty"`
	Artifact      string        `json:"artifact,omitempty"`
	Committed     bool          `json:"committed"`
	CommitMessage string        `json:"commit_message,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
}

// markModified appends path to the modified set. The set only grows.
func (s *RunState) markModified(path string) {
	for _, existing := range s.Modified {
		if existing == path {
			return
		}
	}
	s.Modified = append(s.Modified, path)
}

// Accepted totals accepted spans across files.
func (s *RunState) Accepted() int {
	n := 0
	for _, o := range s.Outcomes {
		n += o.Accepted
	}
	return n
}

// Rejected totals rejected spans across files.
func (s *RunState) Rejected() int {
	n := 0
	for _, o := range s.Outcomes {
		n += o.Rejected
	}
	return n
}

// Driver resolves a set of files with one decision provider and finishes
// with the optional render and commit steps.
type Driver struct {
	decider   decide.Decider
	engine    *resolve.Engine
	renderer  Renderer
	job       render.Job
	committer Committer
	recorder  Recorder
	book      *logbook.Logbook
	message   string
	clock     func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithEngine replaces the default resolution engine.
func WithEngine(e *resolve.Engine) Option {
	return func(d *Driver) {
		if e != nil {
			d.engine = e
		}
	}
}

// WithRenderer enables the render step for job.
func WithRenderer(r Renderer, job render.Job) Option {
	return func(d *Driver) {
		d.renderer = r
		d.job = job
	}
}

// WithCommitter enables the commit step.
func WithCommitter(c Committer) Option {
	return func(d *Driver) { d.committer = c }
}

// WithRecorder stores every decision through r.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) { d.recorder = r }
}

// WithLogbook logs the run to book.
func WithLogbook(book *logbook.Logbook) Option {
	return func(d *Driver) { d.book = book }
}

// WithCommitMessage fixes the commit message so none is asked for.
func WithCommitMessage(msg string) Option {
	return func(d *Driver) { d.message = strings.TrimSpace(msg) }
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(d *Driver) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// NewDriver returns a driver asking decider.
func NewDriver(decider decide.Decider, opts ...Option) *Driver {
	d := &Driver{
		decider: decider,
		engine:  resolve.New(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run resolves files in order. Malformed files are recorded and skipped;
// Quit stops the batch. The returned state is non-nil even on error so the
// caller can persist what happened.
func (d *Driver) Run(ctx context.Context, files []string) (*RunState, error) {
	state := &RunState{
		RunID:     uuid.NewString(),
		Files:     append([]string(nil), files...),
		Status:    StatusRunning,
		StartedAt: d.clock().UTC(),
	}
	if d.decider == nil {
		return d.fail(state, nil, fmt.Errorf("batch: decider is required"))
	}
	book := d.book.ForRun(state.RunID)
	book.Info("run started with %d file(s)", len(files))

	quit := false
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return d.fail(state, book, err)
		}
		outcome, res, err := d.resolveFile(ctx, state, book, path)
		if err != nil {
			var malformed *markup.MalformedError
			if errors.As(err, &malformed) {
				state.Failures = append(state.Failures, Failure{
					File:    path,
					Kind:    malformed.Kind.String(),
					Offset:  malformed.Offset,
					Line:    malformed.Line,
					Message: err.Error(),
				})
				book.Error("%s left unmodified: %v", path, err)
				continue
			}
			return d.fail(state, book, err)
		}
		state.Outcomes = append(state.Outcomes, outcome)
		if res.Status == resolve.StateQuit {
			quit = true
			book.Warn("quit in %s with %d span(s) pending", path, outcome.Pending)
			break
		}
	}

	if quit {
		state.Status = StatusQuit
	} else {
		state.Status = StatusCompleted
	}
	if err := d.finish(ctx, state, book); err != nil {
		return d.fail(state, book, err)
	}
	state.FinishedAt = d.clock().UTC()
	book.Info("run %s: %d modified, %d accepted, %d rejected, %d failed",
		state.Status, len(state.Modified), state.Accepted(), state.Rejected(), len(state.Failures))
	return state, nil
}

func (d *Driver) resolveFile(ctx context.Context, state *RunState, book *logbook.Logbook, path string) (FileOutcome, resolve.Result, error) {
	raw, perm, err := readDocument(path)
	if err != nil {
		return FileOutcome{}, resolve.Result{}, err
	}
	res, err := d.engine.Resolve(ctx, path, markup.Parse(raw), d.decider)
	if err != nil {
		return FileOutcome{}, resolve.Result{}, err
	}
	outcome := FileOutcome{
		File:      path,
		Additions: res.Counts.Additions,
		Deletions: res.Counts.Deletions,
		Accepted:  res.Accepted(),
		Rejected:  res.Rejected(),
		Pending:   res.Pending(),
	}
	for _, r := range res.Resolutions {
		book.Info("%s line %d: %s %s", path, r.Span.Line, r.Decision, r.Span.Kind)
		if d.recorder == nil {
			continue
		}
		if err := d.recorder.Record(ctx, state.RunID, path, r); err != nil {
			book.Warn("journal: %v", err)
		}
	}
	if !res.Changed() {
		return outcome, res, nil
	}
	if err := writeDocument(path, res.Text, perm); err != nil {
		return outcome, res, err
	}
	outcome.Written = true
	state.markModified(path)
	book.Info("wrote %s", path)
	return outcome, res, nil
}

// finish offers render and commit when something was written. A Quit answer
// counts as no and skips the remaining questions.
func (d *Driver) finish(ctx context.Context, state *RunState, book *logbook.Logbook) error {
	if len(state.Modified) == 0 {
		book.Info("no files modified, skipping render and commit")
		return nil
	}

	answer, err := d.decider.Confirm(ctx, QuestionRender)
	if err != nil {
		return fmt.Errorf("batch: confirm render: %w", err)
	}
	if answer == decide.Quit {
		return nil
	}
	if answer == decide.Accept {
		if d.renderer == nil {
			book.Warn("render requested but no renderer configured")
		} else {
			artifact, err := d.renderer.Render(ctx, d.job)
			if err != nil {
				return err
			}
			state.Artifact = artifact
			book.Info("rendered %s", artifact)
		}
	}

	answer, err = d.decider.Confirm(ctx, QuestionCommit)
	if err != nil {
		return fmt.Errorf("batch: confirm commit: %w", err)
	}
	if answer != decide.Accept {
		return nil
	}
	if d.committer == nil {
		book.Warn("commit requested but no committer configured")
		return nil
	}
	message, err := d.commitMessage(ctx, state)
	if err != nil {
		return err
	}
	if err := d.committer.StageAll(ctx); err != nil {
		return err
	}
	if err := d.committer.Commit(ctx, message); err != nil {
		return err
	}
	state.Committed = true
	state.CommitMessage = message
	book.Info("committed %q", message)
	return nil
}

func (d *Driver) commitMessage(ctx context.Context, state *RunState) (string, error) {
	if d.message != "" {
		return d.message, nil
	}
	fallback := DefaultCommitMessage(len(state.Modified))
	asker, ok := d.decider.(decide.Asker)
	if !ok {
		return fallback, nil
	}
	msg, err := asker.Ask(ctx, QuestionMessage, fallback)
	if err != nil {
		return "", fmt.Errorf("batch: ask commit message: %w", err)
	}
	if msg = strings.TrimSpace(msg); msg == "" {
		return fallback, nil
	}
	return msg, nil
}

func (d *Driver) fail(state *RunState, book *logbook.Logbook, err error) (*RunState, error) {
	state.Status = StatusFailed
	state.Error = err.Error()
	state.FinishedAt = d.clock().UTC()
	book.Error("run failed: %v", err)
	return state, err
}

// DefaultCommitMessage is offered when no message is configured.
func DefaultCommitMessage(files int) string {
	if files == 1 {
		return "Resolve tracked changes in 1 file"
	}
	return fmt.Sprintf("Resolve tracked changes in %d files", files)
}
