// Package render turns a LaTeX main file into a pdf with pdflatex, running
// bibtex in between when the document has citations.
package render

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/zaphod/internal/command"
)

// ErrMissingArtifact is returned when the engine exits cleanly but no pdf
// was produced.
var ErrMissingArtifact = errors.New("render: pdf not produced")

// Job names one render.
type Job struct {
	// Dir is the directory the engine runs in.
	Dir       string
	Main      string
	JobName   string
	Citations bool
}

// Renderer runs the TeX toolchain.
type Renderer struct {
	runner command.Runner
	engine string
	bibtex string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithEngine overrides the TeX engine binary.
func WithEngine(name string) Option {
	return func(r *Renderer) {
		if strings.TrimSpace(name) != "" {
			r.engine = name
		}
	}
}

// WithBibtex overrides the bibliography binary.
func WithBibtex(name string) Option {
	return func(r *Renderer) {
		if strings.TrimSpace(name) != "" {
			r.bibtex = name
		}
	}
}

// New returns a renderer using pdflatex and bibtex by default.
func New(runner command.Runner, opts ...Option) *Renderer {
	r := &Renderer{runner: runner, engine: "pdflatex", bibtex: "bibtex"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Steps returns the command lines a job runs, in order.
func (r *Renderer) Steps(job Job) [][]string {
	latex := []string{r.engine, "-interaction", "batchmode", "-jobname=" + job.JobName, job.Main}
	if !job.Citations {
		return [][]string{latex}
	}
	return [][]string{latex, {r.bibtex, job.JobName}, latex, latex}
}

// Render runs the job and returns the path of the produced pdf.
func (r *Renderer) Render(ctx context.Context, job Job) (string, error) {
	if err := job.validate(); err != nil {
		return "", err
	}
	artifact := filepath.Join(job.Dir, job.JobName+".pdf")
	if err := os.Remove(artifact); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("render: remove stale %s: %w", artifact, err)
	}
	for _, step := range r.Steps(job) {
		if _, err := r.runner.Run(ctx, job.Dir, step[0], step[1:]...); err != nil {
			return "", fmt.Errorf("render %s: %w", job.JobName, err)
		}
	}
	if _, err := os.Stat(artifact); err != nil {
		return "", fmt.Errorf("render %s: %w (%s)", job.JobName, ErrMissingArtifact, artifact)
	}
	return artifact, nil
}

func (j Job) validate() error {
	switch {
	case strings.TrimSpace(j.Dir) == "":
		return fmt.Errorf("render: job dir is required")
	case strings.TrimSpace(j.Main) == "":
		return fmt.Errorf("render: main file is required")
	case strings.TrimSpace(j.JobName) == "":
		return fmt.Errorf("render: job name is required")
	}
	return nil
}
