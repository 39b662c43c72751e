package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/zaphod/internal/decide"
	"github.com/kingrea/zaphod/internal/logbook"
	"github.com/kingrea/zaphod/internal/prompt"
)

var (
	// ErrNoAnswer is returned when the program exits without an answer, e.g.
	// when the terminal goes away.
	ErrNoAnswer = errors.New("tui: no answer given")
	// ErrCancelled is returned when a free-form question is interrupted.
	ErrCancelled = errors.New("tui: cancelled")
)

// Decider implements decide.Decider and decide.Asker with one bubbletea
// program per question.
type Decider struct {
	logbook *logbook.Logbook
	color   bool
	options []tea.ProgramOption
}

// DeciderOption customizes the Decider.
type DeciderOption func(*Decider)

// WithProgramOptions passes options through to every tea.Program.
func WithProgramOptions(opts ...tea.ProgramOption) DeciderOption {
	return func(d *Decider) { d.options = append(d.options, opts...) }
}

// WithColor turns payload highlighting on or off.
func WithColor(on bool) DeciderOption {
	return func(d *Decider) { d.color = on }
}

// NewDecider returns a full-screen decision provider that shows the tail of
// book under every question.
func NewDecider(book *logbook.Logbook, opts ...DeciderOption) *Decider {
	d := &Decider{logbook: book, color: prompt.ColorEnabled()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DecideSpan shows the span and waits for y/n/q.
func (d *Decider) DecideSpan(ctx context.Context, req decide.SpanRequest) (decide.Decision, error) {
	m, err := d.run(ctx, NewSpanModel(req, d.logbook, d.color))
	if err != nil {
		return 0, err
	}
	return m.decision, nil
}

// Confirm asks a yes/no question.
func (d *Decider) Confirm(ctx context.Context, question string) (decide.Decision, error) {
	m, err := d.run(ctx, NewConfirmModel(question, d.logbook))
	if err != nil {
		return 0, err
	}
	return m.decision, nil
}

// Ask reads free text, returning fallback when left empty.
func (d *Decider) Ask(ctx context.Context, question, fallback string) (string, error) {
	m, err := d.run(ctx, NewAskModel(question, fallback, d.logbook))
	if err != nil {
		return "", err
	}
	if m.decision == decide.Quit {
		return "", ErrCancelled
	}
	return m.answer, nil
}

func (d *Decider) run(ctx context.Context, m *Model) (*Model, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, d.options...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("tui: %w", err)
	}
	done, ok := final.(*Model)
	if !ok || !done.done {
		return nil, ErrNoAnswer
	}
	return done, nil
}
