// Package prompt asks for decisions on a plain line-oriented terminal. It is
// the provider used when stdin is not a terminal or the full-screen view is
// turned off.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/kingrea/zaphod/internal/decide"
	"github.com/kingrea/zaphod/internal/markup"
)

var (
	// ErrInputClosed is returned when stdin reaches EOF mid-question.
	ErrInputClosed = errors.New("prompt: input closed")
	// ErrAborted is returned when the user interrupts a free-form prompt.
	// Interrupting a decision prompt answers Quit instead.
	ErrAborted = errors.New("prompt: aborted")
)

const defaultWidth = 80

// reader reads one answer after printing a prompt.
type reader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// Line implements decide.Decider and decide.Asker on a line terminal.
type Line struct {
	in    reader
	out   io.Writer
	color bool
	width int
}

// Option configures a Line prompter.
type Option func(*Line)

// WithColor turns payload highlighting on or off.
func WithColor(on bool) Option {
	return func(l *Line) { l.color = on }
}

// WithWidth sets the excerpt width in columns.
func WithWidth(cols int) Option {
	return func(l *Line) {
		if cols > 0 {
			l.width = cols
		}
	}
}

// New returns a prompter reading answers from in.
func New(in io.Reader, out io.Writer, opts ...Option) *Line {
	l := &Line{
		in:    &bufReader{r: bufio.NewReader(in), out: out},
		out:   out,
		width: defaultWidth,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewTerminal returns a prompter on stdin/stdout. On a terminal it uses
// liner for line editing; otherwise it reads stdin line by line.
func NewTerminal(opts ...Option) *Line {
	base := []Option{WithColor(ColorEnabled() && IsTerminal())}
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		base = append(base, WithWidth(width))
	}
	l := New(os.Stdin, os.Stdout, append(base, opts...)...)
	if IsTerminal() {
		state := liner.NewLiner()
		state.SetCtrlCAborts(true)
		l.in = &linerReader{state: state}
	}
	return l
}

// IsTerminal reports whether stdin and stdout are both terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Close releases the terminal.
func (l *Line) Close() error {
	return l.in.Close()
}

// DecideSpan prints the span and asks until a valid answer arrives.
func (l *Line) DecideSpan(ctx context.Context, req decide.SpanRequest) (decide.Decision, error) {
	fence := "+++"
	found := "Addition found"
	if req.Kind == markup.Deletion {
		fence = "---"
		found = "Deletion found"
	}
	fmt.Fprintln(l.out, "======")
	fmt.Fprintf(l.out, "File under revision: %s (change %d of %d, line %d)\n", req.File, req.Index, req.Total, req.Line)
	if req.Before != "" || req.After != "" {
		half := l.width/2 - 4
		fmt.Fprintf(l.out, "  %s [...] %s\n", Excerpt(req.Before, half, true), Excerpt(req.After, half, false))
	}
	payload := req.Payload
	if l.color {
		payload = Highlight(payload)
	}
	fmt.Fprintf(l.out, "%s:\n%s\n%s\n%s\n", found, fence, payload, fence)
	return l.ask(ctx, req.Kind.Verb()+"? [y/n/q]: ")
}

// Confirm asks a yes/no question. q is accepted and reported as Quit.
func (l *Line) Confirm(ctx context.Context, question string) (decide.Decision, error) {
	return l.ask(ctx, question+" [y/n]: ")
}

// Ask reads a free-form answer, returning fallback for an empty line.
func (l *Line) Ask(ctx context.Context, question, fallback string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := question + ": "
	if fallback != "" {
		p = fmt.Sprintf("%s [%s]: ", question, fallback)
	}
	answer, err := l.in.Prompt(p)
	if err != nil {
		return "", err
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return fallback, nil
	}
	return answer, nil
}

func (l *Line) ask(ctx context.Context, p string) (decide.Decision, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		answer, err := l.in.Prompt(p)
		if errors.Is(err, ErrAborted) {
			fmt.Fprintln(l.out)
			return decide.Quit, nil
		}
		if err != nil {
			return 0, err
		}
		if d, ok := decide.Parse(answer); ok {
			return d, nil
		}
		fmt.Fprintln(l.out, "Invalid input. Try again.")
	}
}

type bufReader struct {
	r   *bufio.Reader
	out io.Writer
}

func (b *bufReader) Prompt(p string) (string, error) {
	fmt.Fprint(b.out, p)
	line, err := b.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(b.out)
			return "", ErrInputClosed
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (b *bufReader) Close() error { return nil }

type linerReader struct {
	state *liner.State
}

func (r *linerReader) Prompt(p string) (string, error) {
	answer, err := r.state.Prompt(p)
	switch {
	case errors.Is(err, liner.ErrPromptAborted):
		return "", ErrAborted
	case errors.Is(err, io.EOF):
		return "", ErrInputClosed
	case err != nil:
		return "", err
	}
	return answer, nil
}

func (r *linerReader) Close() error { return r.state.Close() }
