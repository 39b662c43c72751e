package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kingrea/zaphod/internal/decide"
	"github.com/kingrea/zaphod/internal/markup"
)

// State enumerates the resolver's positions in a buffer.
type State int

const (
	StateScanning State = iota
	StateAwaitingDecision
	StateDone
	StateQuit
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateAwaitingDecision:
		return "awaiting-decision"
	case StateDone:
		return "done"
	case StateQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == StateDone || s == StateQuit }

const defaultContextBytes = 120

// Engine walks a document span by span and rewrites it from decisions.
type Engine struct {
	contextBytes int
}

// Option customizes the engine instance.
type Option func(*Engine)

// WithContextBytes sets how much surrounding text accompanies each prompt.
func WithContextBytes(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.contextBytes = n
		}
	}
}

// New builds an engine.
func New(opts ...Option) *Engine {
	engine := &Engine{contextBytes: defaultContextBytes}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Resolution pairs a span with the decision applied to it.
type Resolution struct {
	Span     markup.Span
	Decision decide.Decision
}

// Result is the outcome of resolving one document.
type Result struct {
	Status      State
	Text        string
	Counts      markup.Counts
	Resolutions []Resolution
}

// Changed reports whether any span was resolved.
func (r Result) Changed() bool { return len(r.Resolutions) > 0 }

// Accepted counts accepted spans.
func (r Result) Accepted() int { return r.count(decide.Accept) }

// Rejected counts rejected spans.
func (r Result) Rejected() int { return r.count(decide.Reject) }

// Pending counts spans left unresolved after a quit.
func (r Result) Pending() int { return r.Counts.Total() - len(r.Resolutions) }

func (r Result) count(d decide.Decision) int {
	n := 0
	for _, res := range r.Resolutions {
		if res.Decision == d {
			n++
		}
	}
	return n
}

// Contribution returns the text a decided span leaves in the output.
// Accepting moves forward with the diff; rejecting restores the old text.
func Contribution(span markup.Span, d decide.Decision) string {
	switch {
	case span.Kind == markup.Addition && d == decide.Accept:
		return span.Payload
	case span.Kind == markup.Deletion && d == decide.Reject:
		return span.Payload
	default:
		return ""
	}
}

// cursor tracks scan progress: tail is the end of emitted text and head the
// start of the next unresolved marker. 0 <= tail <= head <= len(text).
type cursor struct {
	head int
	tail int
}

// Resolve asks decider about every span of doc in order. The whole document
// is validated first, so a malformed buffer fails before any prompt.
func (e *Engine) Resolve(ctx context.Context, file string, doc markup.Document, decider decide.Decider) (Result, error) {
	if decider == nil {
		return Result{}, fmt.Errorf("resolve: decider is required")
	}
	scanner := markup.NewScanner(doc.Text)
	counts, err := scanner.Count()
	if err != nil {
		return Result{}, fmt.Errorf("resolve %s: %w", file, err)
	}

	text := doc.Text
	result := Result{Status: StateScanning, Counts: counts}
	var (
		out     strings.Builder
		cur     cursor
		current markup.Span
	)
	out.Grow(len(text))

	for !result.Status.Terminal() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		switch result.Status {
		case StateScanning:
			span, err := scanner.Next(cur.head)
			if errors.Is(err, markup.ErrEndOfBuffer) {
				out.WriteString(text[cur.tail:])
				cur.tail = len(text)
				cur.head = len(text)
				result.Status = StateDone
				continue
			}
			if err != nil {
				return Result{}, fmt.Errorf("resolve %s: %w", file, err)
			}
			out.WriteString(text[cur.tail:span.Start])
			cur.tail = span.Start
			cur.head = span.Start
			current = span
			result.Status = StateAwaitingDecision

		case StateAwaitingDecision:
			req := e.request(file, text, current, len(result.Resolutions)+1, counts.Total())
			d, err := decider.DecideSpan(ctx, req)
			if err != nil {
				return Result{}, fmt.Errorf("resolve %s: %s at line %d: %w", file, current.Kind, current.Line, err)
			}
			switch d {
			case decide.Accept, decide.Reject:
				out.WriteString(Contribution(current, d))
				result.Resolutions = append(result.Resolutions, Resolution{Span: current, Decision: d})
				cur.head = current.End
				cur.tail = current.End
				result.Status = StateScanning
			case decide.Quit:
				result.Status = StateQuit
			default:
				return Result{}, fmt.Errorf("resolve %s: unsupported decision %d", file, d)
			}
		}
	}

	if result.Status == StateQuit {
		out.WriteString(text[cur.tail:])
		result.Text = restoreLeadingPreamble(out.String(), doc.Preamble, firstResolvedStart(result))
		return result, nil
	}
	result.Text = out.String()
	return result, nil
}

func (e *Engine) request(file, text string, span markup.Span, index, total int) decide.SpanRequest {
	return decide.SpanRequest{
		File:    file,
		Kind:    span.Kind,
		Payload: span.Payload,
		Offset:  span.Start,
		Line:    span.Line,
		Index:   index,
		Total:   total,
		Before:  excerptBefore(text, span.Start, e.contextBytes),
		After:   excerptAfter(text, span.End, e.contextBytes),
	}
}

// firstResolvedStart is the end of the prefix that the output copied
// verbatim from the stripped text.
func firstResolvedStart(r Result) int {
	if len(r.Resolutions) == 0 {
		return -1
	}
	return r.Resolutions[0].Span.Start
}

// restoreLeadingPreamble puts back preamble blocks that sit in the verbatim
// prefix so unresolved markers still have their macro definitions.
func restoreLeadingPreamble(text string, blocks []markup.PreambleBlock, prefixEnd int) string {
	if len(blocks) == 0 {
		return text
	}
	var keep []markup.PreambleBlock
	for _, block := range blocks {
		if prefixEnd < 0 || block.Offset <= prefixEnd {
			keep = append(keep, block)
		}
	}
	return markup.RestorePreamble(text, keep)
}

func excerptBefore(text string, end, n int) string {
	if n <= 0 || end <= 0 {
		return ""
	}
	start := end - n
	if start < 0 {
		start = 0
	}
	for start < end && !utf8.RuneStart(text[start]) {
		start++
	}
	return text[start:end]
}

func excerptAfter(text string, start, n int) string {
	if n <= 0 || start >= len(text) {
		return ""
	}
	end := start + n
	if end > len(text) {
		end = len(text)
	}
	for end > start && end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}
	return text[start:end]
}
