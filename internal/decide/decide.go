// Package decide defines the decisions a reviewer makes about tracked
// changes and the provider interface the resolver and batch driver ask.
package decide

import (
	"context"
	"errors"
	"strings"

	"github.com/kingrea/zaphod/internal/markup"
)

// Decision is the answer to a span prompt or a confirmation.
type Decision int

const (
	// Accept keeps the change proposed by the diff (or answers yes).
	Accept Decision = iota + 1
	// Reject restores the pre-diff text (or answers no).
	Reject
	// Quit stops the run; decisions already applied stay applied.
	Quit
)

// String returns the decision name used in logs and the journal.
func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	case Quit:
		return "quit"
	default:
		return "invalid"
	}
}

// ErrNoDecisions is returned by providers that ran out of answers.
var ErrNoDecisions = errors.New("decide: no decisions left")

// Parse maps user input to a decision. Unknown input reports false so the
// caller can ask again.
func Parse(input string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return Accept, true
	case "n", "no":
		return Reject, true
	case "q", "quit":
		return Quit, true
	default:
		return 0, false
	}
}

// SpanRequest describes one span awaiting a decision.
type SpanRequest struct {
	File    string
	Kind    markup.Kind
	Payload string
	Offset  int
	Line    int
	// Index is 1-based; Total counts every span in the file.
	Index int
	Total int
	// Before and After hold a little surrounding plain text for context.
	Before string
	After  string
}

// Decider supplies decisions. Implementations must not return a Decision
// outside Accept, Reject and Quit; invalid input is re-prompted internally.
type Decider interface {
	DecideSpan(ctx context.Context, req SpanRequest) (Decision, error)
	Confirm(ctx context.Context, question string) (Decision, error)
}

// Asker is implemented by providers that can collect free-form text, such as
// a commit message.
type Asker interface {
	Ask(ctx context.Context, question, fallback string) (string, error)
}
