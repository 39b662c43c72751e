package decide

import (
	"context"
	"sync"
)

// Scripted replays a fixed sequence of decisions. It records every request
// so tests can assert on what was asked.
type Scripted struct {
	mu sync.Mutex

	Spans    []Decision
	Confirms []Decision
	Answers  []string

	SpanRequests []SpanRequest
	Questions    []string
}

// NewScripted returns a provider answering span prompts in order.
func NewScripted(spans ...Decision) *Scripted {
	return &Scripted{Spans: spans}
}

// WithConfirms sets the answers given to confirmation prompts.
func (s *Scripted) WithConfirms(confirms ...Decision) *Scripted {
	s.Confirms = confirms
	return s
}

// WithAnswers sets the answers given to free-form questions.
func (s *Scripted) WithAnswers(answers ...string) *Scripted {
	s.Answers = answers
	return s
}

// DecideSpan pops the next span decision.
func (s *Scripted) DecideSpan(ctx context.Context, req SpanRequest) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpanRequests = append(s.SpanRequests, req)
	if len(s.Spans) == 0 {
		return 0, ErrNoDecisions
	}
	d := s.Spans[0]
	s.Spans = s.Spans[1:]
	return d, nil
}

// Confirm pops the next confirmation answer.
func (s *Scripted) Confirm(ctx context.Context, question string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Questions = append(s.Questions, question)
	if len(s.Confirms) == 0 {
		return 0, ErrNoDecisions
	}
	d := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return d, nil
}

// Ask pops the next free-form answer, or returns fallback when none remain.
func (s *Scripted) Ask(ctx context.Context, question, fallback string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Questions = append(s.Questions, question)
	if len(s.Answers) == 0 {
		return fallback, nil
	}
	a := s.Answers[0]
	s.Answers = s.Answers[1:]
	return a, nil
}
