package command

import (
	"context"
	"strings"
	"sync"
)

// Call is one recorded invocation.
type Call struct {
	Dir  string
	Name string
	Args []string
}

// String renders the call as a command line.
func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Fake records calls and answers them from a handler. It is used by the
// collaborator tests.
type Fake struct {
	mu      sync.Mutex
	Calls   []Call
	Handler func(Call) (Output, error)
}

// Run records the call and defers to Handler when set.
func (f *Fake) Run(ctx context.Context, dir, name string, args ...string) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}
	call := Call{Dir: dir, Name: name, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.Calls = append(f.Calls, call)
	handler := f.Handler
	f.mu.Unlock()
	if handler == nil {
		return Output{}, nil
	}
	return handler(call)
}

// Lines returns every recorded call as a command line.
func (f *Fake) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = c.String()
	}
	return lines
}
