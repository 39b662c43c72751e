package latexdiff

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kingrea/zaphod/internal/command"
)

func TestArgs(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{name: "defaults", opts: Options{}, want: "--type=UNDERLINE old.tex new.tex"},
		{name: "type lowered", opts: Options{Type: "cfont"}, want: "--type=CFONT old.tex new.tex"},
		{
			name: "exclude",
			opts: Options{Type: "UNDERLINE", ExcludeTextCmd: []string{"cite", " ", "ref"}},
			want: "--type=UNDERLINE --exclude-textcmd=cite,ref old.tex new.tex",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := strings.Join(tc.opts.Args("old.tex", "new.tex"), " "); got != tc.want {
				t.Fatalf("args = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGenerateReturnsStdout(t *testing.T) {
	fake := &command.Fake{Handler: func(command.Call) (command.Output, error) {
		return command.Output{Stdout: `A \DIFaddbegin \DIFadd{new} \DIFaddend B`}, nil
	}}
	text, err := New(fake).Generate(context.Background(), "/tmp/a", "/tmp/b", Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(text, `\DIFaddbegin`) {
		t.Fatalf("text = %q", text)
	}
	if fake.Calls[0].Name != "latexdiff" {
		t.Fatalf("ran %s", fake.Calls[0].Name)
	}
}

func TestGenerateFailures(t *testing.T) {
	empty := &command.Fake{}
	if _, err := New(empty).Generate(context.Background(), "a", "b", Options{}); err == nil {
		t.Fatalf("expected error for empty output")
	}
	boom := &command.CollaboratorError{Tool: "latexdiff", ExitCode: 2}
	failing := &command.Fake{Handler: func(command.Call) (command.Output, error) {
		return command.Output{ExitCode: 2}, boom
	}}
	_, err := New(failing).Generate(context.Background(), "a", "b", Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected collaborator error, got %v", err)
	}
}
