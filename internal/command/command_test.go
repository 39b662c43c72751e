package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"
)

type recordingPrinter struct{ lines []string }

func (p *recordingPrinter) Printf(format string, args ...any) {
	p.lines = append(p.lines, fmt.Sprintf(format, args...))
}

func TestExecCapturesOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	log := &recordingPrinter{}
	out, err := NewExec(log).Run(context.Background(), t.TempDir(), "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(out.Stdout) != "hello" {
		t.Fatalf("stdout = %q", out.Stdout)
	}
	if len(log.lines) != 1 || !strings.Contains(log.lines[0], "sh -c echo hello") {
		t.Fatalf("log = %v", log.lines)
	}
}

func TestExecReportsExitStatus(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	out, err := NewExec(nil).Run(context.Background(), "", "sh", "-c", "echo broken >&2; exit 3")
	var collab *CollaboratorError
	if !errors.As(err, &collab) {
		t.Fatalf("expected CollaboratorError, got %v", err)
	}
	if collab.ExitCode != 3 || out.ExitCode != 3 {
		t.Fatalf("exit code = %d/%d, want 3", collab.ExitCode, out.ExitCode)
	}
	if !strings.Contains(collab.Error(), "exit status 3: broken") {
		t.Fatalf("error = %q", collab.Error())
	}
}

func TestExecMissingTool(t *testing.T) {
	_, err := NewExec(nil).Run(context.Background(), "", "zaphod-no-such-tool")
	var collab *CollaboratorError
	if !errors.As(err, &collab) {
		t.Fatalf("expected CollaboratorError, got %v", err)
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("expected wrapped exec.ErrNotFound, got %v", err)
	}
}

func TestFakeRecordsCalls(t *testing.T) {
	fake := &Fake{Handler: func(c Call) (Output, error) {
		return Output{Stdout: c.Name}, nil
	}}
	out, err := fake.Run(context.Background(), "/tmp", "git", "status", "--porcelain")
	if err != nil || out.Stdout != "git" {
		t.Fatalf("run = %+v, %v", out, err)
	}
	if got := fake.Lines(); len(got) != 1 || got[0] != "git status --porcelain" {
		t.Fatalf("lines = %v", got)
	}
}
