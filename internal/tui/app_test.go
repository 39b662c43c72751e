package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/zaphod/internal/decide"
	"github.com/kingrea/zaphod/internal/logbook"
	"github.com/kingrea/zaphod/internal/markup"
)

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func spanRequest() decide.SpanRequest {
	return decide.SpanRequest{
		File:    "chapters/intro.tex",
		Kind:    markup.Deletion,
		Payload: " old text ",
		Index:   2,
		Total:   5,
		Line:    12,
		Before:  "A ",
		After:   " B",
	}
}

func TestSpanModelAnswers(t *testing.T) {
	tests := []struct {
		key  string
		want decide.Decision
	}{
		{key: "y", want: decide.Accept},
		{key: "N", want: decide.Reject},
		{key: "q", want: decide.Quit},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			m := NewSpanModel(spanRequest(), nil, false)
			_, cmd := m.Update(keyPress(tc.key))
			got, done := m.Decision()
			if !done || got != tc.want {
				t.Fatalf("decision = %v (done=%v), want %v", got, done, tc.want)
			}
			if cmd == nil {
				t.Fatalf("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Fatalf("expected tea.QuitMsg")
			}
			if m.View() != "" {
				t.Fatalf("answered model should render nothing")
			}
		})
	}
}

func TestSpanModelRejectsInvalidKeys(t *testing.T) {
	m := NewSpanModel(spanRequest(), nil, false)
	_, cmd := m.Update(keyPress("x"))
	if cmd != nil {
		t.Fatalf("invalid key should not quit")
	}
	if _, done := m.Decision(); done {
		t.Fatalf("invalid key answered the question")
	}
	if !strings.Contains(m.View(), "Invalid input") {
		t.Fatalf("status message missing:\n%s", m.View())
	}
	m.Update(keyPress("y"))
	if got, done := m.Decision(); !done || got != decide.Accept {
		t.Fatalf("decision after retry = %v", got)
	}
}

func TestSpanModelViewShowsChange(t *testing.T) {
	m := NewSpanModel(spanRequest(), nil, false)
	m.Update(tea.WindowSizeMsg{Width: 90, Height: 40})
	view := m.View()
	for _, want := range []string{"chapters/intro.tex", "DELETION", "change 2 of 5", "line 12", "old text", "Delete? y/n/q"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestCtrlCQuits(t *testing.T) {
	m := NewConfirmModel("Generate pdf?", nil)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if got, done := m.Decision(); !done || got != decide.Quit {
		t.Fatalf("ctrl+c = %v, done=%v", got, done)
	}
}

func TestAskModelUsesFallback(t *testing.T) {
	m := NewAskModel("Commit message", "Resolve tracked changes in 2 files", nil)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Answer() != "Resolve tracked changes in 2 files" {
		t.Fatalf("answer = %q", m.Answer())
	}

	typed := NewAskModel("Commit message", "fallback", nil)
	typed.Update(keyPress("Fix typos"))
	typed.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if typed.Answer() != "Fix typos" {
		t.Fatalf("answer = %q", typed.Answer())
	}
}

func TestLogPanelShowsTail(t *testing.T) {
	book, err := logbook.New(filepath.Join(t.TempDir(), "revise.log"))
	if err != nil {
		t.Fatal(err)
	}
	book.Info("accepted addition in intro.tex")
	m := NewConfirmModel("Commit current changes?", book)
	view := m.View()
	if !strings.Contains(view, "LOG · revise.log · 1 entries") || !strings.Contains(view, "accepted addition") {
		t.Fatalf("log panel missing:\n%s", view)
	}
}
