// internal/tui/app.go
//
// This is the full-screen decision view for zaphod.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: the question on screen and the answer once given
// 2. Update: key presses move the payload viewport or answer the question
// 3. View: header, payload, prompt, and the tail of the session log
//
// One Model answers one question. The Decider in decider.go runs a program
// per question so the batch driver can stay a plain sequential loop.

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/zaphod/internal/decide"
	"github.com/kingrea/zaphod/internal/logbook"
	"github.com/kingrea/zaphod/internal/markup"
	"github.com/kingrea/zaphod/internal/prompt"
)

// mode represents which kind of question is on screen
type mode int

const (
	modeSpan    mode = iota // Accept/reject a tracked change
	modeConfirm             // Yes/no question after the files are done
	modeAsk                 // Free-form answer such as the commit message
)

const (
	logTailLines   = 6
	defaultWidth   = 100
	defaultHeight  = 30
	reservedHeight = 16
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	additionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	deletionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	contextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Model answers a single question.
type Model struct {
	mode     mode
	request  decide.SpanRequest
	question string
	fallback string
	color    bool

	viewport viewport.Model
	input    textinput.Model
	logbook  *logbook.Logbook

	width  int
	height int

	decision decide.Decision
	answer   string
	done     bool
	status   string
}

// NewSpanModel shows one tracked change.
func NewSpanModel(req decide.SpanRequest, book *logbook.Logbook, color bool) *Model {
	m := newModel(modeSpan, book)
	m.request = req
	m.color = color
	m.question = req.Kind.Verb() + "?"
	m.viewport.SetContent(m.payload())
	return m
}

// NewConfirmModel asks a yes/no question.
func NewConfirmModel(question string, book *logbook.Logbook) *Model {
	m := newModel(modeConfirm, book)
	m.question = question
	return m
}

// NewAskModel asks for free text, offering fallback.
func NewAskModel(question, fallback string, book *logbook.Logbook) *Model {
	m := newModel(modeAsk, book)
	m.question = question
	m.fallback = fallback
	m.input = textinput.New()
	m.input.Placeholder = fallback
	m.input.Prompt = "> "
	m.input.CharLimit = 200
	m.input.Focus()
	return m
}

func newModel(md mode, book *logbook.Logbook) *Model {
	m := &Model{
		mode:    md,
		logbook: book,
		width:   defaultWidth,
		height:  defaultHeight,
	}
	m.viewport = viewport.New(defaultWidth-4, defaultHeight-reservedHeight)
	return m
}

// Decision returns the answer and whether one was given.
func (m *Model) Decision() (decide.Decision, bool) {
	return m.decision, m.done
}

// Answer returns the free-form answer.
func (m *Model) Answer() string {
	return m.answer
}

// Init is the first function called by bubbletea.
func (m *Model) Init() tea.Cmd {
	if m.mode == modeAsk {
		return textinput.Blink
	}
	return nil
}

// Update is called when a message is received.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, msg.Height-reservedHeight)
		m.viewport.SetContent(m.payload())
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m.finish(decide.Quit, m.fallback)
		}
		if m.mode == modeAsk {
			return m.updateAsk(msg)
		}
		switch key {
		case "up", "down", "pgup", "pgdown", "k", "j":
			if m.mode == modeSpan {
				var cmd tea.Cmd
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
		}
		if d, ok := decide.Parse(key); ok {
			return m.finish(d, "")
		}
		m.status = fmt.Sprintf("Invalid input %q. Press y, n or q.", key)
		return m, nil
	}

	if m.mode == modeAsk {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) updateAsk(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		answer := strings.TrimSpace(m.input.Value())
		if answer == "" {
			answer = m.fallback
		}
		return m.finish(decide.Accept, answer)
	case "esc":
		return m.finish(decide.Accept, m.fallback)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) finish(d decide.Decision, answer string) (tea.Model, tea.Cmd) {
	m.decision = d
	m.answer = answer
	m.done = true
	m.status = ""
	return m, tea.Quit
}

// View renders the question.
func (m *Model) View() string {
	if m.done {
		return ""
	}
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	var sections []string
	switch m.mode {
	case modeSpan:
		sections = append(sections, m.renderSpan(width))
	default:
		sections = append(sections, headerStyle.Render("⬡ ZAPHOD"), "", promptStyle.Render(m.question))
		if m.mode == modeAsk {
			sections = append(sections, m.input.View())
		}
	}
	if m.status != "" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	sections = append(sections, helpStyle.Render(m.help()))
	if panel := m.renderLogPanel(width); panel != "" {
		sections = append(sections, "", panel)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderSpan(width int) string {
	req := m.request
	label := additionStyle.Render("ADDITION")
	if req.Kind == markup.Deletion {
		label = deletionStyle.Render("DELETION")
	}
	header := headerStyle.Render(fmt.Sprintf("⬡ ZAPHOD · %s", req.File))
	progress := fmt.Sprintf("%s  change %d of %d · line %d", label, req.Index, req.Total, req.Line)
	half := max(10, width/2-6)
	around := contextStyle.Render(fmt.Sprintf("%s [...] %s",
		prompt.Excerpt(req.Before, half, true), prompt.Excerpt(req.After, half, false)))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(m.viewport.View())
	question := promptStyle.Render(m.question + " y/n/q")
	return lipgloss.JoinVertical(lipgloss.Left, header, progress, around, box, question)
}

func (m *Model) payload() string {
	text := m.request.Payload
	if m.color {
		text = prompt.Highlight(text)
	}
	return lipgloss.NewStyle().Width(max(20, m.viewport.Width)).Render(text)
}

func (m *Model) help() string {
	switch m.mode {
	case modeSpan:
		return "y accept · n reject · q quit · ↑/↓ scroll"
	case modeConfirm:
		return "y yes · n no · q quit"
	default:
		return "enter confirm · esc use default"
	}
}

func (m *Model) renderLogPanel(width int) string {
	if m.logbook == nil {
		return ""
	}
	lines, total := m.logbook.Tail(logTailLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(m.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s · %d entries", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Width(max(20, width-6)).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}
