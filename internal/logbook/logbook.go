// Package logbook writes the human-readable session log, revise.log, that
// the full-screen prompt shows under every question.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// sink serializes writes to one file across every scoped Logbook.
type sink struct {
	mu   sync.Mutex
	path string
}

// Logbook records a revision session, one line per decision or action. All
// methods are no-ops on a nil Logbook.
type Logbook struct {
	out   *sink
	run   string
	clock func() time.Time
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure dir: %w", err)
	}
	return &Logbook{out: &sink{path: path}, clock: time.Now}, nil
}

// ForRun returns a logbook on the same file whose entries carry the first
// eight characters of runID.
func (l *Logbook) ForRun(runID string) *Logbook {
	if l == nil {
		return nil
	}
	runID = strings.TrimSpace(runID)
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return &Logbook{out: l.out, run: runID, clock: l.clock}
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.out.path
}

// Append writes a single entry. Whitespace inside message, newlines
// included, collapses to single spaces so every entry stays on one line.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString(l.clock().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, " %-5s ", level)
	if l.run != "" {
		b.WriteString("[" + l.run + "] ")
	}
	b.WriteString(strings.Join(strings.Fields(message), " "))
	b.WriteByte('\n')

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	f, err := os.OpenFile(l.out.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(b.String())
}

// Tail returns up to n of the most recent entries, oldest first, along with
// the number of entries in the file.
func (l *Logbook) Tail(n int) ([]string, int) {
	if l == nil || n <= 0 {
		return nil, 0
	}
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	f, err := os.Open(l.out.path)
	if err != nil {
		return nil, 0
	}
	defer f.Close()

	ring := make([]string, n)
	total := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ring[total%n] = scanner.Text()
		total++
	}
	if total <= n {
		return ring[:total], total
	}
	start := total % n
	return append(ring[start:], ring[:start]...), total
}

func (l *Logbook) logf(level Level, format string, args []any) {
	if l == nil {
		return
	}
	l.Append(level, fmt.Sprintf(format, args...))
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) { l.logf(LevelInfo, format, args) }

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) { l.logf(LevelWarn, format, args) }

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) { l.logf(LevelError, format, args) }
