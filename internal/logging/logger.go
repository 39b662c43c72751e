// Package logging keeps the low-level trace of external tool runs
// (git, latexdiff, pdflatex, bibtex) in .zaphod/logs/zaphod.log.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileName is the trace file inside the logs directory.
const FileName = "zaphod.log"

// maxSize is the size past which the previous log is moved to zaphod.log.1.
const maxSize = 1 << 20

// Logger appends timestamped lines to the trace file. A nil Logger discards
// everything.
type Logger struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	clock func() time.Time
}

// New opens logsDir/zaphod.log for appending, rotating it first when it has
// grown past 1 MiB.
func New(logsDir string) (*Logger, error) {
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logsDir, FileName)
	if info, err := os.Stat(path); err == nil && info.Size() > maxSize {
		if err := os.Rename(path, path+".1"); err != nil {
			return nil, fmt.Errorf("logging: rotate %s: %w", path, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{path: path, file: f, clock: time.Now}, nil
}

// Path returns the trace file.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Printf writes one timestamped entry. Continuation lines of a multi-line
// message (captured stderr, usually) are indented under it.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	msg = strings.ReplaceAll(msg, "\n", "\n    ")

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	fmt.Fprintf(l.file, "[%s] %s\n", l.clock().Format(time.RFC3339), msg)
}
