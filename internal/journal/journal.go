// Package journal keeps every accept/reject decision in a SQLite database
// under .zaphod/state so a reviewer can see later what was kept and what was
// thrown away.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/kingrea/zaphod/internal/resolve"
)

// ErrClosed is returned when the journal is used after Close.
var ErrClosed = errors.New("journal: closed")

// maxPayload bounds the payload text stored per decision.
const maxPayload = 4096

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT    NOT NULL,
	file        TEXT    NOT NULL,
	kind        TEXT    NOT NULL,
	decision    TEXT    NOT NULL,
	line        INTEGER NOT NULL,
	byte_offset INTEGER NOT NULL,
	payload     TEXT    NOT NULL,
	decided_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_run ON decisions(run_id);
`

// Entry is one stored decision.
type Entry struct {
	ID        int64
	RunID     string
	File      string
	Kind      string
	Decision  string
	Line      int
	Offset    int
	Payload   string
	DecidedAt time.Time
}

// Journal is the decision store.
type Journal struct {
	db    *sql.DB
	clock func() time.Time
}

// Open opens (creating when needed) the journal at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: init schema: %w", err)
	}
	return &Journal{db: db, clock: time.Now}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

// Record stores one resolution. It satisfies batch.Recorder.
func (j *Journal) Record(ctx context.Context, runID, file string, res resolve.Resolution) error {
	if j == nil || j.db == nil {
		return ErrClosed
	}
	payload := res.Span.Payload
	if len(payload) > maxPayload {
		payload = payload[:maxPayload]
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO decisions (run_id, file, kind, decision, line, byte_offset, payload, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, file, res.Span.Kind.String(), res.Decision.String(),
		res.Span.Line, res.Span.Start, payload, j.clock().UTC().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("journal: record %s: %w", file, err)
	}
	return nil
}

// Recent returns up to limit decisions, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return j.query(ctx,
		`SELECT id, run_id, file, kind, decision, line, byte_offset, payload, decided_at
		 FROM decisions ORDER BY id DESC LIMIT ?`, limit)
}

// ForRun returns the decisions of one run in the order they were made.
func (j *Journal) ForRun(ctx context.Context, runID string) ([]Entry, error) {
	return j.query(ctx,
		`SELECT id, run_id, file, kind, decision, line, byte_offset, payload, decided_at
		 FROM decisions WHERE run_id = ? ORDER BY id ASC`, runID)
}

func (j *Journal) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	if j == nil || j.db == nil {
		return nil, ErrClosed
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.File, &e.Kind, &e.Decision, &e.Line, &e.Offset, &e.Payload, &ts); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.DecidedAt = time.Unix(0, ts).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: rows: %w", err)
	}
	return entries, nil
}
