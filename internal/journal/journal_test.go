package journal

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/zaphod/internal/decide"
	"github.com/kingrea/zaphod/internal/markup"
	"github.com/kingrea/zaphod/internal/resolve"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "state", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func resolution(kind markup.Kind, d decide.Decision, line int, payload string) resolve.Resolution {
	return resolve.Resolution{
		Span:     markup.Span{Kind: kind, Start: line * 10, Line: line, Payload: payload},
		Decision: d,
	}
}

func TestRecordAndRecent(t *testing.T) {
	j := openTemp(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	j.clock = func() time.Time { return now }
	ctx := context.Background()

	if err := j.Record(ctx, "run-1", "a.tex", resolution(markup.Addition, decide.Accept, 3, " new ")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(ctx, "run-1", "a.tex", resolution(markup.Deletion, decide.Reject, 7, "old")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(ctx, "run-2", "b.tex", resolution(markup.Addition, decide.Reject, 1, "x")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	recent, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len = %d, want 2", len(recent))
	}
	if recent[0].File != "b.tex" || recent[1].Kind != "deletion" || recent[1].Decision != "reject" {
		t.Fatalf("recent = %+v", recent)
	}
	if !recent[0].DecidedAt.Equal(now) {
		t.Fatalf("decided at %v", recent[0].DecidedAt)
	}

	run, err := j.ForRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ForRun: %v", err)
	}
	if len(run) != 2 || run[0].Payload != " new " || run[0].Line != 3 || run[0].Offset != 30 {
		t.Fatalf("run-1 = %+v", run)
	}
}

func TestRecordTruncatesLargePayload(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	big := strings.Repeat("a", maxPayload+100)
	if err := j.Record(ctx, "run", "big.tex", resolution(markup.Addition, decide.Accept, 1, big)); err != nil {
		t.Fatal(err)
	}
	entries, err := j.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries[0].Payload) != maxPayload {
		t.Fatalf("payload len = %d", len(entries[0].Payload))
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Record(context.Background(), "run", "a.tex", resolution(markup.Addition, decide.Accept, 1, "x")); err != nil {
		t.Fatal(err)
	}
	j.Close()

	again, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()
	entries, err := again.Recent(context.Background(), 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries = %+v, %v", entries, err)
	}
}

func TestClosedJournal(t *testing.T) {
	j := openTemp(t)
	j.Close()
	if _, err := j.Recent(context.Background(), 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
