package markup

import (
	"errors"
	"strings"
	"testing"
)

func TestNextReturnsEndOfBufferWithoutMarkers(t *testing.T) {
	s := NewScanner("plain text with \\emph{braces} and no markers")
	if _, err := s.Next(0); !errors.Is(err, ErrEndOfBuffer) {
		t.Fatalf("Next() error = %v, want ErrEndOfBuffer", err)
	}
	if _, err := NewScanner("").Next(0); !errors.Is(err, ErrEndOfBuffer) {
		t.Fatalf("empty buffer error = %v, want ErrEndOfBuffer", err)
	}
}

func TestNextExtractsAdditionPayload(t *testing.T) {
	text := `A \DIFaddbegin \DIFadd{new} \DIFaddend B`
	span, err := NewScanner(text).Next(0)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if span.Kind != Addition {
		t.Fatalf("kind = %s, want addition", span.Kind)
	}
	if span.Start != 2 {
		t.Fatalf("start = %d, want 2", span.Start)
	}
	if got := text[span.End:]; got != " B" {
		t.Fatalf("text after span = %q, want %q", got, " B")
	}
	if span.Payload != " new " {
		t.Fatalf("payload = %q, want %q", span.Payload, " new ")
	}
}

func TestNextPicksEarlierKind(t *testing.T) {
	text := `x \DIFdelbegin \DIFdel{gone}\DIFdelend y \DIFaddbegin \DIFadd{here}\DIFaddend z`
	s := NewScanner(text)
	first, err := s.Next(0)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if first.Kind != Deletion || first.Payload != " gone" {
		t.Fatalf("first = %+v", first)
	}
	second, err := s.Next(first.End)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Kind != Addition || second.Payload != " here" {
		t.Fatalf("second = %+v", second)
	}
	if _, err := s.Next(second.End); !errors.Is(err, ErrEndOfBuffer) {
		t.Fatalf("third error = %v, want ErrEndOfBuffer", err)
	}
}

func TestNextHandlesBackToBackSpans(t *testing.T) {
	text := `\DIFdelbegin \DIFdel{a}\DIFdelend\DIFaddbegin \DIFadd{b}\DIFaddend`
	spans, err := NewScanner(text).All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("len(spans) = %d, want 2", len(spans))
	}
	if spans[0].End != spans[1].Start {
		t.Fatalf("spans not adjacent: %d vs %d", spans[0].End, spans[1].Start)
	}
	if spans[1].End != len(text) {
		t.Fatalf("last span ends at %d, want %d", spans[1].End, len(text))
	}
}

func TestNextReportsMalformedSpan(t *testing.T) {
	text := "line one\nA \\DIFaddbegin \\DIFadd{new} B"
	_, err := NewScanner(text).Next(0)
	if !errors.Is(err, ErrMalformedMarkers) {
		t.Fatalf("error = %v, want ErrMalformedMarkers", err)
	}
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("error %T is not *MalformedError", err)
	}
	if malformed.Kind != Addition || malformed.Offset != 11 || malformed.Line != 2 {
		t.Fatalf("malformed = %+v", malformed)
	}
}

func TestAllSpansIncreaseInOffset(t *testing.T) {
	text := `\DIFaddbegin \DIFadd{1}\DIFaddend  mid \DIFdelbegin \DIFdel{2}\DIFdelend
\DIFaddbeginFL \DIFaddFL{3}\DIFaddendFL end \DIFdelbegin \DIFdel{4}\DIFdelend`
	spans, err := NewScanner(text).All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(spans) != 4 {
		t.Fatalf("len(spans) = %d, want 4", len(spans))
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start <= spans[i-1].Start || spans[i].Start < spans[i-1].End {
			t.Fatalf("span %d starts at %d after span ending %d", i, spans[i].Start, spans[i-1].End)
		}
	}
	if spans[2].Payload != " 3" || spans[2].Line != 2 {
		t.Fatalf("float span = %+v", spans[2])
	}
}

func TestPayloadUnwrapIsNonGreedy(t *testing.T) {
	text := `\DIFaddbegin \DIFadd{see \ref{fig}}\DIFaddend`
	span, err := NewScanner(text).Next(0)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	// The first closing brace ends the wrapper; the outer brace survives.
	if want := ` see \ref{fig}`; span.Payload != want {
		t.Fatalf("payload = %q, want %q", span.Payload, want)
	}
}

func TestCountAndStrays(t *testing.T) {
	text := `a \DIFaddbegin \DIFadd{x}\DIFaddend b \DIFdelend c \DIFdelbegin \DIFdel{y}\DIFdelend`
	s := NewScanner(text)
	counts, err := s.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if counts.Additions != 1 || counts.Deletions != 1 || counts.Total() != 2 {
		t.Fatalf("counts = %+v", counts)
	}
	strays, err := s.Strays()
	if err != nil {
		t.Fatalf("Strays: %v", err)
	}
	if len(strays) != 1 || strays[0].Kind != Deletion {
		t.Fatalf("strays = %+v", strays)
	}
}

func TestAllOnLargeBufferTracksLines(t *testing.T) {
	var b strings.Builder
	var wantStarts []int
	const n = 3000
	for i := 0; i < n; i++ {
		switch {
		case i < n/2 && i%2 == 0:
			wantStarts = append(wantStarts, b.Len()+len("line "))
			b.WriteString(`line \DIFaddbegin \DIFadd{a}\DIFaddend` + "\n")
		case i < n/2:
			wantStarts = append(wantStarts, b.Len()+len("line "))
			b.WriteString(`line \DIFdelbegin \DIFdel{d}\DIFdelend` + "\n")
		case i%3 == 0:
			// Additions only in the second half.
			wantStarts = append(wantStarts, b.Len()+len("line "))
			b.WriteString(`line \DIFaddbeginFL x\DIFaddendFL` + "\n")
		default:
			b.WriteString("plain line\n")
		}
	}
	text := b.String()

	spans, err := NewScanner(text).All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(spans) != len(wantStarts) {
		t.Fatalf("found %d spans, want %d", len(spans), len(wantStarts))
	}
	for i, span := range spans {
		if span.Start != wantStarts[i] {
			t.Fatalf("span %d start = %d, want %d", i, span.Start, wantStarts[i])
		}
		if want := strings.Count(text[:span.Start], "\n") + 1; span.Line != want {
			t.Fatalf("span %d line = %d, want %d", i, span.Line, want)
		}
	}
}

func TestNextRepeatsAndRewinds(t *testing.T) {
	text := "one\n\\DIFdelbegin a\\DIFdelend\ntwo\n\\DIFaddbegin b\\DIFaddend\nthree\n\\DIFdelbegin c\\DIFdelend"
	s := NewScanner(text)
	first, err := s.Next(0)
	if err != nil {
		t.Fatalf("Next(0): %v", err)
	}
	last, err := s.Next(first.End + 10)
	if err != nil {
		t.Fatalf("Next(later): %v", err)
	}
	if last.Kind != Deletion || last.Line != 6 || last.Payload != " c" {
		t.Fatalf("last = %+v", last)
	}
	again, err := s.Next(0)
	if err != nil {
		t.Fatalf("Next(0) again: %v", err)
	}
	if again != first || again.Line != 2 {
		t.Fatalf("rewind = %+v, want %+v", again, first)
	}
	middle, err := s.Next(first.End)
	if err != nil {
		t.Fatalf("Next(middle): %v", err)
	}
	if middle.Kind != Addition || middle.Line != 4 {
		t.Fatalf("middle = %+v", middle)
	}
	if _, err := s.Next(last.End); !errors.Is(err, ErrEndOfBuffer) {
		t.Fatalf("after last span: %v", err)
	}
	var malformed *MalformedError
	if _, err := NewScanner("a\nb\n\\DIFaddbegin x").Next(0); !errors.As(err, &malformed) || malformed.Line != 3 {
		t.Fatalf("malformed = %v", err)
	}
}
