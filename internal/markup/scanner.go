package markup

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrEndOfBuffer signals that no begin marker remains; the rest of the
	// buffer is plain text.
	ErrEndOfBuffer = errors.New("markup: end of buffer")
	// ErrMalformedMarkers indicates a begin marker without its matching end.
	ErrMalformedMarkers = errors.New("markup: malformed markers")
)

// MalformedError locates an unterminated span.
type MalformedError struct {
	Kind   Kind
	Offset int
	Line   int
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("markup: %s begin at offset %d (line %d) has no matching end marker", e.Kind, e.Offset, e.Line)
}

func (e *MalformedError) Unwrap() error { return ErrMalformedMarkers }

// Span is one marked region. Start and End cover both markers; the raw
// payload lies in [PayloadStart, PayloadEnd).
type Span struct {
	Kind         Kind
	Start        int
	PayloadStart int
	PayloadEnd   int
	End          int
	Line         int
	// Payload is the text between the markers with the inline wrapping
	// commands removed.
	Payload string
}

// Len returns the size of the outer extent in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Scanner finds spans in a single immutable buffer. Forward scans reuse
// earlier searches, so a Scanner is not safe for concurrent use.
type Scanner struct {
	text string

	// begins holds the last begin marker found per kind, indexed by Kind-1.
	begins [2]beginHit

	// lines counts the newlines before lineOff.
	lineOff int
	lines   int
}

// beginHit is the first begin marker at or after from. start and end are
// len(text) when there is none.
type beginHit struct {
	valid      bool
	from       int
	start, end int
}

// NewScanner returns a scanner over text. The text should already have its
// preamble extension stripped.
func NewScanner(text string) *Scanner {
	return &Scanner{text: text}
}

// Text returns the buffer being scanned.
func (s *Scanner) Text() string { return s.text }

// Next returns the first span whose begin marker occurs at or after from.
func (s *Scanner) Next(from int) (Span, error) {
	if from < 0 {
		from = 0
	}
	if from >= len(s.text) {
		return Span{}, ErrEndOfBuffer
	}
	addStart, addEnd := s.find(Addition, from)
	delStart, delEnd := s.find(Deletion, from)
	if addStart == delStart {
		// Both missing.
		return Span{}, ErrEndOfBuffer
	}
	kind, start, beginEnd := Addition, addStart, addEnd
	if delStart < addStart {
		kind, start, beginEnd = Deletion, delStart, delEnd
	}
	loc := endPattern(kind).FindStringIndex(s.text[beginEnd:])
	if loc == nil {
		return Span{}, &MalformedError{Kind: kind, Offset: start, Line: s.lineAt(start)}
	}
	payloadEnd := beginEnd + loc[0]
	return Span{
		Kind:         kind,
		Start:        start,
		PayloadStart: beginEnd,
		PayloadEnd:   payloadEnd,
		End:          beginEnd + loc[1],
		Line:         s.lineAt(start),
		Payload:      Unwrap(kind, s.text[beginEnd:payloadEnd]),
	}, nil
}

// find locates the next begin marker of kind at or after from. A missing
// marker reports len(text) for both offsets.
func (s *Scanner) find(kind Kind, from int) (int, int) {
	hit := &s.begins[0]
	if kind == Deletion {
		hit = &s.begins[1]
	}
	// Nothing matches in [hit.from, hit.start), so any from in that range
	// finds the same marker.
	if hit.valid && hit.from <= from && from <= hit.start {
		return hit.start, hit.end
	}
	*hit = beginHit{valid: true, from: from, start: len(s.text), end: len(s.text)}
	if loc := beginPattern(kind).FindStringIndex(s.text[from:]); loc != nil {
		hit.start, hit.end = from+loc[0], from+loc[1]
	}
	return hit.start, hit.end
}

// All returns every span in document order, or the first malformed span.
func (s *Scanner) All() ([]Span, error) {
	var spans []Span
	head := 0
	for {
		span, err := s.Next(head)
		if errors.Is(err, ErrEndOfBuffer) {
			return spans, nil
		}
		if err != nil {
			return spans, err
		}
		spans = append(spans, span)
		head = span.End
	}
}

// Counts tallies spans by kind.
type Counts struct {
	Additions int
	Deletions int
}

// Total returns the number of spans.
func (c Counts) Total() int { return c.Additions + c.Deletions }

// Count scans the whole buffer and tallies its spans.
func (s *Scanner) Count() (Counts, error) {
	spans, err := s.All()
	if err != nil {
		return Counts{}, err
	}
	var c Counts
	for _, span := range spans {
		if span.Kind == Deletion {
			c.Deletions++
		} else {
			c.Additions++
		}
	}
	return c, nil
}

// Stray is an end marker that does not close any span.
type Stray struct {
	Kind   Kind
	Offset int
	Line   int
}

// Strays reports end markers that sit outside every span.
func (s *Scanner) Strays() ([]Stray, error) {
	spans, err := s.All()
	if err != nil {
		return nil, err
	}
	closing := make(map[int]bool, len(spans))
	for _, span := range spans {
		closing[span.PayloadEnd] = true
	}
	var strays []Stray
	for _, kind := range []Kind{Addition, Deletion} {
		for _, loc := range endPattern(kind).FindAllStringIndex(s.text, -1) {
			if closing[loc[0]] {
				continue
			}
			strays = append(strays, Stray{Kind: kind, Offset: loc[0], Line: s.lineAt(loc[0])})
		}
	}
	sort.Slice(strays, func(i, j int) bool { return strays[i].Offset < strays[j].Offset })
	return strays, nil
}

// lineAt returns the 1-based line of offset, counting on from the previous
// call when offset has moved forward.
func (s *Scanner) lineAt(offset int) int {
	if offset > len(s.text) {
		offset = len(s.text)
	}
	if offset < s.lineOff {
		s.lineOff, s.lines = 0, 0
	}
	s.lines += strings.Count(s.text[s.lineOff:offset], "\n")
	s.lineOff = offset
	return s.lines + 1
}
