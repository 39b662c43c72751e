// internal/markup/grammar.go
//
// The marker grammar emitted by latexdiff. Four literal tokens bracket every
// change and a preamble extension block defines the macros they use:
//
//	\DIFaddbegin \DIFadd{new text} \DIFaddend
//	\DIFdelbegin \DIFdel{old text} \DIFdelend
//
// Float environments use the same tokens with an FL suffix.

package markup

import (
	"regexp"
	"strings"
)

// Kind classifies a span as an addition or a deletion.
type Kind int

const (
	Addition Kind = iota + 1
	Deletion
)

// String returns the lowercase kind name used in logs and prompts.
func (k Kind) String() string {
	switch k {
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	default:
		return "unknown"
	}
}

// Verb returns the question shown when asking about a span of this kind.
func (k Kind) Verb() string {
	if k == Deletion {
		return "Delete"
	}
	return "Add"
}

const (
	preambleBegin = "%DIF PREAMBLE EXTENSION ADDED BY LATEXDIFF"
	preambleEnd   = "%DIF END PREAMBLE EXTENSION ADDED BY LATEXDIFF"
)

var (
	addBeginPattern = regexp.MustCompile(`\\DIFaddbegin(?:FL)?`)
	addEndPattern   = regexp.MustCompile(`\\DIFaddend(?:FL)?`)
	delBeginPattern = regexp.MustCompile(`\\DIFdelbegin(?:FL)?`)
	delEndPattern   = regexp.MustCompile(`\\DIFdelend(?:FL)?`)

	// Non-greedy: the first closing brace ends the wrapped text.
	addWrapPattern = regexp.MustCompile(`(?s)\\DIFadd(?:FL)?\{(.*?)\}`)
	delWrapPattern = regexp.MustCompile(`(?s)\\DIFdel(?:FL)?\{(.*?)\}`)

	// The block ends with the line break after the end marker, LF or CRLF.
	preamblePattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(preambleBegin) + `.*?` + regexp.QuoteMeta(preambleEnd) + `\r?\n`)
)

func beginPattern(k Kind) *regexp.Regexp {
	if k == Deletion {
		return delBeginPattern
	}
	return addBeginPattern
}

func endPattern(k Kind) *regexp.Regexp {
	if k == Deletion {
		return delEndPattern
	}
	return addEndPattern
}

// Unwrap strips the inline \DIFadd{...} or \DIFdel{...} commands from the
// text between two markers, keeping everything else verbatim.
func Unwrap(k Kind, text string) string {
	pattern := addWrapPattern
	if k == Deletion {
		pattern = delWrapPattern
	}
	return pattern.ReplaceAllString(text, "${1}")
}

// PreambleBlock records one removed preamble extension and where it sat in
// the stripped text.
type PreambleBlock struct {
	Offset int
	Text   string
}

// Document is a buffer with its preamble extension removed, ready to scan.
type Document struct {
	Text     string
	Preamble []PreambleBlock
}

// Parse strips the preamble extension from raw file contents.
func Parse(raw string) Document {
	text, blocks := StripPreamble(raw)
	return Document{Text: text, Preamble: blocks}
}

// StripPreamble removes every preamble extension block. A buffer without one
// is returned unchanged.
func StripPreamble(raw string) (string, []PreambleBlock) {
	locs := preamblePattern.FindAllStringIndex(raw, -1)
	if len(locs) == 0 {
		return raw, nil
	}
	var (
		b       strings.Builder
		blocks  []PreambleBlock
		written int
	)
	b.Grow(len(raw))
	for _, loc := range locs {
		b.WriteString(raw[written:loc[0]])
		blocks = append(blocks, PreambleBlock{Offset: b.Len(), Text: raw[loc[0]:loc[1]]})
		written = loc[1]
	}
	b.WriteString(raw[written:])
	return b.String(), blocks
}

// RestorePreamble puts stripped blocks back into text. Blocks whose offset
// falls outside text are dropped.
func RestorePreamble(text string, blocks []PreambleBlock) string {
	if len(blocks) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	copied := 0
	for _, block := range blocks {
		if block.Offset < copied || block.Offset > len(text) {
			continue
		}
		b.WriteString(text[copied:block.Offset])
		b.WriteString(block.Text)
		copied = block.Offset
	}
	b.WriteString(text[copied:])
	return b.String()
}

// HasMarkers reports whether the stripped text contains any begin marker.
func HasMarkers(text string) bool {
	return addBeginPattern.MatchString(text) || delBeginPattern.MatchString(text)
}
