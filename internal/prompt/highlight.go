package prompt

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// ColorEnabled reports whether the environment allows colored output.
// NO_COLOR and dumb terminals disable it.
func ColorEnabled() bool {
	return termenv.EnvColorProfile() != termenv.Ascii
}

// Highlight colors LaTeX source for a 256-color terminal. Text that cannot
// be tokenised is returned unchanged.
func Highlight(text string) string {
	lexer := lexers.Get("tex")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return text
	}
	return buf.String()
}

// Excerpt flattens s onto one line and truncates it to width display
// columns. keepEnd keeps the tail instead of the head.
func Excerpt(s string, width int, keepEnd bool) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	if !keepEnd {
		return runewidth.Truncate(s, width, "…")
	}
	runes := []rune(s)
	out := ""
	used := runewidth.StringWidth("…")
	for i := len(runes) - 1; i >= 0; i-- {
		w := runewidth.RuneWidth(runes[i])
		if used+w > width {
			break
		}
		used += w
		out = string(runes[i]) + out
	}
	return "…" + out
}
