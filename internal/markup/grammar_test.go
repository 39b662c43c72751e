package markup

import (
	"strings"
	"testing"
)

const samplePreamble = "%DIF PREAMBLE EXTENSION ADDED BY LATEXDIFF\n" +
	"%DIF UNDERLINE PREAMBLE %DIF PREAMBLE\n" +
	"\\RequirePackage[normalem]{ulem} %DIF PREAMBLE\n" +
	"\\providecommand{\\DIFadd}[1]{{\\protect\\color{blue}\\uwave{#1}}} %DIF PREAMBLE\n" +
	"%DIF END PREAMBLE EXTENSION ADDED BY LATEXDIFF\n"

func TestStripPreambleRemovesBlock(t *testing.T) {
	raw := "\\documentclass{article}\n" + samplePreamble + "\\begin{document}\nbody\n\\end{document}\n"
	text, blocks := StripPreamble(raw)
	if strings.Contains(text, "PREAMBLE") {
		t.Fatalf("preamble still present:\n%s", text)
	}
	if want := "\\documentclass{article}\n\\begin{document}\nbody\n\\end{document}\n"; text != want {
		t.Fatalf("stripped = %q, want %q", text, want)
	}
	if len(blocks) != 1 || blocks[0].Offset != len("\\documentclass{article}\n") {
		t.Fatalf("blocks = %+v", blocks)
	}
	if restored := RestorePreamble(text, blocks); restored != raw {
		t.Fatalf("restored = %q, want original", restored)
	}
}

func TestStripPreambleWithoutBlockIsNoop(t *testing.T) {
	raw := "no extension here\n%DIF END PREAMBLE EXTENSION ADDED BY LATEXDIFF\n"
	text, blocks := StripPreamble(raw)
	if text != raw || blocks != nil {
		t.Fatalf("StripPreamble changed text without a start marker: %q %+v", text, blocks)
	}
}

func TestStripPreambleHandlesCRLF(t *testing.T) {
	crlf := strings.ReplaceAll(samplePreamble, "\n", "\r\n")
	raw := "\\documentclass{article}\r\n" + crlf + "\\begin{document}\r\n\\DIFaddbegin x\\DIFaddend\r\n"
	doc := Parse(raw)
	if strings.Contains(doc.Text, "PREAMBLE") || strings.Contains(doc.Text, "providecommand") {
		t.Fatalf("CRLF preamble kept:\n%q", doc.Text)
	}
	if want := "\\documentclass{article}\r\n\\begin{document}\r\n\\DIFaddbegin x\\DIFaddend\r\n"; doc.Text != want {
		t.Fatalf("stripped = %q, want %q", doc.Text, want)
	}
	if restored := RestorePreamble(doc.Text, doc.Preamble); restored != raw {
		t.Fatalf("restored = %q, want original", restored)
	}
}

func TestStripPreambleLeavesTextBetweenBlocks(t *testing.T) {
	raw := samplePreamble + "keep me\n" + samplePreamble + "tail"
	text, blocks := StripPreamble(raw)
	if text != "keep me\ntail" {
		t.Fatalf("stripped = %q", text)
	}
	if len(blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2", len(blocks))
	}
	if restored := RestorePreamble(text, blocks); restored != raw {
		t.Fatalf("restore mismatch: %q", restored)
	}
}

func TestHasMarkers(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"plain", false},
		{"only end \\DIFaddend here", false},
		{"\\DIFdelbegin x", true},
		{"y \\DIFaddbeginFL", true},
	}
	for _, tc := range cases {
		if got := HasMarkers(tc.text); got != tc.want {
			t.Fatalf("HasMarkers(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestUnwrapKeepsOtherCommands(t *testing.T) {
	got := Unwrap(Deletion, " \\DIFdel{old words} \\cite{x}\n\\DIFdel{more}")
	if want := " old words \\cite{x}\nmore"; got != want {
		t.Fatalf("Unwrap = %q, want %q", got, want)
	}
	if got := Unwrap(Addition, "\\DIFdel{kept}"); got != "\\DIFdel{kept}" {
		t.Fatalf("addition unwrap touched deletion command: %q", got)
	}
}
