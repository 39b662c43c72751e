// Package report formats run results as Markdown and renders them for the
// terminal with glamour.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/kingrea/zaphod/internal/annotate"
	"github.com/kingrea/zaphod/internal/batch"
	"github.com/kingrea/zaphod/internal/journal"
)

// Render turns Markdown into styled terminal output. When styled is false, or
// rendering fails, the Markdown is returned unchanged so piped output stays
// readable.
func Render(markdown string, width int, styled bool) string {
	if !styled {
		return markdown
	}
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

// Run summarizes a finished revise run.
func Run(state batch.RunState, root string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Revision %s\n\n", state.Status)
	fmt.Fprintf(&b, "- Run: `%s`\n", shortID(state.RunID))
	if !state.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- Started: %s\n", state.StartedAt.Local().Format(time.DateTime))
	}
	fmt.Fprintf(&b, "- Files: %d, modified: %d, accepted: %d, rejected: %d\n",
		len(state.Files), len(state.Modified), state.Accepted(), state.Rejected())
	if state.Artifact != "" {
		fmt.Fprintf(&b, "- PDF: `%s`\n", rel(root, state.Artifact))
	}
	if state.Committed {
		fmt.Fprintf(&b, "- Committed: %q\n", state.CommitMessage)
	}
	if state.Error != "" {
		fmt.Fprintf(&b, "- Error: %s\n", state.Error)
	}

	if len(state.Outcomes) > 0 {
		b.WriteString("\n| File | Additions | Deletions | Accepted | Rejected | Pending |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, o := range state.Outcomes {
			fmt.Fprintf(&b, "| %s | %d | %d | %d | %d | %d |\n",
				rel(root, o.File), o.Additions, o.Deletions, o.Accepted, o.Rejected, o.Pending)
		}
	}
	writeFailures(&b, root, state.Failures)
	return b.String()
}

// Status reports the markers found under root and the last run, if any.
func Status(reports []batch.FileReport, last *batch.RunState, root string) string {
	var b strings.Builder
	b.WriteString("# Tracked changes\n\n")
	var candidates, malformed int
	for _, r := range reports {
		if r.HasMarkers() {
			candidates++
		}
		if r.Err != nil {
			malformed++
		}
	}
	if candidates == 0 {
		b.WriteString("No files with change markers.\n")
	} else {
		b.WriteString("| File | Additions | Deletions |\n|---|---|---|\n")
		for _, r := range reports {
			if r.HasMarkers() && r.Err == nil {
				fmt.Fprintf(&b, "| %s | %d | %d |\n", rel(root, r.Path), r.Counts.Additions, r.Counts.Deletions)
			}
		}
	}

	var warnings []string
	for _, r := range reports {
		if r.Err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", rel(root, r.Path), r.Err))
		}
		for _, s := range r.Strays {
			warnings = append(warnings, fmt.Sprintf("%s line %d: %s end marker without a begin", rel(root, r.Path), s.Line, s.Kind))
		}
	}
	if len(warnings) > 0 {
		fmt.Fprintf(&b, "\n## Warnings (%d malformed)\n\n", malformed)
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	if last != nil {
		b.WriteString("\n")
		b.WriteString(strings.Replace(Run(*last, root), "# Revision", "## Last run:", 1))
	}
	return b.String()
}

// Diff summarizes the branches and files produced by an annotate run.
func Diff(res *annotate.Result, root string) string {
	var b strings.Builder
	b.WriteString("# Annotated changes\n\n")
	fmt.Fprintf(&b, "- Branch: `%s`\n", res.AnnotatedBranch)
	fmt.Fprintf(&b, "- Snapshots: `%s`, `%s`\n", res.Rev1Branch, res.Rev2Branch)
	if res.Artifact != "" {
		fmt.Fprintf(&b, "- PDF: `%s`\n", rel(root, res.Artifact))
	}
	fmt.Fprintf(&b, "- Commit: %q\n", res.CommitMessage)
	if len(res.Files) > 0 {
		b.WriteString("\n## Files\n\n")
		for _, f := range res.Files {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return b.String()
}

// History lists journal entries, newest first.
func History(entries []journal.Entry, root string) string {
	if len(entries) == 0 {
		return "No decisions recorded yet.\n"
	}
	var b strings.Builder
	b.WriteString("# Decision history\n\n")
	b.WriteString("| When | Run | File | Line | Change | Decision |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s | %s |\n",
			e.DecidedAt.Local().Format(time.DateTime), shortID(e.RunID), rel(root, e.File), e.Line, e.Kind, e.Decision)
	}
	return b.String()
}

func writeFailures(b *strings.Builder, root string, failures []batch.Failure) {
	if len(failures) == 0 {
		return
	}
	b.WriteString("\n## Left unmodified\n\n")
	for _, f := range failures {
		fmt.Fprintf(b, "- %s line %d: unterminated %s\n", rel(root, f.File), f.Line, f.Kind)
	}
}

func rel(root, path string) string {
	if root == "" {
		return path
	}
	if r, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
