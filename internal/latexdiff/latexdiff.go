// Package latexdiff runs the latexdiff tool over two versions of a file and
// returns the annotated text.
package latexdiff

import (
	"context"
	"fmt"
	"strings"

	"github.com/kingrea/zaphod/internal/command"
)

// DefaultType is the markup style used when none is configured.
const DefaultType = "UNDERLINE"

// Options are passed through to latexdiff.
type Options struct {
	// Type selects the markup style (latexdiff --type).
	Type string
	// ExcludeTextCmd lists text commands latexdiff must not mark up.
	ExcludeTextCmd []string
}

// Args returns the latexdiff arguments for old and new.
func (o Options) Args(oldPath, newPath string) []string {
	kind := strings.ToUpper(strings.TrimSpace(o.Type))
	if kind == "" {
		kind = DefaultType
	}
	args := []string{"--type=" + kind}
	var exclude []string
	for _, cmd := range o.ExcludeTextCmd {
		if cmd = strings.TrimSpace(cmd); cmd != "" {
			exclude = append(exclude, cmd)
		}
	}
	if len(exclude) > 0 {
		args = append(args, "--exclude-textcmd="+strings.Join(exclude, ","))
	}
	return append(args, oldPath, newPath)
}

// Generator produces annotated documents.
type Generator struct {
	runner command.Runner
	binary string
}

// New returns a generator that runs latexdiff through runner.
func New(runner command.Runner) *Generator {
	return &Generator{runner: runner, binary: "latexdiff"}
}

// Generate returns newPath annotated with the changes since oldPath.
func (g *Generator) Generate(ctx context.Context, oldPath, newPath string, opts Options) (string, error) {
	out, err := g.runner.Run(ctx, "", g.binary, opts.Args(oldPath, newPath)...)
	if err != nil {
		return "", fmt.Errorf("latexdiff %s: %w", newPath, err)
	}
	if strings.TrimSpace(out.Stdout) == "" {
		return "", fmt.Errorf("latexdiff %s: empty output", newPath)
	}
	return out.Stdout, nil
}
