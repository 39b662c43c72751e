package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kingrea/zaphod/internal/annotate"
	"github.com/kingrea/zaphod/internal/latexdiff"
	"github.com/kingrea/zaphod/internal/preflight"
	"github.com/kingrea/zaphod/internal/report"
)

func runDiff(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	var doc documentFlags
	doc.register(fs)
	var rev1, rev2, exclude, markup string
	for _, name := range []string{"r", "rev1"} {
		fs.StringVar(&rev1, name, "master^", "old revision")
	}
	for _, name := range []string{"t", "rev2"} {
		fs.StringVar(&rev2, name, "master", "new revision")
	}
	for _, name := range []string{"e", "exclude"} {
		fs.StringVar(&exclude, name, "", "comma separated text commands latexdiff should not mark, e.g. cite,ref")
	}
	for _, name := range []string{"p", "type"} {
		fs.StringVar(&markup, name, "", "latexdiff markup type (default from config, "+latexdiff.DefaultType+")")
	}
	fs.Parse(args)

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg
	if err := doc.apply(fs, cfg); err != nil {
		return err
	}
	if markup != "" {
		if err := cfg.SetMarkupType(markup); err != nil {
			return err
		}
	}
	if exclude != "" {
		cfg.SetExclude(exclude)
	}

	subdir, err := filepath.Rel(cfg.ProjectDir, cfg.DocumentDir())
	if err != nil || strings.HasPrefix(subdir, "..") {
		return fmt.Errorf("subdirectory %s is outside the repository %s", cfg.DocumentDir(), cfg.ProjectDir)
	}

	checks := preflight.Checks{
		Subdir: cfg.DocumentDir(),
		Main:   cfg.Project.Document.Main,
		Tools:  preflight.Tools(cfg.Project.Render.Engine, cfg.Project.Render.Bibtex, true, cfg.Project.Document.Citations),
	}
	if err := preflight.Run(ctx, checks, a.git); err != nil {
		return err
	}

	workflow := annotate.New(a.git, latexdiff.New(a.runner),
		annotate.WithRenderer(a.renderer()),
		annotate.WithLogbook(a.book),
	)
	res, err := workflow.Run(ctx, annotate.Request{
		Rev1:      rev1,
		Rev2:      rev2,
		Subdir:    filepath.ToSlash(subdir),
		Main:      cfg.Project.Document.Main,
		Extension: cfg.Project.Document.Extension,
		Citations: cfg.Project.Document.Citations,
		Options: latexdiff.Options{
			Type:           cfg.Project.Latexdiff.Type,
			ExcludeTextCmd: cfg.Project.Latexdiff.Exclude,
		},
	})
	if err != nil {
		return err
	}
	printMarkdown(report.Diff(res, cfg.ProjectDir))
	return nil
}
