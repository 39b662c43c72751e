package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/kingrea/zaphod/internal/batch"
	"github.com/kingrea/zaphod/internal/journal"
	"github.com/kingrea/zaphod/internal/report"
	"github.com/kingrea/zaphod/internal/session"
)

func runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	var subdir string
	for _, name := range []string{"s", "subdir"} {
		fs.StringVar(&subdir, name, "", "directory holding the LaTeX sources")
	}
	fs.Parse(args)

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()
	a.cfg.SetSubdir(subdir)

	reports, err := batch.Survey(a.cfg.DocumentDir(), a.cfg.Project.Document.Extension)
	if err != nil {
		return err
	}
	var last *batch.RunState
	state, err := session.NewRepository(a.cfg.StatePath(session.FileName)).Load()
	switch {
	case err == nil:
		last = &state
	case !errors.Is(err, session.ErrStateNotFound):
		return err
	}
	printMarkdown(report.Status(reports, last, a.cfg.ProjectDir))
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	var limit int
	for _, name := range []string{"n", "limit"} {
		fs.IntVar(&limit, name, 20, "number of decisions to show")
	}
	fs.Parse(args)
	if limit <= 0 {
		return fmt.Errorf("-n must be positive (got %d)", limit)
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	j, err := journal.Open(a.cfg.JournalPath())
	if err != nil {
		return err
	}
	defer j.Close()
	entries, err := j.Recent(ctx, limit)
	if err != nil {
		return err
	}
	printMarkdown(report.History(entries, a.cfg.ProjectDir))
	return nil
}
