package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/zaphod/internal/batch"
	"github.com/kingrea/zaphod/internal/config"
	"github.com/kingrea/zaphod/internal/decide"
	"github.com/kingrea/zaphod/internal/journal"
	"github.com/kingrea/zaphod/internal/logbook"
	"github.com/kingrea/zaphod/internal/preflight"
	"github.com/kingrea/zaphod/internal/prompt"
	"github.com/kingrea/zaphod/internal/render"
	"github.com/kingrea/zaphod/internal/report"
	"github.com/kingrea/zaphod/internal/session"
	"github.com/kingrea/zaphod/internal/tui"
)

// documentFlags are shared by diff and revise.
type documentFlags struct {
	main      string
	subdir    string
	citations bool
}

func (d *documentFlags) register(fs *flag.FlagSet) {
	for _, name := range []string{"m", "main"} {
		fs.StringVar(&d.main, name, "", "main LaTeX file (default from config, main.tex)")
	}
	for _, name := range []string{"s", "subdir"} {
		fs.StringVar(&d.subdir, name, "", "directory holding the LaTeX sources")
	}
	for _, name := range []string{"c", "citations"} {
		fs.BoolVar(&d.citations, name, false, "run bibtex when rendering")
	}
}

// apply copies the flags that were given on the command line over cfg.
func (d *documentFlags) apply(fs *flag.FlagSet, cfg *config.Config) error {
	cfg.SetSubdir(d.subdir)
	if err := cfg.SetMain(d.main); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "c" || f.Name == "citations" {
			cfg.Project.Document.Citations = d.citations
		}
	})
	return nil
}

func (a *app) renderJob() render.Job {
	return render.Job{
		Dir:       a.cfg.DocumentDir(),
		Main:      a.cfg.Project.Document.Main,
		JobName:   a.cfg.JobName(),
		Citations: a.cfg.Project.Document.Citations,
	}
}

func runRevise(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("revise", flag.ExitOnError)
	var doc documentFlags
	doc.register(fs)
	promptMode := fs.String("prompt", "", "decision prompt: auto, tui or line")
	message := fs.String("message", "", "commit message used when committing the revision")
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
	if *promptMode != "" {
		if err := cfg.SetPromptMode(*promptMode); err != nil {
			return err
		}
	}
	if *message != "" {
		cfg.Project.Commit.Message = *message
	}

	checks := preflight.Checks{
		Subdir: cfg.DocumentDir(),
		Main:   cfg.Project.Document.Main,
		Tools:  preflight.Tools(cfg.Project.Render.Engine, cfg.Project.Render.Bibtex, false, cfg.Project.Document.Citations),
	}
	if err := preflight.Run(ctx, checks, a.git); err != nil {
		return err
	}

	files, err := batch.FindCandidates(cfg.DocumentDir(), cfg.Project.Document.Extension)
	if errors.Is(err, batch.ErrNoCandidates) {
		fmt.Printf("No files with change markers under %s\n", cfg.DocumentDir())
		return nil
	}
	if err != nil {
		return err
	}

	decider, release, err := newDecider(cfg.Project.Prompt.Mode, prompt.IsTerminal(), a.book)
	if err != nil {
		return err
	}
	defer release()

	opts := []batch.Option{
		batch.WithRenderer(a.renderer(), a.renderJob()),
		batch.WithCommitter(a.git),
		batch.WithLogbook(a.book),
		batch.WithCommitMessage(cfg.Project.Commit.Message),
	}
	if cfg.Project.Journal.Enabled {
		j, err := journal.Open(cfg.JournalPath())
		if err != nil {
			a.book.Warn("journal unavailable: %v", err)
		} else {
			defer j.Close()
			opts = append(opts, batch.WithRecorder(j))
		}
	}

	state, runErr := batch.NewDriver(decider, opts...).Run(ctx, files)
	if state != nil {
		store := session.NewRepository(cfg.StatePath(session.FileName))
		if err := store.Save(*state); err != nil {
			a.book.Warn("could not save run state: %v", err)
		}
		printMarkdown(report.Run(*state, cfg.ProjectDir))
	}
	return runErr
}

// newDecider picks the decision provider for mode. auto uses the full-screen
// view on a terminal and line prompts otherwise.
func newDecider(mode string, tty bool, book *logbook.Logbook) (decide.Decider, func(), error) {
	switch resolvePromptMode(mode, tty) {
	case config.PromptTUI:
		if !tty {
			return nil, nil, fmt.Errorf("the tui prompt needs a terminal; use --prompt line")
		}
		return tui.NewDecider(book, tui.WithProgramOptions(tea.WithAltScreen())), func() {}, nil
	default:
		line := prompt.NewTerminal()
		return line, func() { line.Close() }, nil
	}
}

func resolvePromptMode(mode string, tty bool) string {
	switch mode {
	case config.PromptTUI, config.PromptLine:
		return mode
	}
	if tty {
		return config.PromptTUI
	}
	return config.PromptLine
}
