// cmd/zaphod/main.go
//
// This is the entry point for the zaphod CLI.
// zaphod works on the git repository it is started in:
//
//	zaphod diff     annotate the changes between two revisions with latexdiff
//	zaphod revise   walk the change markers and accept or reject each one
//	zaphod status   list files that still carry markers and the last run
//	zaphod history  show recent accept/reject decisions

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"golang.org/x/term"

	"github.com/kingrea/zaphod/internal/command"
	"github.com/kingrea/zaphod/internal/config"
	"github.com/kingrea/zaphod/internal/logbook"
	"github.com/kingrea/zaphod/internal/logging"
	"github.com/kingrea/zaphod/internal/render"
	"github.com/kingrea/zaphod/internal/report"
	"github.com/kingrea/zaphod/internal/vcs"
)

const usage = `Usage: zaphod <command> [flags]

Commands:
  diff      annotate the changes between two revisions on a new branch
  revise    accept or reject each tracked change in the document
  status    list files with change markers and the last revise run
  history   show recent decisions from the journal

Run "zaphod <command> -h" for the flags of a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "diff":
		err = runDiff(ctx, os.Args[2:])
	case "revise":
		err = runRevise(ctx, os.Args[2:])
	case "status":
		err = runStatus(ctx, os.Args[2:])
	case "history":
		err = runHistory(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		stop()
		die("%v", err)
	}
}

// app bundles what every command needs once the project is loaded.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	book   *logbook.Logbook
	runner *command.Exec
	git    *vcs.Git
}

// setup initializes .zaphod in the working directory and loads its config.
func setup() (*app, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determine working directory: %w", err)
	}
	if err := config.InitDir(cwd); err != nil {
		return nil, fmt.Errorf("init %s: %w", config.StateDirName, err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogsDir())
	if err != nil {
		return nil, err
	}
	book, err := logbook.New(cfg.LogbookPath())
	if err != nil {
		logger.Close()
		return nil, err
	}
	runner := command.NewExec(logger)
	return &app{
		cfg:    cfg,
		logger: logger,
		book:   book,
		runner: runner,
		git:    vcs.New(cfg.ProjectDir, runner),
	}, nil
}

func (a *app) close() {
	a.logger.Close()
}

func (a *app) renderer() *render.Renderer {
	return render.New(a.runner,
		render.WithEngine(a.cfg.Project.Render.Engine),
		render.WithBibtex(a.cfg.Project.Render.Bibtex),
	)
}

// printMarkdown writes md to stdout, styled when stdout is a terminal.
func printMarkdown(md string) {
	fd := int(os.Stdout.Fd())
	styled := term.IsTerminal(fd)
	width := 80
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = w
	}
	fmt.Print(report.Render(md, width, styled))
}

func die(format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	os.Exit(1)
}
