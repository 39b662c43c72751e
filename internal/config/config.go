// internal/config/config.go
//
// This package handles configuration and the .zaphod directory structure.
// Every project that zaphod touches gets a .zaphod/ folder in its root holding
// the config file, logs and the state of the last run. The folder ignores
// itself so tool state never shows up as a dirty working tree.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// StateDirName is the name of the directory we create in each project
	StateDirName = ".zaphod"

	// PromptEnv overrides prompt.mode when set.
	PromptEnv = "ZAPHOD_PROMPT"

	// DefaultJobName names the PDF rendered after a revise run, so the
	// document's own PDF is left alone.
	DefaultJobName = "accepted"
)

// Prompt modes.
const (
	PromptAuto = "auto"
	PromptTUI  = "tui"
	PromptLine = "line"
)

// Diff markup styles accepted by latexdiff -t.
var markupTypes = []string{
	"UNDERLINE", "CTRADITIONAL", "TRADITIONAL", "CFONT", "FONTSTRIKE",
	"INVISIBLE", "CHANGEBAR", "CCHANGEBAR", "CULINECHBAR", "CFONTCHBAR", "BOLD", "PDFCOMMENT",
}

const defaultProjectConfigYAML = `# zaphod project configuration
version: 1

document:
  subdir: .
  main: main.tex
  extension: .tex
  citations: false

latexdiff:
  type: UNDERLINE
  # Text commands latexdiff should leave alone, e.g. [cite, ref]
  exclude: []

render:
  engine: pdflatex
  bibtex: bibtex
  # Defaults to "accepted", leaving the main PDF untouched.
  job_name: ""

prompt:
  # auto picks the full-screen view on a terminal and line prompts otherwise.
  mode: auto

commit:
  # Leave empty to be asked for a message.
  message: ""

journal:
  enabled: true
`

const gitignoreBody = "*\n"

// DocumentConfig locates the LaTeX sources.
type DocumentConfig struct {
	Subdir    string `yaml:"subdir"`
	Main      string `yaml:"main"`
	Extension string `yaml:"extension"`
	Citations bool   `yaml:"citations"`
}

// LatexdiffConfig controls the diff markup generator.
type LatexdiffConfig struct {
	Type    string   `yaml:"type"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// RenderConfig controls pdf rendering.
type RenderConfig struct {
	Engine  string `yaml:"engine"`
	Bibtex  string `yaml:"bibtex"`
	JobName string `yaml:"job_name"`
}

// PromptConfig selects the decision provider.
type PromptConfig struct {
	Mode string `yaml:"mode"`
}

// CommitConfig holds the default commit message for revise runs.
type CommitConfig struct {
	Message string `yaml:"message"`
}

// JournalConfig toggles the decision journal.
type JournalConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ProjectConfig models .zaphod/config.yaml.
type ProjectConfig struct {
	Version   int             `yaml:"version"`
	Document  DocumentConfig  `yaml:"document"`
	Latexdiff LatexdiffConfig `yaml:"latexdiff"`
	Render    RenderConfig    `yaml:"render"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Commit    CommitConfig    `yaml:"commit"`
	Journal   JournalConfig   `yaml:"journal"`
}

// Config holds the runtime configuration for zaphod.
type Config struct {
	// ProjectDir is the repository root zaphod was started in
	ProjectDir string

	// StateDir is ProjectDir/.zaphod
	StateDir string

	Project ProjectConfig
}

// InitDir creates the .zaphod directory structure in the given project directory.
//
// Structure created:
// .zaphod/
// ├── .gitignore    <- ignores everything below
// ├── config.yaml   <- written with defaults when missing
// ├── logs/         <- zaphod.log and revise.log
// └── state/        <- last-run.json and journal.db
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, StateDirName)
	for _, dir := range []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	if err := writeIfMissing(filepath.Join(root, ".gitignore"), gitignoreBody); err != nil {
		return err
	}
	return writeIfMissing(filepath.Join(root, "config.yaml"), defaultProjectConfigYAML)
}

// Load reads the project configuration, falling back to defaults when the
// config file does not exist.
func Load(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", projectDir, err)
	}
	cfg := &Config{
		ProjectDir: abs,
		StateDir:   filepath.Join(abs, StateDirName),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if mode := strings.TrimSpace(os.Getenv(PromptEnv)); mode != "" {
		if err := cfg.SetPromptMode(mode); err != nil {
			return nil, fmt.Errorf("config: %s: %w", PromptEnv, err)
		}
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// StatePath returns the path of a file under .zaphod/state
func (c *Config) StatePath(name string) string {
	return filepath.Join(c.StateDir, "state", name)
}

// LogbookPath returns the revise session log.
func (c *Config) LogbookPath() string {
	return filepath.Join(c.LogsDir(), "revise.log")
}

// JournalPath returns the SQLite decision journal location.
func (c *Config) JournalPath() string {
	return c.StatePath("journal.db")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// DocumentDir returns the absolute directory holding the LaTeX sources.
func (c *Config) DocumentDir() string {
	return c.Project.Document.Subdir
}

// JobName returns the configured render job name or DefaultJobName.
func (c *Config) JobName() string {
	if name := strings.TrimSpace(c.Project.Render.JobName); name != "" {
		return name
	}
	return DefaultJobName
}

// SetSubdir overrides document.subdir, resolving it against the project.
func (c *Config) SetSubdir(subdir string) {
	if strings.TrimSpace(subdir) == "" {
		return
	}
	c.Project.Document.Subdir = resolvePath(c.ProjectDir, subdir)
}

// SetMain overrides document.main.
func (c *Config) SetMain(main string) error {
	main = strings.TrimSpace(main)
	if main == "" {
		return nil
	}
	if filepath.Ext(main) == "" {
		return fmt.Errorf("main file %q has no extension", main)
	}
	c.Project.Document.Main = main
	return nil
}

// SetExclude overrides latexdiff.exclude with a comma separated list.
func (c *Config) SetExclude(list string) {
	c.Project.Latexdiff.Exclude = cleanExclude(strings.Split(list, ","))
}

// SetPromptMode overrides prompt.mode after validating it.
func (c *Config) SetPromptMode(mode string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if !contains([]string{PromptAuto, PromptTUI, PromptLine}, mode) {
		return fmt.Errorf("prompt mode must be one of auto, tui, line (got %q)", mode)
	}
	c.Project.Prompt.Mode = mode
	return nil
}

// SetMarkupType overrides latexdiff.type after validating it.
func (c *Config) SetMarkupType(kind string) error {
	kind = strings.ToUpper(strings.TrimSpace(kind))
	if !contains(markupTypes, kind) {
		return fmt.Errorf("unknown latexdiff markup type %q", kind)
	}
	c.Project.Latexdiff.Type = kind
	return nil
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Document: DocumentConfig{
			Subdir:    ".",
			Main:      "main.tex",
			Extension: ".tex",
		},
		Latexdiff: LatexdiffConfig{Type: "UNDERLINE"},
		Render:    RenderConfig{Engine: "pdflatex", Bibtex: "bibtex"},
		Prompt:    PromptConfig{Mode: PromptAuto},
		Journal:   JournalConfig{Enabled: true},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	defaults := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = defaults.Version
	}
	if strings.TrimSpace(pc.Document.Subdir) == "" {
		pc.Document.Subdir = defaults.Document.Subdir
	}
	if strings.TrimSpace(pc.Document.Main) == "" {
		pc.Document.Main = defaults.Document.Main
	}
	if strings.TrimSpace(pc.Document.Extension) == "" {
		pc.Document.Extension = defaults.Document.Extension
	}
	if strings.TrimSpace(pc.Latexdiff.Type) == "" {
		pc.Latexdiff.Type = defaults.Latexdiff.Type
	}
	if strings.TrimSpace(pc.Render.Engine) == "" {
		pc.Render.Engine = defaults.Render.Engine
	}
	if strings.TrimSpace(pc.Render.Bibtex) == "" {
		pc.Render.Bibtex = defaults.Render.Bibtex
	}
	if strings.TrimSpace(pc.Prompt.Mode) == "" {
		pc.Prompt.Mode = defaults.Prompt.Mode
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Document.Subdir = resolvePath(base, pc.Document.Subdir)
	pc.Document.Main = strings.TrimSpace(pc.Document.Main)
	ext := strings.ToLower(strings.TrimSpace(pc.Document.Extension))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	pc.Document.Extension = ext
	pc.Latexdiff.Type = strings.ToUpper(strings.TrimSpace(pc.Latexdiff.Type))
	pc.Latexdiff.Exclude = cleanExclude(pc.Latexdiff.Exclude)
	pc.Render.Engine = strings.TrimSpace(pc.Render.Engine)
	pc.Render.Bibtex = strings.TrimSpace(pc.Render.Bibtex)
	pc.Render.JobName = strings.TrimSpace(pc.Render.JobName)
	pc.Prompt.Mode = strings.ToLower(strings.TrimSpace(pc.Prompt.Mode))
	pc.Commit.Message = strings.TrimSpace(pc.Commit.Message)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if filepath.Ext(pc.Document.Main) == "" {
		return fmt.Errorf("document.main must name a file with an extension")
	}
	if !contains(markupTypes, pc.Latexdiff.Type) {
		return fmt.Errorf("latexdiff.type %q is not a latexdiff markup style", pc.Latexdiff.Type)
	}
	if !contains([]string{PromptAuto, PromptTUI, PromptLine}, pc.Prompt.Mode) {
		return fmt.Errorf("prompt.mode must be one of auto, tui, line")
	}
	if pc.Render.Engine == "" {
		return fmt.Errorf("render.engine is required")
	}
	return nil
}

// cleanExclude drops blanks and the leading backslash latexdiff does not want.
func cleanExclude(cmds []string) []string {
	var out []string
	for _, cmd := range cmds {
		cmd = strings.TrimPrefix(strings.TrimSpace(cmd), `\`)
		if cmd != "" {
			out = append(out, cmd)
		}
	}
	return out
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func writeIfMissing(path, body string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
