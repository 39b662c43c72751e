package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/zaphod/internal/markup"
)

// ErrNoCandidates is returned when no document under the subtree carries
// change markers.
var ErrNoCandidates = errors.New("batch: no files with change markers")

// skipDirs are never searched for documents.
var skipDirs = map[string]bool{
	".git":    true,
	".zaphod": true,
}

// FileReport summarizes the markers found in one document.
type FileReport struct {
	Path   string
	Counts markup.Counts
	Strays []markup.Stray
	// Err is set when the document has an unterminated span.
	Err error
}

// HasMarkers reports whether the file is a candidate for resolution.
func (r FileReport) HasMarkers() bool {
	return r.Counts.Total() > 0 || r.Err != nil
}

// DocumentFiles lists every file under root with the given extension in
// lexical walk order.
func DocumentFiles(root, ext string) ([]string, error) {
	ext = normalizeExt(ext)
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: walk %s: %w", root, err)
	}
	return files, nil
}

// FindCandidates returns the documents whose stripped text contains at
// least one begin marker. Files without markers are never presented.
func FindCandidates(root, ext string) ([]string, error) {
	files, err := DocumentFiles(root, ext)
	if err != nil {
		return nil, err
	}
	var candidates []string
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("batch: read %s: %w", path, err)
		}
		if markup.HasMarkers(markup.Parse(string(data)).Text) {
			candidates = append(candidates, path)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	return candidates, nil
}

// Survey reports span counts, stray end markers and malformed spans for
// every document under root.
func Survey(root, ext string) ([]FileReport, error) {
	files, err := DocumentFiles(root, ext)
	if err != nil {
		return nil, err
	}
	reports := make([]FileReport, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("batch: read %s: %w", path, err)
		}
		scanner := markup.NewScanner(markup.Parse(string(data)).Text)
		report := FileReport{Path: path}
		if counts, err := scanner.Count(); err != nil {
			report.Err = err
		} else {
			report.Counts = counts
			report.Strays, _ = scanner.Strays()
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ".tex"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
