// Package session persists the record of the most recent revise run so
// `zaphod status` can report it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kingrea/zaphod/internal/batch"
)

// ErrStateNotFound is returned when no run has been saved yet.
var ErrStateNotFound = errors.New("session: state not found")

// FileName is the state file inside .zaphod/state.
const FileName = "last-run.json"

// Store persists run state snapshots.
type Store interface {
	Load() (batch.RunState, error)
	Save(batch.RunState) error
}

// Repository stores the last run as JSON.
type Repository struct {
	path string
}

// NewRepository creates a repository writing to path.
func NewRepository(path string) *Repository {
	return &Repository{path: path}
}

// Path returns the backing file.
func (r *Repository) Path() string { return r.path }

// Load reads the persisted state if present.
func (r *Repository) Load() (batch.RunState, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return batch.RunState{}, ErrStateNotFound
		}
		return batch.RunState{}, fmt.Errorf("session: read %s: %w", r.path, err)
	}
	var state batch.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return batch.RunState{}, fmt.Errorf("session: decode %s: %w", r.path, err)
	}
	return state, nil
}

// Save writes the run state, replacing the previous one.
func (r *Repository) Save(state batch.RunState) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("session: ensure dir: %w", err)
	}
	encoded, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("session: write: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("session: replace %s: %w", r.path, err)
	}
	return nil
}
