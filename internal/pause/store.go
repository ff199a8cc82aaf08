package pause

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	monerrors "github.com/jamesprial/pi-monitor/internal/errors"
)

// DefaultPath is the pause file used when none is configured.
const DefaultPath = "pause.json"

// Store loads and saves the pause window.
type Store interface {
	Load() (*Window, error)
	Save(Window) error
}

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// FileStore keeps the window in a JSON file. The monitoring cycle only reads
// it; the pause command overwrites it. No lock guards concurrent writers.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path, or DefaultPath when empty.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load returns the stored window, or nil when the file does not exist. A file
// that cannot be read or decoded is a ConfigError.
func (s *FileStore) Load() (*Window, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &monerrors.ConfigError{Path: s.path, Err: err}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &monerrors.ConfigError{Path: s.path, Err: fmt.Errorf("decode pause file: %w", err)}
	}
	field, ok := raw["pause_until"]
	if !ok {
		return nil, &monerrors.ConfigError{Path: s.path, Err: errors.New("pause_until is missing")}
	}
	var w Window
	if err := json.Unmarshal(field, &w.PauseUntil); err != nil {
		return nil, &monerrors.ConfigError{Path: s.path, Err: fmt.Errorf("pause_until must be an integer: %w", err)}
	}
	return &w, nil
}

// Save replaces the file with w. The write goes to a temporary file in the
// same directory which is then renamed over the old one.
func (s *FileStore) Save(w Window) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode pause window: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".pause-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp pause file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp pause file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp pause file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp pause file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace pause file %s: %w", s.path, err)
	}
	success = true
	return nil
}
