// Package quota enforces the daily generation ceiling. A single persisted
// record tracks how many generations happened today; the record rolls
// forward automatically on the first read of each new calendar day.
package quota

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName = ".canvas-cli"
	recordFile    = "quota.json"
)

// Store persists the serialized quota record as a single named key.
// Implementations must treat a missing record as a normal condition and
// report it with os.ErrNotExist semantics via Get's error.
type Store interface {
	// Get returns the raw serialized record, or an error if the record is
	// absent or unreadable.
	Get() ([]byte, error)

	// Set replaces the record wholesale.
	Set(data []byte) error
}

// FileStore keeps the quota record in a single JSON file under the user's
// config directory. This is the only state shared across CLI sessions;
// concurrent sessions writing the same file are an accepted limitation.
type FileStore struct {
	path string
}

// NewFileStore resolves the quota file path and ensures its directory
// exists. The directory defaults to ~/.canvas-cli and can be overridden
// with CANVAS_CONFIG_DIR.
func NewFileStore() (*FileStore, error) {
	dir := os.Getenv("CANVAS_CONFIG_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, configDirName)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	return &FileStore{path: filepath.Join(dir, recordFile)}, nil
}

// Path returns the resolved quota file location, for startup logging.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get() ([]byte, error) {
	return os.ReadFile(s.path)
}

func (s *FileStore) Set(data []byte) error {
	return os.WriteFile(s.path, data, 0o600)
}

// MemStore is an in-memory Store for tests and for degraded operation when
// no file store could be created.
type MemStore struct {
	data []byte
	set  bool

	// FailGet and FailSet force storage errors, for exercising the
	// tracker's degraded path in tests.
	FailGet bool
	FailSet bool
}

func (s *MemStore) Get() ([]byte, error) {
	if s.FailGet {
		return nil, fmt.Errorf("forced get failure")
	}
	if !s.set {
		return nil, os.ErrNotExist
	}
	return s.data, nil
}

func (s *MemStore) Set(data []byte) error {
	if s.FailSet {
		return fmt.Errorf("forced set failure")
	}
	s.data = append([]byte(nil), data...)
	s.set = true
	return nil
}
