package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// ErrEmptyPath is returned when an empty journal path is assigned.
var ErrEmptyPath = errors.New("journal path is empty")

type pathFileContents struct {
	JournalPath string `json:"jsonl_path"`
}

// PathStore holds the active journal path. It may be unset. Reads and writes are safe
// from any goroutine; assignments are persisted when a backing file is configured.
type PathStore struct {
	file string
	path string
	mu   sync.RWMutex
}

// NewPathStore returns an in-memory store holding path (which may be empty).
func NewPathStore(path string) *PathStore {
	return &PathStore{path: strings.TrimSpace(path)}
}

// LoadPathStore reads the remembered path from file. A missing or unreadable file
// yields an unset store that will persist to file on the next Set.
func LoadPathStore(file string) *PathStore {
	s := &PathStore{file: file}

	data, err := os.ReadFile(file) // #nosec G304 -- file lives in our data directory
	if err != nil {
		return s
	}
	var contents pathFileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return s
	}
	s.path = strings.TrimSpace(contents.JournalPath)
	return s
}

// Get returns the journal path and whether it is set.
func (s *PathStore) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path, s.path != ""
}

// Set assigns the journal path and persists it. The in-memory value is updated even
// when persisting fails; the error is returned so callers can report it.
func (s *PathStore) Set(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrEmptyPath
	}

	s.mu.Lock()
	s.path = path
	file := s.file
	s.mu.Unlock()

	if file == "" {
		return nil
	}
	return writePathFile(file, path)
}

func writePathFile(file, path string) error {
	data, err := json.Marshal(pathFileContents{JournalPath: path})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0750); err != nil {
		return err
	}
	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, file)
}
