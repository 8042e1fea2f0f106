// Package journal provides append-only JSON-lines persistence for saved entries.
package journal

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/journalcoach/pkg/models"
)

// BackupSuffix is appended to the journal path to form the backup file name.
const BackupSuffix = ".bak"

// maxLineBytes bounds a single journal line. Append refuses longer records and
// LoadAll skips longer lines written by something else.
const maxLineBytes = 4 * 1024 * 1024

var (
	// ErrStorageUnavailable is returned when no journal path has been chosen.
	ErrStorageUnavailable = errors.New("no journal file selected")
	// ErrRecordTooLarge is returned by Append for a record that would not be read back.
	ErrRecordTooLarge = errors.New("journal record too large")
)

// WriteError reports that a record could not be appended, even after recovery.
type WriteError struct {
	Err  error
	Path string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("could not write journal %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// PathSource supplies the active journal path. It may be unset.
type PathSource interface {
	Get() (string, bool)
}

// Store appends records to, and reads them back from, the journal at the current path.
// The path is looked up on every call so a reassignment takes effect immediately.
type Store struct {
	paths PathSource
}

// NewStore creates a store over paths.
func NewStore(paths PathSource) *Store {
	return &Store{paths: paths}
}

// Path returns the current journal path.
func (s *Store) Path() (string, error) {
	path, ok := s.paths.Get()
	if !ok {
		return "", ErrStorageUnavailable
	}
	return path, nil
}

// Ensure creates the parent directory and an empty journal if either is missing.
// An existing file is never truncated.
func (s *Store) Ensure() error {
	path, err := s.Path()
	if err != nil {
		return err
	}
	return ensureFile(path)
}

func ensureFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create journal directory: %w", err)
		}
	}
	// O_CREATE without O_TRUNC leaves existing content alone.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304 -- user-chosen journal path
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	return f.Close()
}

// Backup copies the journal to <path>.bak, replacing any previous backup.
// A missing journal is not an error.
func (s *Store) Backup() error {
	path, err := s.Path()
	if err != nil {
		return err
	}
	return backupFile(path)
}

func backupFile(path string) error {
	src, err := os.Open(path) // #nosec G304 -- user-chosen journal path
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer src.Close()

	tmp := path + BackupSuffix + ".tmp"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) // #nosec G304 -- derived from journal path
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path+BackupSuffix)
}

// Append writes rec as one newline-terminated JSON line. It ensures the file exists
// and refreshes the backup first; a failed backup is logged and does not block the write.
func (s *Store) Append(rec models.Record) error {
	path, err := s.Path()
	if err != nil {
		return err
	}
	line, err := encodeLine(rec)
	if err != nil {
		return err
	}
	if err := ensureFile(path); err != nil {
		return err
	}
	if err := backupFile(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Journal backup failed, continuing with append")
	}
	return appendLine(path, line)
}

func encodeLine(rec models.Record) ([]byte, error) {
	line, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if len(line) > maxLineBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrRecordTooLarge, len(line), maxLineBytes)
	}
	return append(line, '\n'), nil
}

func appendLine(path string, line []byte) error {
	// O_APPEND without O_CREATE: a file removed since Ensure surfaces as an error here
	// instead of silently starting a fresh journal mid-write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600) // #nosec G304 -- user-chosen journal path
	if err != nil {
		return err
	}
	// One write call per record keeps each line whole for concurrent readers.
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// AppendWithRecovery appends rec; if that fails it re-runs Ensure and tries once more.
// A second failure is returned as *WriteError. ErrStorageUnavailable is returned as is;
// an oversized record is not retried.
func (s *Store) AppendWithRecovery(rec models.Record) error {
	err := s.Append(rec)
	if err == nil || errors.Is(err, ErrStorageUnavailable) {
		return err
	}

	path, _ := s.Path()
	if errors.Is(err, ErrRecordTooLarge) {
		return &WriteError{Path: path, Err: err}
	}
	log.Warn().Err(err).Str("path", path).Msg("Journal append failed, recreating file and retrying once")

	if ensureErr := s.Ensure(); ensureErr != nil {
		if errors.Is(ensureErr, ErrStorageUnavailable) {
			return ensureErr
		}
		return &WriteError{Path: path, Err: ensureErr}
	}
	if retryErr := s.Append(rec); retryErr != nil {
		if errors.Is(retryErr, ErrStorageUnavailable) {
			return retryErr
		}
		return &WriteError{Path: path, Err: retryErr}
	}
	return nil
}

// LoadAll returns every parseable record in append order. The sequence re-reads the
// file each time it is ranged over. Blank and malformed lines are skipped; an unset
// path or a missing file yields an empty sequence.
func (s *Store) LoadAll() iter.Seq[models.Record] {
	return func(yield func(models.Record) bool) {
		path, ok := s.paths.Get()
		if !ok {
			return
		}
		f, err := os.Open(path) // #nosec G304 -- user-chosen journal path
		if err != nil {
			if !os.IsNotExist(err) {
				log.Warn().Err(err).Str("path", path).Msg("Failed to open journal for reading")
			}
			return
		}
		defer f.Close()

		reader := bufio.NewReaderSize(f, 64*1024)
		lineNo := 0
		for {
			raw, oversized, err := readLine(reader)
			if err != nil && !errors.Is(err, io.EOF) {
				log.Warn().Err(err).Str("path", path).Int("line", lineNo).Msg("Stopped reading journal early")
				return
			}
			if err != nil && len(raw) == 0 && !oversized {
				return
			}
			lineNo++

			switch {
			case oversized:
				log.Warn().Str("path", path).Int("line", lineNo).Int("limit", maxLineBytes).Msg("Skipping oversized journal line")
			case len(bytes.TrimSpace(raw)) == 0:
			default:
				var rec models.Record
				if jsonErr := json.Unmarshal(raw, &rec); jsonErr != nil {
					log.Debug().Err(jsonErr).Str("path", path).Int("line", lineNo).Msg("Skipping malformed journal line")
				} else if !yield(rec) {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}
}

// readLine returns the next line without its newline. A line longer than
// maxLineBytes is consumed without being kept and reported as oversized.
// At the end of the file err is io.EOF, possibly alongside a final unterminated line.
func readLine(r *bufio.Reader) (line []byte, oversized bool, err error) {
	for {
		chunk, readErr := r.ReadSlice('\n')
		if !oversized {
			if len(line)+len(chunk) > maxLineBytes+1 {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(readErr, bufio.ErrBufferFull) {
			continue
		}
		return bytes.TrimSuffix(line, []byte{'\n'}), oversized, readErr
	}
}
