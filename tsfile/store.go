package tsfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultMaxFileSize bounds catalog parsing. Files above the limit are
// rejected before any XML work begins.
const DefaultMaxFileSize = 16 << 20

// ErrNotFound reports a missing catalog file. Load surfaces it so callers
// can decide whether a missing language file is an error or a catalog to
// be created (LoadOrCreate).
var ErrNotFound = errors.New("catalog file not found")

// PersistError reports a failed write. The original file is guaranteed
// to be intact when this error is returned.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persisting catalog %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// renameFile is swapped out by tests to simulate write failures.
var renameFile = os.Rename

// Report summarizes one merge pass over a catalog.
type Report struct {
	Created   int
	Updated   int
	Unchanged int
}

// Changed reports whether the merge touched the catalog at all.
func (r Report) Changed() bool { return r.Created+r.Updated > 0 }

// Total returns the number of units the merge processed.
func (r Report) Total() int { return r.Created + r.Updated + r.Unchanged }

func (r Report) String() string {
	return fmt.Sprintf("created %d, updated %d, unchanged %d", r.Created, r.Updated, r.Unchanged)
}

// Store owns one catalog file's lifecycle: load, query, merge, persist.
// A mutex serializes merge/persist so concurrent batches against the
// same store cannot interleave.
type Store struct {
	path    string
	lang    string
	maxSize int64

	mu   sync.Mutex
	file *File
}

// NewStore creates a store for a catalog path and its language code.
// The file is not read until Load or LoadOrCreate.
func NewStore(path, lang string) *Store {
	return &Store{path: path, lang: lang, maxSize: DefaultMaxFileSize}
}

// Path returns the catalog file path.
func (s *Store) Path() string { return s.path }

// Lang returns the store's language code.
func (s *Store) Lang() string { return s.lang }

// SetMaxFileSize overrides the parse size bound.
func (s *Store) SetMaxFileSize(n int64) {
	if n > 0 {
		s.maxSize = n
	}
}

// File returns the loaded catalog, or nil before Load.
func (s *Store) File() *File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file
}

// Load reads and parses the catalog file. A missing file is reported as
// ErrNotFound; use LoadOrCreate when the language is allowed to be new.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// LoadOrCreate reads the catalog file, or starts an empty catalog for
// the store's language when the file does not exist yet.
func (s *Store) LoadOrCreate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.loadLocked()
	if errors.Is(err, ErrNotFound) {
		f := NewFile(s.lang)
		f.dirty = 0
		s.file = f
		return nil
	}
	return err
}

func (s *Store) loadLocked() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", s.path, ErrNotFound)
		}
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	if info.Size() > s.maxSize {
		return &ParseError{
			Path: s.path,
			Err:  fmt.Errorf("file size %d exceeds limit %d", info.Size(), s.maxSize),
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	f, err := Parse(data, s.path)
	if err != nil {
		return err
	}
	if f.Language == "" {
		f.Language = s.lang
	}
	s.file = f
	return nil
}

// Find looks up a message by (context, source). O(1) amortized: the
// index is built on first query and kept current across inserts.
func (s *Store) Find(context, source string) (*Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil, false
	}
	return s.file.Find(context, source)
}

// Merge applies units to the loaded catalog. Absent units are appended
// to their context (created in document order when new); present units
// are updated in place only when translation or comment actually differ.
// Re-merging identical input reports every unit unchanged.
func (s *Store) Merge(units []Unit) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return Report{}, fmt.Errorf("store %s: catalog not loaded", s.path)
	}

	var rep Report
	for _, u := range units {
		if u.Context == "" || u.Source == "" {
			continue
		}

		m, ok := s.file.Find(u.Context, u.Source)
		if !ok {
			s.file.insert(u)
			rep.Created++
			continue
		}

		changed := false
		// An empty incoming translation never clears an existing one:
		// source-only batches must be no-ops on translated entries.
		if u.Translation != "" && u.Translation != m.Translation {
			m.Translation = u.Translation
			m.dirtyTrans = true
			changed = true
		}
		if u.Comment != "" && u.Comment != m.Comment {
			m.Comment = u.Comment
			m.dirtyComment = true
			changed = true
		}
		if changed {
			if st := statusFor(m.Translation); st != m.Status {
				m.Status = st
				m.dirtyTrans = true
			}
			s.file.dirty++
			rep.Updated++
		} else {
			rep.Unchanged++
		}
	}
	return rep, nil
}

// Persist writes the catalog back if any merge changed it, returning
// whether a write happened. The write goes through a temp file in the
// target directory followed by an atomic rename, so a failure leaves the
// original file byte-for-byte intact.
func (s *Store) Persist() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil || s.file.dirty == 0 {
		return false, nil
	}

	data, err := s.file.render()
	if err != nil {
		return false, &PersistError{Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".tskit-*.ts")
	if err != nil {
		return false, &PersistError{Path: s.path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return false, &PersistError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return false, &PersistError{Path: s.path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return false, &PersistError{Path: s.path, Err: err}
	}
	if err := renameFile(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return false, &PersistError{Path: s.path, Err: err}
	}

	// Reparse so spans match the bytes now on disk; later merges in the
	// same process splice against the fresh document.
	f, err := Parse(data, s.path)
	if err != nil {
		return true, err
	}
	if f.Language == "" {
		f.Language = s.lang
	}
	s.file = f
	return true, nil
}
