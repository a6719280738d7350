// Package lockfile implements tskit.lock — a file that tracks MD5
// checksums of source strings already sent out for translation, per
// catalog. This enables incremental export: only units that are new or
// whose source/comment changed since the last round trip are put in the
// next transport table.
//
// The lock file lives alongside .tskit.yaml as tskit.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/linguakit/tskit/tsfile"
)

// Name is the lock file name.
const Name = "tskit.lock"

// Version is the lock file format version.
const Version = 1

// File represents the tskit.lock structure: per-catalog maps from unit
// key to checksum of the unit's source content.
type File struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"`

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// Load reads the lock file from a directory, returning an empty one
// when it does not exist yet.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, Name)
	lf := &File{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	return lf, nil
}

// Save writes the lock file to disk.
func (lf *File) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (lf *File) Path() string { return lf.path }

// UnitKey identifies a unit within one catalog: "context|source".
func UnitKey(u tsfile.Unit) string {
	return u.Context + "|" + u.Source
}

// unitContent is what gets hashed: the source plus the comment, so a
// comment edit also re-queues the unit.
func unitContent(u tsfile.Unit) string {
	if u.Comment != "" {
		return u.Source + "\x00" + u.Comment
	}
	return u.Source
}

// hash computes the MD5 hex digest of a string.
func hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// FilterChanged returns the units that are new or changed for a catalog
// since the last recorded export, preserving input order.
func (lf *File) FilterChanged(catalog string, units []tsfile.Unit) []tsfile.Unit {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[catalog]
	var changed []tsfile.Unit
	for _, u := range units {
		if existing == nil || existing[UnitKey(u)] != hash(unitContent(u)) {
			changed = append(changed, u)
		}
	}
	return changed
}

// Record stores the checksums of units after a successful round trip.
func (lf *File) Record(catalog string, units []tsfile.Unit) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[catalog] == nil {
		lf.Checksums[catalog] = make(map[string]string)
	}
	for _, u := range units {
		lf.Checksums[catalog][UnitKey(u)] = hash(unitContent(u))
	}
}

// Clean drops recorded keys that no longer exist in the catalog, so
// removed strings do not accumulate.
func (lf *File) Clean(catalog string, current []tsfile.Unit) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[catalog]
	if existing == nil {
		return
	}
	valid := make(map[string]bool, len(current))
	for _, u := range current {
		valid[UnitKey(u)] = true
	}
	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
}

// Stats returns the number of catalogs and recorded keys.
func (lf *File) Stats() (catalogs, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	catalogs = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Catalogs returns the sorted catalog identifiers present in the lock.
func (lf *File) Catalogs() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	out := make([]string, 0, len(lf.Checksums))
	for c := range lf.Checksums {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
