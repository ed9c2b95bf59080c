// Package lockfile persists what each source produced on its last build, so
// the next build can skip inputs whose content and render options are
// unchanged and delete outputs whose inputs are gone.
package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/samber/oops"

	"github.com/g5becks/mdhtml/internal/fsutil"
)

// FileName is the lock file name inside the output directory.
const FileName = ".mdhtml.lock"

const currentVersion = 1

type LockFile struct {
	Version int                   `json:"version"`
	Sources map[string]*LockEntry `json:"sources"`
}

// LockEntry records one source build. Files maps input paths (relative to the
// source, slash separated) to the SHA-256 of their content. ETag and LastMod
// are the HTTP validators of a url source.
type LockEntry struct {
	Type        string            `json:"type"`
	ETag        string            `json:"etag,omitempty"`
	LastMod     string            `json:"last_modified,omitempty"`
	OptionsHash string            `json:"options_hash,omitempty"`
	BuiltAt     time.Time         `json:"built_at"`
	Files       map[string]string `json:"files,omitempty"`
}

func New() *LockFile {
	return &LockFile{
		Version: currentVersion,
		Sources: map[string]*LockEntry{},
	}
}

// Path returns the lock file location inside outputDir.
func Path(outputDir string) string {
	return filepath.Join(outputDir, FileName)
}

// Load reads the lock file of outputDir. A missing file is an empty lock, so
// the first build renders everything.
func Load(outputDir string) (*LockFile, error) {
	lockPath := Path(outputDir)
	data, err := os.ReadFile(lockPath)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, oops.
			Code("LOCK_ERROR").
			With("path", lockPath).
			Wrapf(err, "reading lock file")
	}

	lock := New()
	if err := json.Unmarshal(data, lock); err != nil {
		return nil, oops.
			Code("LOCK_ERROR").
			With("path", lockPath).
			Hint("Delete the lock file and run 'mdhtml build' to regenerate it").
			Wrapf(err, "parsing lock file")
	}

	switch {
	case lock.Version > currentVersion:
		return nil, oops.
			Code("LOCK_ERROR").
			With("path", lockPath).
			With("version", lock.Version).
			Hint("The lock file was written by a newer mdhtml; upgrade or delete it").
			Errorf("unsupported lock file version %d", lock.Version)
	case lock.Version <= 0:
		lock.Version = currentVersion
	}

	if lock.Sources == nil {
		lock.Sources = map[string]*LockEntry{}
	}

	return lock, nil
}

// Save writes the lock file into outputDir, replacing any previous one
// atomically.
func (l *LockFile) Save(outputDir string) error {
	if l == nil {
		return oops.
			Code("LOCK_ERROR").
			Errorf("cannot save nil lock file")
	}

	l.Version = currentVersion
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return oops.
			Code("LOCK_ERROR").
			Wrapf(err, "encoding lock file")
	}

	if err := fsutil.WriteFileAtomic(Path(outputDir), append(data, '\n')); err != nil {
		return oops.
			Code("LOCK_ERROR").
			With("path", Path(outputDir)).
			Wrapf(err, "writing lock file")
	}

	return nil
}

func (l *LockFile) GetEntry(name string) *LockEntry {
	if l == nil {
		return nil
	}

	return l.Sources[name]
}

func (l *LockFile) SetEntry(name string, entry *LockEntry) {
	if l.Sources == nil {
		l.Sources = map[string]*LockEntry{}
	}

	l.Sources[name] = entry
}

// Prune drops the entries of sources for which configured reports false and
// returns their names in sorted order.
func (l *LockFile) Prune(configured func(name string) bool) []string {
	var dropped []string
	for name := range l.Sources {
		if !configured(name) {
			dropped = append(dropped, name)
		}
	}

	slices.Sort(dropped)
	for _, name := range dropped {
		delete(l.Sources, name)
	}

	return dropped
}

// NewEntry starts the record of a build of a source of the given type, made
// with render options fingerprinted by optionsHash.
func NewEntry(sourceType, optionsHash string) *LockEntry {
	return &LockEntry{
		Type:        sourceType,
		OptionsHash: optionsHash,
		BuiltAt:     time.Now().UTC(),
		Files:       map[string]string{},
	}
}

// Matches reports whether e was built with the render options fingerprinted
// by optionsHash. A nil entry matches nothing.
func (e *LockEntry) Matches(optionsHash string) bool {
	return e != nil && e.OptionsHash == optionsHash
}

// Record stores the content hash of the input at relPath and returns it.
func (e *LockEntry) Record(relPath string, content []byte) string {
	if e.Files == nil {
		e.Files = map[string]string{}
	}

	hash := HashContent(content)
	e.Files[relPath] = hash

	return hash
}

// Unchanged reports whether the entry recorded hash for the input at relPath.
func (e *LockEntry) Unchanged(relPath, hash string) bool {
	if e == nil {
		return false
	}

	recorded, ok := e.Files[relPath]
	return ok && recorded == hash
}

// Removed lists, in sorted order, the inputs e recorded that current lacks.
func (e *LockEntry) Removed(current *LockEntry) []string {
	if e == nil {
		return nil
	}

	var removed []string
	for relPath := range e.Files {
		if current != nil {
			if _, ok := current.Files[relPath]; ok {
				continue
			}
		}

		removed = append(removed, relPath)
	}

	slices.Sort(removed)
	return removed
}

// Clone returns a deep copy of e, or nil for a nil entry.
func (e *LockEntry) Clone() *LockEntry {
	if e == nil {
		return nil
	}

	cloned := *e
	cloned.Files = maps.Clone(e.Files)

	return &cloned
}

// HashContent returns the hex SHA-256 of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
