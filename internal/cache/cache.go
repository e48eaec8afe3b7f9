// Package cache keeps the user-prompt project summary on disk so repeated
// prompts on an unchanged tree skip the sweep.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"hookguard/internal/paths"
)

// FileName is the cache file inside the project state directory.
const FileName = "project-cache.json"

// DefaultTTL bounds the age of a cache entry.
const DefaultTTL = time.Hour

// FileHash fingerprints one file of the cached file set.
type FileHash struct {
	Path         string    `json:"path"`
	ModifiedTime time.Time `json:"modified_time"`
	Size         int64     `json:"size"`
	Hash         string    `json:"hash"`
}

// Entry is the on-disk cache document.
type Entry struct {
	Structure      json.RawMessage `json:"structure"`
	Metrics        json.RawMessage `json:"metrics"`
	FileHashes     []FileHash      `json:"file_hashes"`
	CacheTimestamp time.Time       `json:"cache_timestamp"`
	LastModified   time.Time       `json:"last_modified"`
}

// DecodeStructure unmarshals the structure payload into v.
func (e *Entry) DecodeStructure(v any) error {
	return json.Unmarshal(e.Structure, v)
}

// DecodeMetrics unmarshals the metrics payload into v.
func (e *Entry) DecodeMetrics(v any) error {
	return json.Unmarshal(e.Metrics, v)
}

// Store reads and writes the cache of one project root.
type Store struct {
	root   string
	path   string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New creates a store for root. A non-positive ttl selects DefaultTTL.
func New(root string, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		root:   root,
		path:   filepath.Join(paths.StateDir(root), FileName),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Path returns the cache file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the cache file. A missing file yields (nil, nil).
func (s *Store) Load() (*Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project cache: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse project cache: %w", err)
	}
	return &e, nil
}

// Lookup returns the cached entry when it is valid for files, the relative
// paths the sweep would analyze now.
func (s *Store) Lookup(files []string) (*Entry, bool) {
	e, err := s.Load()
	if err != nil {
		s.logger.Debug("project cache unreadable", "path", s.path, "error", err)
		return nil, false
	}
	if e == nil {
		return nil, false
	}
	if reason := s.stale(e, files); reason != "" {
		s.logger.Debug("project cache stale", "reason", reason)
		return nil, false
	}
	return e, true
}

// stale returns why e cannot serve files, or "" when it can.
func (s *Store) stale(e *Entry, files []string) string {
	if s.now().Sub(e.CacheTimestamp) > s.ttl {
		return "expired"
	}
	if len(e.FileHashes) != len(files) {
		return "file set changed"
	}
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	for i, rel := range sorted {
		want := e.FileHashes[i]
		if want.Path != rel {
			return "file set changed"
		}
		info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel)))
		if err != nil {
			return "file missing: " + rel
		}
		if info.Size() != want.Size {
			return "size changed: " + rel
		}
		if !info.ModTime().Equal(want.ModifiedTime) {
			return "modified: " + rel
		}
		got, err := hashFile(filepath.Join(s.root, filepath.FromSlash(rel)))
		if err != nil || got != want.Hash {
			return "content changed: " + rel
		}
	}
	return ""
}

// Save fingerprints files and writes a new entry holding structure and
// metrics. The write is atomic.
func (s *Store) Save(files []string, structure, metrics any) (*Entry, error) {
	hashes, err := Snapshot(s.root, files)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		FileHashes:     hashes,
		CacheTimestamp: s.now().UTC(),
	}
	for _, h := range hashes {
		if h.ModifiedTime.After(e.LastModified) {
			e.LastModified = h.ModifiedTime
		}
	}
	if e.Structure, err = json.Marshal(structure); err != nil {
		return nil, fmt.Errorf("failed to encode structure: %w", err)
	}
	if e.Metrics, err = json.Marshal(metrics); err != nil {
		return nil, fmt.Errorf("failed to encode metrics: %w", err)
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode project cache: %w", err)
	}
	if _, err := paths.EnsureStateDir(s.root); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write project cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to replace project cache: %w", err)
	}
	return e, nil
}

// Snapshot fingerprints files under root, sorted by path.
func Snapshot(root string, files []string) ([]FileHash, error) {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	out := make([]FileHash, 0, len(sorted))
	for _, rel := range sorted {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", rel, err)
		}
		sum, err := hashFile(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to hash %s: %w", rel, err)
		}
		out = append(out, FileHash{
			Path:         rel,
			ModifiedTime: info.ModTime(),
			Size:         info.Size(),
			Hash:         sum,
		})
	}
	return out, nil
}

// hashFile computes SHA256 of a file
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck // read-only

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
