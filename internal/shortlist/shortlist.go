// Package shortlist persists the seen and shortlisted idea id sets as
// a small YAML file.
//
// The file holds two sorted id lists:
//
//	seen:
//	  - idea-001
//	shortlisted:
//	  - idea-002
//
// The reconciler feeds the seen set as new ideas surface; the CLI
// manages the shortlist. Writes are atomic (temp file + rename) so a
// crashed process never leaves a truncated file behind.
package shortlist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the canonical location of the shortlist file relative
// to the project root.
const DefaultPath = ".id8/shortlist.yaml"

// ResolvePath determines the shortlist file location.
//
// Resolution order:
//  1. ID8_SHORTLIST_PATH environment variable (used as-is if set)
//  2. Explicit path parameter (if non-empty), joined under basePath
//  3. DefaultPath under basePath
//
// Pass an empty basePath for the current working directory.
func ResolvePath(basePath, path string) string {
	if envPath := os.Getenv("ID8_SHORTLIST_PATH"); envPath != "" {
		return envPath
	}
	if path != "" {
		if filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(basePath, path)
	}
	return filepath.Join(basePath, DefaultPath)
}

// sets is the YAML document shape.
type sets struct {
	Seen        []string `yaml:"seen"`
	Shortlisted []string `yaml:"shortlisted"`
}

// Store reads and writes the seen/shortlisted id sets.
//
// The file is loaded lazily on first use and kept in memory; every
// mutation rewrites the file. A Store is safe for concurrent use
// within one process, which matches how the reconciler and CLI share
// it. Cross-process concurrent writers are out of scope.
type Store struct {
	path string

	mu          sync.Mutex
	loaded      bool
	seen        map[string]struct{}
	shortlisted map[string]struct{}
}

// NewStore creates a Store with an auto-resolved path under basePath.
func NewStore(basePath string) *Store {
	return NewStoreWithPath(basePath, "")
}

// NewStoreWithPath creates a Store at an explicit path. The
// ID8_SHORTLIST_PATH environment variable still takes priority.
func NewStoreWithPath(basePath, path string) *Store {
	return &Store{path: ResolvePath(basePath, path)}
}

// load reads the file into memory. A missing file is an empty store.
// Callers must hold s.mu.
func (s *Store) load() error {
	if s.loaded {
		return nil
	}
	s.seen = make(map[string]struct{})
	s.shortlisted = make(map[string]struct{})

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("failed to read shortlist: %w", err)
	}

	var doc sets
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to read shortlist: %w", err)
	}
	for _, id := range doc.Seen {
		s.seen[id] = struct{}{}
	}
	for _, id := range doc.Shortlisted {
		s.shortlisted[id] = struct{}{}
	}
	s.loaded = true
	return nil
}

// save writes the in-memory sets back to disk atomically. Callers must
// hold s.mu.
func (s *Store) save() error {
	doc := sets{
		Seen:        sortedKeys(s.seen),
		Shortlisted: sortedKeys(s.shortlisted),
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal shortlist: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to write shortlist: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write shortlist: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write shortlist: %w", err)
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Seen reports whether an idea id has been surfaced before. Load
// errors read as "not seen"; the next mutation surfaces them.
func (s *Store) Seen(ideaID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return false
	}
	_, ok := s.seen[ideaID]
	return ok
}

// MarkSeen records idea ids as surfaced and persists the change.
// Already-seen ids are ignored; if nothing is new, the file is left
// untouched.
func (s *Store) MarkSeen(ideaIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}

	changed := false
	for _, id := range ideaIDs {
		if _, ok := s.seen[id]; !ok {
			s.seen[id] = struct{}{}
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save()
}

// Shortlisted reports whether an idea id is on the shortlist.
func (s *Store) Shortlisted(ideaID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return false
	}
	_, ok := s.shortlisted[ideaID]
	return ok
}

// Shortlist returns the shortlisted ids, sorted.
func (s *Store) Shortlist() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	return sortedKeys(s.shortlisted), nil
}

// AddShortlist puts an idea id on the shortlist and persists the
// change.
func (s *Store) AddShortlist(ideaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	if _, ok := s.shortlisted[ideaID]; ok {
		return nil
	}
	s.shortlisted[ideaID] = struct{}{}
	return s.save()
}

// RemoveShortlist takes an idea id off the shortlist and persists the
// change.
func (s *Store) RemoveShortlist(ideaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	if _, ok := s.shortlisted[ideaID]; !ok {
		return nil
	}
	delete(s.shortlisted, ideaID)
	return s.save()
}
