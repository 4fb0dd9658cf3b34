// Package mapping records which NG entity each migrated legacy entity became.
package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/rflorenc/ng-migrator/internal/models"
)

// Store looks up and records CG to NG mappings.
type Store interface {
	Lookup(accountID string, id models.EntityID) (models.NGEntityDetail, bool)
	Record(accountID string, cg models.CGBasicInfo, ng models.NGEntityDetail) error
}

// Entry is one recorded mapping.
type Entry struct {
	CG models.CGBasicInfo    `yaml:"cg" json:"cg"`
	NG models.NGEntityDetail `yaml:"ng" json:"ng"`
}

type key struct {
	accountID string
	id        models.EntityID
}

// MemoryStore is an in-memory thread-safe Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[key]Entry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[key]Entry)}
}

// Lookup returns the NG entity recorded for id.
func (s *MemoryStore) Lookup(accountID string, id models.EntityID) (models.NGEntityDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key{accountID, id}]
	return e.NG, ok
}

// Record stores or replaces the mapping for cg.
func (s *MemoryStore) Record(accountID string, cg models.CGBasicInfo, ng models.NGEntityDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(accountID, cg, ng)
	return nil
}

func (s *MemoryStore) put(accountID string, cg models.CGBasicInfo, ng models.NGEntityDetail) {
	cg.AccountID = accountID
	s.entries[key{accountID, models.EntityID{Type: cg.Type, ID: cg.ID}}] = Entry{CG: cg, NG: ng}
}

// Entries returns every mapping ordered by account, type and id.
func (s *MemoryStore) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted()
}

func (s *MemoryStore) sorted() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].CG, out[j].CG
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ID < b.ID
	})
	return out
}

// FileStore is a MemoryStore persisted to a YAML file on every Record.
type FileStore struct {
	*MemoryStore
	path string
}

type fileFormat struct {
	Mappings []Entry `yaml:"mappings"`
}

// OpenFileStore loads path if it exists and returns a store that writes back
// to it.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{MemoryStore: NewMemoryStore(), path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, e := range f.Mappings {
		fs.put(e.CG.AccountID, e.CG, e.NG)
	}
	return fs, nil
}

// Record stores the mapping and rewrites the file.
func (s *FileStore) Record(accountID string, cg models.CGBasicInfo, ng models.NGEntityDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(accountID, cg, ng)

	data, err := yaml.Marshal(fileFormat{Mappings: s.sorted()})
	if err != nil {
		return fmt.Errorf("encoding mappings: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".mappings-*.yaml")
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}
