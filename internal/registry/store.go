package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aigent47/grok-code/internal"
)

// Document is the global registry file
type Document struct {
	Projects map[string]ProjectInfo `yaml:"projects"`
	Agents   map[string]AgentInfo   `yaml:"agents"`
}

// Store reads and writes the global registry YAML file. Upserts are
// serialized so the watcher and a foreground sync never drop each other's
// entries.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the registry file location
func (s *Store) Path() string {
	return s.path
}

// Load reads the registry; a missing file is an empty registry
func (s *Store) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*Document, error) {
	doc := &Document{
		Projects: map[string]ProjectInfo{},
		Agents:   map[string]AgentInfo{},
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, &internal.StorageError{Path: s.path, Op: "read", Err: err}
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, &internal.ParseError{Source: "registry", Key: s.path, Err: err}
	}
	if doc.Projects == nil {
		doc.Projects = map[string]ProjectInfo{}
	}
	if doc.Agents == nil {
		doc.Agents = map[string]AgentInfo{}
	}
	return doc, nil
}

func (s *Store) save(doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return &internal.StorageError{Path: s.path, Op: "mkdir", Err: err}
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	// write-then-rename so readers never see a half-written registry
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &internal.StorageError{Path: tmp, Op: "write", Err: err}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return &internal.StorageError{Path: s.path, Op: "rename", Err: err}
	}
	return nil
}

// UpsertProject records p under its project id
func (s *Store) UpsertProject(p ProjectInfo) error {
	if p.ProjectID == "" {
		return &internal.ParseError{Source: "registry", Key: p.Source, Err: errors.New("missing Project ID")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Projects[p.ProjectID] = p
	return s.save(doc)
}

// UpsertAgents records every agent under its id
func (s *Store) UpsertAgents(agents []AgentInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	for _, a := range agents {
		if a.ID == "" {
			continue
		}
		doc.Agents[a.ID] = a
	}
	return s.save(doc)
}

// ProjectIDs returns the registered project ids in order
func (d *Document) ProjectIDs() []string {
	ids := make([]string, 0, len(d.Projects))
	for id := range d.Projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
