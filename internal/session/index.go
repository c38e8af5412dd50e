package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const indexVersion = "1.0"

// IndexEntry summarizes one persisted session
type IndexEntry struct {
	ID           string    `yaml:"id"`
	Model        string    `yaml:"model"`
	MessageCount int       `yaml:"message_count"`
	Preview      string    `yaml:"preview,omitempty"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// IndexFile is the YAML document listing all sessions
type IndexFile struct {
	Version  string       `yaml:"version"`
	Sessions []IndexEntry `yaml:"sessions"`
}

// Index maintains the session listing next to the session records
type Index struct {
	path string
	now  func() time.Time
}

// NewIndex creates an index stored at path
func NewIndex(path string) *Index {
	return &Index{path: path, now: time.Now}
}

// Load reads the index; a missing file is an empty index
func (ix *Index) Load() (*IndexFile, error) {
	data, err := os.ReadFile(ix.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &IndexFile{Version: indexVersion}, nil
		}
		return nil, err
	}

	var f IndexFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	return &f, nil
}

func (ix *Index) save(f *IndexFile) error {
	if err := os.MkdirAll(filepath.Dir(ix.path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return os.WriteFile(ix.path, data, 0644)
}

// Upsert records the current state of sess
func (ix *Index) Upsert(sess *Session) error {
	f, err := ix.Load()
	if err != nil {
		// an unreadable index is rebuilt from scratch
		f = &IndexFile{Version: indexVersion}
	}

	entry := IndexEntry{
		ID:           sess.ID,
		Model:        sess.Model,
		MessageCount: len(sess.History),
		Preview:      preview(sess),
		UpdatedAt:    ix.now().UTC(),
	}

	found := false
	for i := range f.Sessions {
		if f.Sessions[i].ID == sess.ID {
			f.Sessions[i] = entry
			found = true
			break
		}
	}
	if !found {
		f.Sessions = append(f.Sessions, entry)
	}
	f.Version = indexVersion

	return ix.save(f)
}

// Entries returns all entries, most recently updated first
func (ix *Index) Entries() ([]IndexEntry, error) {
	f, err := ix.Load()
	if err != nil {
		return nil, err
	}
	entries := append([]IndexEntry(nil), f.Sessions...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries, nil
}

// preview is the opening of the first user message
func preview(sess *Session) string {
	for _, m := range sess.History {
		if m.Role == RoleUser {
			return Truncate(m.Content, 60)
		}
	}
	return ""
}

// Truncate shortens s to at most n runes, adding an ellipsis when cut
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
