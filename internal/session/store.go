package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aigent47/grok-code/internal"
)

// Store persists sessions under a directory, one <id>.json file each
type Store struct {
	dir          string
	defaultModel func() string
	index        *Index
}

// NewStore creates a store. defaultModel is consulted on every Create so
// that configuration changes apply to new sessions.
func NewStore(dir string, defaultModel func() string) *Store {
	return &Store{
		dir:          dir,
		defaultModel: defaultModel,
		index:        NewIndex(filepath.Join(dir, "index.yaml")),
	}
}

// Dir returns the sessions directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the record path of a session id
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Create returns a fresh, unpersisted session
func (s *Store) Create() *Session {
	return &Session{
		ID:      uuid.NewString(),
		History: []Message{},
		Model:   s.defaultModel(),
	}
}

// Load reads the session with the given id. It fails with
// internal.ErrNotFound when no record exists.
func (s *Store) Load(id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return nil, fmt.Errorf("session %q: %w", id, internal.ErrNotFound)
	}

	path := s.Path(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("session %s: %w", id, internal.ErrNotFound)
		}
		return nil, &internal.StorageError{Path: path, Op: "read", Err: err}
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &internal.StorageError{Path: path, Op: "parse", Err: err}
	}
	if sess.History == nil {
		sess.History = []Message{}
	}
	if sess.ID == "" {
		sess.ID = id
	}
	return &sess, nil
}

// Persist overwrites the session's durable record and refreshes the index
func (s *Store) Persist(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &internal.StorageError{Path: s.dir, Op: "mkdir", Err: err}
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	path := s.Path(sess.ID)
	// write-then-rename so an interrupt never leaves a truncated record
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &internal.StorageError{Path: tmp, Op: "write", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &internal.StorageError{Path: path, Op: "rename", Err: err}
	}

	if err := s.index.Upsert(sess); err != nil {
		internal.LogWarn("failed to update session index: %v", err)
	}
	return nil
}

// Append adds exactly the {user, assistant} pair and persists. If persisting
// fails the pair is removed again so memory never holds an unsaved half.
func (s *Store) Append(sess *Session, user, assistant Message) error {
	if user.Role != RoleUser || assistant.Role != RoleAssistant {
		return fmt.Errorf("append expects a user/assistant pair, got %s/%s", user.Role, assistant.Role)
	}

	n := len(sess.History)
	sess.History = append(sess.History, user, assistant)
	if err := s.Persist(sess); err != nil {
		sess.History = sess.History[:n]
		return err
	}
	return nil
}

// List returns the indexed sessions, most recently updated first
func (s *Store) List() ([]IndexEntry, error) {
	return s.index.Entries()
}
