// Package config loads, merges and persists the user configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aigent47/grok-code/internal"
)

const (
	// DefaultModel is used when neither the record nor the user picked one
	DefaultModel = "grok-4"
	// CredentialEnv is the environment variable consulted for the API key
	CredentialEnv = "XAI_API_KEY"
	// AutoUpdateDisabledMarker disables auto-update by its presence
	AutoUpdateDisabledMarker = ".auto_update_disabled"
)

// Models lists the selectable models
var Models = []string{"grok-4", "grok-3"}

// Config is the process-wide configuration
type Config struct {
	APIKey            string `json:"apiKey"`
	DefaultModel      string `json:"defaultModel"`
	WorkingDir        string `json:"workingDir"`
	AutoUpdateEnabled bool   `json:"-"`
}

// Patch carries the fields to change; nil fields are left untouched
type Patch struct {
	APIKey            *string
	DefaultModel      *string
	WorkingDir        *string
	AutoUpdateEnabled *bool
}

// Store owns the single live Config of the process
type Store struct {
	paths  internal.Paths
	getenv func(string) string
	getwd  func() (string, error)
	cfg    Config
}

// NewStore creates a store rooted at paths. Call Load before Get.
func NewStore(paths internal.Paths) *Store {
	return &Store{
		paths:  paths,
		getenv: os.Getenv,
		getwd:  os.Getwd,
	}
}

// Get returns the current configuration
func (s *Store) Get() Config {
	return s.cfg
}

// Paths returns the on-disk layout the store was created with
func (s *Store) Paths() internal.Paths {
	return s.paths
}

func (s *Store) defaults() Config {
	cwd, err := s.getwd()
	if err != nil {
		cwd = "."
	}
	return Config{
		APIKey:       s.getenv(CredentialEnv),
		DefaultModel: DefaultModel,
		WorkingDir:   cwd,
	}
}

// Load merges defaults, the environment credential and the on-disk record.
// When no record exists the merged result is written back. A corrupt record
// is ignored and left in place. Load never fails.
func (s *Store) Load() Config {
	cfg := s.defaults()

	data, err := os.ReadFile(s.paths.ConfigFile)
	switch {
	case err == nil:
		var onDisk Config
		if err := json.Unmarshal(data, &onDisk); err != nil {
			internal.LogWarn("ignoring corrupt config %s: %v", s.paths.ConfigFile, err)
		} else {
			cfg = merge(cfg, onDisk)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := s.write(cfg); err != nil {
			internal.LogWarn("failed to write default config: %v", err)
		}
	default:
		internal.LogWarn("failed to read config %s: %v", s.paths.ConfigFile, err)
	}

	cfg.AutoUpdateEnabled = !s.paths.HasMarker(AutoUpdateDisabledMarker)
	s.cfg = cfg
	return cfg
}

// merge applies the non-empty fields of over onto base. An empty apiKey in
// the record keeps the environment credential.
func merge(base, over Config) Config {
	if over.APIKey != "" {
		base.APIKey = over.APIKey
	}
	if over.DefaultModel != "" {
		base.DefaultModel = over.DefaultModel
	}
	if over.WorkingDir != "" {
		base.WorkingDir = over.WorkingDir
	}
	return base
}

// Update shallow-merges p into the configuration and persists it
// synchronously.
func (s *Store) Update(p Patch) (Config, error) {
	next := s.cfg
	if p.APIKey != nil {
		next.APIKey = *p.APIKey
	}
	if p.DefaultModel != nil {
		next.DefaultModel = *p.DefaultModel
	}
	if p.WorkingDir != nil {
		next.WorkingDir = *p.WorkingDir
	}

	if err := s.write(next); err != nil {
		return s.cfg, err
	}

	if p.AutoUpdateEnabled != nil {
		if err := s.setAutoUpdate(*p.AutoUpdateEnabled); err != nil {
			s.cfg = next
			return next, err
		}
		next.AutoUpdateEnabled = *p.AutoUpdateEnabled
	}

	s.cfg = next
	return next, nil
}

// ToggleAutoUpdate flips the auto-update preference and returns the new value
func (s *Store) ToggleAutoUpdate() (bool, error) {
	enabled := !s.cfg.AutoUpdateEnabled
	if err := s.setAutoUpdate(enabled); err != nil {
		return s.cfg.AutoUpdateEnabled, err
	}
	s.cfg.AutoUpdateEnabled = enabled
	return enabled, nil
}

func (s *Store) setAutoUpdate(enabled bool) error {
	marker := s.paths.Marker(AutoUpdateDisabledMarker)
	if enabled {
		if err := os.Remove(marker); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &internal.StorageError{Path: marker, Op: "remove", Err: err}
		}
		return nil
	}
	if err := os.MkdirAll(s.paths.GrokDir, 0755); err != nil {
		return &internal.StorageError{Path: s.paths.GrokDir, Op: "mkdir", Err: err}
	}
	if err := os.WriteFile(marker, nil, 0644); err != nil {
		return &internal.StorageError{Path: marker, Op: "write", Err: err}
	}
	return nil
}

func (s *Store) write(cfg Config) error {
	if err := os.MkdirAll(s.paths.GrokDir, 0755); err != nil {
		return &internal.StorageError{Path: s.paths.GrokDir, Op: "mkdir", Err: err}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(s.paths.ConfigFile, data, 0600); err != nil {
		return &internal.StorageError{Path: s.paths.ConfigFile, Op: "write", Err: err}
	}
	return nil
}
