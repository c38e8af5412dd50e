package registry

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/aigent47/grok-code/internal"
)

const (
	// EnhancementsFile holds a project's id, version and priority list
	EnhancementsFile = "PROJECT_ENHANCEMENTS.md"
	// AgentsFile holds a project's agent status sections
	AgentsFile = "PROJECT_AGENTS.md"
	// ConfigFile optionally tunes the agent from the working directory
	ConfigFile = "SYNC_CONFIG.yaml"
)

// SyncConfig is read from SYNC_CONFIG.yaml
type SyncConfig struct {
	Enabled     bool `yaml:"enabled"`
	Performance struct {
		MaxRetries   int `yaml:"max_retries"`
		RetryDelay   int `yaml:"retry_delay"` // seconds
		DebounceMS   int `yaml:"debounce_ms"`
		MaxScanDepth int `yaml:"max_scan_depth"`
	} `yaml:"performance"`
}

// DefaultSyncConfig is used when SYNC_CONFIG.yaml is absent
func DefaultSyncConfig() SyncConfig {
	var c SyncConfig
	c.Enabled = true
	c.Performance.MaxRetries = 3
	c.Performance.RetryDelay = 5
	c.Performance.DebounceMS = 500
	c.Performance.MaxScanDepth = 4
	return c
}

// LoadSyncConfig reads dir/SYNC_CONFIG.yaml over the defaults
func LoadSyncConfig(dir string) (SyncConfig, error) {
	cfg := DefaultSyncConfig()
	path := filepath.Join(dir, ConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, &internal.StorageError{Path: path, Op: "read", Err: err}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultSyncConfig(), &internal.ParseError{Source: ConfigFile, Key: path, Err: err}
	}
	return cfg, nil
}

// Result summarizes a full sync
type Result struct {
	Projects int
	Agents   int
	Failed   []string
}

// Agent keeps the global registry in step with a working directory
type Agent struct {
	root  string
	store *Store
	cfg   SyncConfig

	mu       sync.Mutex
	debounce map[string]time.Time
}

// NewAgent creates an agent for root writing into store
func NewAgent(root string, store *Store, cfg SyncConfig) *Agent {
	return &Agent{
		root:     root,
		store:    store,
		cfg:      cfg,
		debounce: make(map[string]time.Time),
	}
}

// SyncFile mirrors one registry file into the global store
func (a *Agent) SyncFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &internal.StorageError{Path: path, Op: "read", Err: err}
	}

	switch filepath.Base(path) {
	case EnhancementsFile:
		info := ParseProject(string(data))
		info.Source = path
		info.LastUpdate = time.Now().UTC()
		if err := a.store.UpsertProject(info); err != nil {
			return err
		}
		internal.LogInfo("synced project %s to %s", info.ProjectID, a.store.Path())
	case AgentsFile:
		agents := ParseAgents(string(data))
		project := filepath.Base(filepath.Dir(path))
		for i := range agents {
			agents[i].Project = project
		}
		if err := a.store.UpsertAgents(agents); err != nil {
			return err
		}
		internal.LogInfo("synced %d agents to %s", len(agents), a.store.Path())
	}
	return nil
}

// syncWithRetry retries a failing file per the configured budget
func (a *Agent) syncWithRetry(ctx context.Context, path string) error {
	var err error
	for attempt := 0; attempt <= a.cfg.Performance.MaxRetries; attempt++ {
		if err = a.SyncFile(path); err == nil {
			return nil
		}
		var parseErr *internal.ParseError
		if errors.As(err, &parseErr) {
			// content errors do not improve with time
			return err
		}
		if attempt == a.cfg.Performance.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a.cfg.Performance.RetryDelay) * time.Second):
		}
	}
	return err
}

// Find walks root for registry files, skipping hidden and vendor trees
func (a *Agent) Find() ([]string, error) {
	var found []string
	rootDepth := strings.Count(filepath.Clean(a.root), string(filepath.Separator))
	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != a.root && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor") {
				return filepath.SkipDir
			}
			if strings.Count(filepath.Clean(path), string(filepath.Separator))-rootDepth >= a.cfg.Performance.MaxScanDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if name := d.Name(); name == EnhancementsFile || name == AgentsFile {
			found = append(found, path)
		}
		return nil
	})
	return found, err
}

// FullSync mirrors every registry file under root
func (a *Agent) FullSync(ctx context.Context) (Result, error) {
	var res Result
	files, err := a.Find()
	if err != nil {
		return res, err
	}
	for _, f := range files {
		if err := a.syncWithRetry(ctx, f); err != nil {
			internal.LogWarn("registry sync failed for %s: %v", f, err)
			res.Failed = append(res.Failed, f)
			continue
		}
		if filepath.Base(f) == EnhancementsFile {
			res.Projects++
		} else {
			res.Agents++
		}
	}
	return res, nil
}

// Watch re-syncs registry files as they change until ctx is done
func (a *Agent) Watch(ctx context.Context, notify func(string)) error {
	if !a.cfg.Enabled {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dirs := map[string]bool{a.root: true}
	if files, err := a.Find(); err == nil {
		for _, f := range files {
			dirs[filepath.Dir(f)] = true
		}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			internal.LogDebug("registry watch failed for %s: %v", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			a.handleEvent(ctx, event, notify)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			internal.LogDebug("registry watcher error: %v", err)
		}
	}
}

func (a *Agent) handleEvent(ctx context.Context, event fsnotify.Event, notify func(string)) {
	name := filepath.Base(event.Name)
	if name != EnhancementsFile && name != AgentsFile {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	a.mu.Lock()
	last, seen := a.debounce[event.Name]
	now := time.Now()
	if seen && now.Sub(last) < time.Duration(a.cfg.Performance.DebounceMS)*time.Millisecond {
		a.mu.Unlock()
		return
	}
	a.debounce[event.Name] = now
	a.mu.Unlock()

	if err := a.syncWithRetry(ctx, event.Name); err != nil {
		internal.LogDebug("registry sync failed for %s: %v", event.Name, err)
		return
	}
	notify("Synced " + name + " to the global registry")
}
