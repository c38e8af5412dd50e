package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the on-disk layout used by grok
type Paths struct {
	Home        string // user home directory, where the global GROK.md lives
	GrokDir     string // ~/.grok
	ConfigFile  string // ~/.grok/config.json
	SessionsDir string // ~/.grok/sessions
	LogsDir     string // ~/.grok/logs
}

// DetectPaths resolves the layout under the user's home directory. A
// non-empty override replaces ~/.grok (the home directory stays the parent
// of the override so the global context file is looked up next to it).
func DetectPaths(override string) (Paths, error) {
	if override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return Paths{}, fmt.Errorf("failed to resolve %s: %w", override, err)
		}
		return NewPaths(filepath.Dir(abs), abs), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewPaths(home, filepath.Join(home, ".grok")), nil
}

// NewPaths builds the layout rooted at grokDir.
func NewPaths(home, grokDir string) Paths {
	return Paths{
		Home:        home,
		GrokDir:     grokDir,
		ConfigFile:  filepath.Join(grokDir, "config.json"),
		SessionsDir: filepath.Join(grokDir, "sessions"),
		LogsDir:     filepath.Join(grokDir, "logs"),
	}
}

// Ensure creates the grok and sessions directories
func (p Paths) Ensure() error {
	for _, dir := range []string{p.GrokDir, p.SessionsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &StorageError{Path: dir, Op: "mkdir", Err: err}
		}
	}
	return nil
}

// Marker returns the path of a marker file inside the grok directory
func (p Paths) Marker(name string) string {
	return filepath.Join(p.GrokDir, name)
}

// HasMarker reports whether the named marker file exists
func (p Paths) HasMarker(name string) bool {
	_, err := os.Stat(p.Marker(name))
	return err == nil
}
