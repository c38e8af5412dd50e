// Package update checks for a newer release at most once per interval and,
// when allowed, installs it.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/aigent47/grok-code/internal"
)

const (
	// CheckInterval is the minimum time between two registry lookups
	CheckInterval = 24 * time.Hour
	// LastCheckMarker stores the RFC3339 time of the last lookup
	LastCheckMarker = ".last_update_check"
	// ModulePath is what auto-update installs
	ModulePath = "github.com/aigent47/grok-code"
	// DefaultReleaseURL reports the latest published release
	DefaultReleaseURL = "https://api.github.com/repos/aigent47/grok-code/releases/latest"
)

// Checker compares the running version with the latest release
type Checker struct {
	Paths      internal.Paths
	Current    string
	ReleaseURL string
	AutoUpdate bool
	Client     *http.Client
	Now        func() time.Time
	Install    func(ctx context.Context) error
}

// NewChecker creates a checker with production defaults
func NewChecker(paths internal.Paths, current string, autoUpdate bool) *Checker {
	return &Checker{
		Paths:      paths,
		Current:    current,
		ReleaseURL: DefaultReleaseURL,
		AutoUpdate: autoUpdate,
		Client:     &http.Client{Timeout: 5 * time.Second},
		Now:        time.Now,
		Install:    goInstall,
	}
}

// Due reports whether the interval since the last check has elapsed
func (c *Checker) Due() bool {
	data, err := os.ReadFile(c.Paths.Marker(LastCheckMarker))
	if err != nil {
		return true
	}
	last, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return true
	}
	return c.Now().Sub(last) >= CheckInterval
}

// Latest fetches the latest released version
func (c *Checker) Latest(ctx context.Context) (*semver.Version, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ReleaseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup failed with status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, &internal.ParseError{Source: "release", Key: c.ReleaseURL, Err: err}
	}
	tag := release.TagName
	if tag == "" {
		tag = release.Version
	}
	return semver.NewVersion(tag)
}

// Run is the background task: look up the latest release when due, report
// it, and install it if auto-update is on.
func (c *Checker) Run(ctx context.Context, notify func(string)) error {
	if !c.Due() {
		return nil
	}

	current, err := semver.NewVersion(c.Current)
	if err != nil {
		// development builds are never compared
		return fmt.Errorf("current version %q: %w", c.Current, err)
	}

	latest, err := c.Latest(ctx)
	if err != nil {
		return err
	}

	if err := os.WriteFile(c.Paths.Marker(LastCheckMarker), []byte(c.Now().UTC().Format(time.RFC3339)), 0644); err != nil {
		internal.LogDebug("failed to record update check: %v", err)
	}

	if !latest.GreaterThan(current) {
		return nil
	}

	notify(fmt.Sprintf("Update available: %s -> %s", current, latest))
	if !c.AutoUpdate {
		notify(fmt.Sprintf("Run: go install %s@latest to update", ModulePath))
		return nil
	}

	if err := c.Install(ctx); err != nil {
		notify(fmt.Sprintf("Auto-update failed. Manual update required: go install %s@latest", ModulePath))
		return err
	}
	notify("Update successful! Please restart grok. To disable auto-updates, run: grok /config auto-update")
	return nil
}

func goInstall(ctx context.Context) error {
	if _, err := exec.LookPath("go"); err != nil {
		return fmt.Errorf("go is not installed or not in PATH")
	}
	out, err := exec.CommandContext(ctx, "go", "install", ModulePath+"@latest").CombinedOutput()
	if err != nil {
		return fmt.Errorf("go install failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
