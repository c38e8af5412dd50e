// Package workspace detects what kind of project the working directory
// holds.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// Info describes the detected project
type Info struct {
	Kind    string // "node", "go", "python" or ""
	Name    string
	Version string
	Branch  string
}

// Detect inspects dir. Missing or unreadable markers are skipped.
func Detect(ctx context.Context, dir string) Info {
	var info Info

	switch {
	case exists(filepath.Join(dir, "package.json")):
		info.Kind = "node"
		if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
			var pkg struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			}
			if json.Unmarshal(data, &pkg) == nil {
				info.Name, info.Version = pkg.Name, pkg.Version
			}
		}
	case exists(filepath.Join(dir, "go.mod")):
		info.Kind = "go"
		if data, err := os.ReadFile(filepath.Join(dir, "go.mod")); err == nil {
			if f, err := modfile.ParseLax("go.mod", data, nil); err == nil && f.Module != nil {
				info.Name = f.Module.Mod.Path
				if f.Go != nil {
					info.Version = "go " + f.Go.Version
				}
			}
		}
	case exists(filepath.Join(dir, "pyproject.toml")), exists(filepath.Join(dir, "requirements.txt")):
		info.Kind = "python"
	}

	if exists(filepath.Join(dir, ".git")) {
		cmd := exec.CommandContext(ctx, "git", "branch", "--show-current")
		cmd.Dir = dir
		if out, err := cmd.Output(); err == nil {
			info.Branch = strings.TrimSpace(string(out))
		}
	}

	return info
}

// Lines renders the info as short status lines
func (i Info) Lines() []string {
	var lines []string
	switch i.Kind {
	case "node":
		lines = append(lines, fmt.Sprintf("Node.js project: %s v%s", i.Name, i.Version))
	case "go":
		lines = append(lines, fmt.Sprintf("Go module: %s (%s)", i.Name, i.Version))
	case "python":
		lines = append(lines, "Python project detected")
	}
	if i.Branch != "" {
		lines = append(lines, "Git branch: "+i.Branch)
	}
	return lines
}

// Task adapts Detect to a background task reporting through notify
func Task(dir func() string) func(ctx context.Context, notify func(string)) error {
	return func(ctx context.Context, notify func(string)) error {
		for _, line := range Detect(ctx, dir()).Lines() {
			notify(line)
		}
		return nil
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
