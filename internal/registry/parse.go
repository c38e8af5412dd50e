// Package registry mirrors the project markdown registries of a working
// directory (PROJECT_ENHANCEMENTS.md, PROJECT_AGENTS.md) into a global
// registry shared by every project.
package registry

import (
	"regexp"
	"strings"
	"time"
)

// ProjectInfo is parsed from PROJECT_ENHANCEMENTS.md
type ProjectInfo struct {
	ProjectID    string    `yaml:"project_id"`
	Version      string    `yaml:"version,omitempty"`
	Enhancements []string  `yaml:"enhancements,omitempty"`
	Source       string    `yaml:"source"`
	LastUpdate   time.Time `yaml:"last_update"`
}

// AgentInfo is one section of PROJECT_AGENTS.md
type AgentInfo struct {
	ID       string `yaml:"id"`
	Status   string `yaml:"status,omitempty"`
	Task     string `yaml:"task,omitempty"`
	Progress string `yaml:"progress,omitempty"`
	Project  string `yaml:"project,omitempty"`
}

var numberedItem = regexp.MustCompile(`^\d+\.`)

// ParseProject extracts the project id, version and the numbered items of
// every "Priority Enhancements" section
func ParseProject(content string) ProjectInfo {
	lines := strings.Split(content, "\n")
	info := ProjectInfo{
		ProjectID: extractValue(lines, "Project ID:"),
		Version:   extractValue(lines, "Current Version:"),
	}

	for _, section := range strings.Split(content, "###") {
		if !strings.Contains(section, "Priority Enhancements") {
			continue
		}
		for _, line := range strings.Split(section, "\n") {
			line = strings.TrimSpace(line)
			if numberedItem.MatchString(line) {
				info.Enhancements = append(info.Enhancements, line)
			}
		}
	}
	return info
}

// ParseAgents extracts every "### " section carrying an **ID** field
func ParseAgents(content string) []AgentInfo {
	var agents []AgentInfo
	for _, section := range strings.Split(content, "### ") {
		if !strings.Contains(section, "**ID**:") {
			continue
		}
		lines := strings.Split(section, "\n")
		agents = append(agents, AgentInfo{
			ID:       extractValue(lines, "**ID**:"),
			Status:   extractValue(lines, "**Status**:"),
			Task:     extractValue(lines, "**Current Task**:"),
			Progress: extractValue(lines, "**Progress**:"),
		})
	}
	return agents
}

// extractValue returns the trimmed text after marker on the first line
// containing it
func extractValue(lines []string, marker string) string {
	for _, l := range lines {
		if i := strings.Index(l, marker); i >= 0 {
			return strings.TrimSpace(l[i+len(marker):])
		}
	}
	return ""
}
