package chat

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aigent47/grok-code/internal"
)

// ContextFileName is the name of the global and project context files
const ContextFileName = "GROK.md"

// SafetyPreamble opens the system message of every request
const SafetyPreamble = `You are GROK-CODE, an AI development assistant running in the user's terminal.
Follow these rules:
- Never suggest or run destructive commands (rm -rf, disk formatting, force pushes, dropping databases) without an explicit warning.
- Always ask for the user's consent before creating, modifying or deleting files.
- Clearly warn about any dangerous, irreversible or security-sensitive operation.`

// CorrectionMessage is injected on every retry attempt
const CorrectionMessage = "The previous attempt resulted in an error. Please provide a corrected response."

// ContextLoader reads the optional global and project context files
type ContextLoader struct {
	GlobalDir  string        // directory holding the global GROK.md (the home dir)
	ProjectDir func() string // working directory
}

// Load returns the concatenated context text, global first. Missing or
// unreadable files are skipped.
func (l ContextLoader) Load() string {
	var b strings.Builder
	if l.GlobalDir != "" {
		if text, ok := readContext(filepath.Join(l.GlobalDir, ContextFileName)); ok {
			b.WriteString("Global Context:\n")
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	}
	if l.ProjectDir != nil {
		if text, ok := readContext(filepath.Join(l.ProjectDir(), ContextFileName)); ok {
			b.WriteString("Project Context:\n")
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func readContext(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			internal.LogDebug("skipping context file %s: %v", path, err)
		}
		return "", false
	}
	return string(data), true
}

// systemPrompt joins the safety preamble with the discovered context
func systemPrompt(context string) string {
	context = strings.TrimSpace(context)
	if context == "" {
		return SafetyPreamble
	}
	return SafetyPreamble + "\n\n" + context
}
