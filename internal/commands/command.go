// Package commands routes one line of user input to a prompt or a slash
// command and runs the interactive loop.
package commands

import (
	"strings"
	"unicode"
)

// Kind is the closed set of inputs the router understands
type Kind int

const (
	KindEmpty Kind = iota
	KindPrompt
	KindUnknown
	KindHelp
	KindNew
	KindHistory
	KindResume
	KindModel
	KindConfig
	KindExplain
	KindEdit
	KindRun
	KindInit
	KindDisclaimer
	KindSessions
	KindExport
	KindCanvas
	KindEmail
	KindMorningInit
	KindPackItUp
	KindExit
)

// builtin describes a slash command for parsing and /help
type builtin struct {
	kind  Kind
	name  string
	usage string
	desc  string
}

var builtins = []builtin{
	{KindHelp, "help", "/help", "Show this help"},
	{KindNew, "new", "/new", "Start new session"},
	{KindHistory, "history", "/history", "View session history"},
	{KindResume, "resume", "/resume <id>", "Resume session by ID"},
	{KindSessions, "sessions", "/sessions", "List saved sessions"},
	{KindModel, "model", "/model <name>", "Switch model (e.g., grok-4, grok-3)"},
	{KindConfig, "config", "/config [auto-update]", "Configure API key/working dir, or toggle auto-updates"},
	{KindExplain, "explain", "/explain <code|file>", "Explain code"},
	{KindEdit, "edit", "/edit <file>", "Edit file"},
	{KindRun, "run", "/run <file/cmd>", "Run code/file"},
	{KindInit, "init", "/init [type]", "Initialize project"},
	{KindExport, "export", "/export [md|json|yaml|jsonl] [file]", "Export this session"},
	{KindCanvas, "canvas", "/canvas <file>", "Live preview an HTML or JavaScript file"},
	{KindEmail, "email", "/email [file|review|template [bug]]", "Queue or review emailed requests"},
	{KindMorningInit, "morning-init", "/morning-init", "Workspace summary, registry sync and pending requests"},
	{KindPackItUp, "pack-it-up", "/pack-it-up", "Save the session, sync the registry and summarize"},
	{KindDisclaimer, "disclaimer", "/disclaimer", "View legal disclaimer"},
	{KindExit, "exit", "/exit", "Exit CLI"},
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, len(builtins))
	for _, s := range builtins {
		m[s.name] = s.kind
	}
	return m
}()

// String returns the command name of k
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindPrompt:
		return "prompt"
	case KindUnknown:
		return "unknown"
	}
	for _, s := range builtins {
		if s.kind == k {
			return s.name
		}
	}
	return "invalid"
}

// Command is one parsed line of input
type Command struct {
	Kind Kind
	Name string // slash token as typed, without the slash
	Args string // raw argument string; the whole line for prompts
}

// Parse classifies a line. Text not starting with "/" is a prompt and is
// kept verbatim.
func Parse(line string) Command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{Kind: KindEmpty}
	}
	if !strings.HasPrefix(trimmed, "/") {
		return Command{Kind: KindPrompt, Args: line}
	}

	name, args := trimmed[1:], ""
	if i := strings.IndexFunc(name, unicode.IsSpace); i >= 0 {
		name, args = name[:i], strings.TrimSpace(name[i:])
	}
	kind, ok := byName[name]
	if !ok {
		return Command{Kind: KindUnknown, Name: name, Args: args}
	}
	return Command{Kind: kind, Name: name, Args: args}
}
