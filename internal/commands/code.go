package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aigent47/grok-code/internal"
	"github.com/aigent47/grok-code/internal/session"
)

// editPreview is how much of the before/after text /edit shows
const editPreview = 200

var fencedBlock = regexp.MustCompile("(?s)```\\w*\\n(.*?)\\n```")

// interpreters maps script extensions to the program that runs them
var interpreters = map[string]string{
	".py": "python3",
	".js": "node",
	".sh": "bash",
	".rb": "ruby",
}

// ExtractCode returns the body of the first fenced code block in reply, or
// reply itself when there is none
func ExtractCode(reply string) string {
	if m := fencedBlock.FindStringSubmatch(reply); m != nil {
		return m[1]
	}
	return reply
}

// reportFileError turns a gate failure into a user-facing line
func (a *App) reportFileError(path string, err error) {
	switch {
	case errors.Is(err, internal.ErrDeclined):
		a.Console.Muted("Operation cancelled.")
	case errors.Is(err, internal.ErrNotFound):
		a.Console.Error("File not found: %s", a.Files.Resolve(path))
	default:
		a.Console.Error("Error accessing file: %v", err)
	}
}

func (a *App) explain(ctx context.Context, arg string) error {
	if arg == "" {
		a.Console.Error("Usage: /explain <code|file>")
		return nil
	}

	code := arg
	if a.Files.Exists(arg) {
		content, err := a.Files.Read(arg)
		if err != nil {
			a.reportFileError(arg, err)
			return err
		}
		code = content
	}

	_, err := a.Engine.Send(ctx, a.Session, "Explain this code: "+code, session.RoleUser)
	return err
}

func (a *App) edit(ctx context.Context, path string) error {
	if path == "" {
		a.Console.Error("Usage: /edit <file>")
		return nil
	}

	code, err := a.Files.Read(path)
	if err != nil {
		a.reportFileError(path, err)
		return err
	}

	instructions, err := a.Console.Ask("Edit instructions:", "")
	if err != nil {
		a.Console.Muted("Operation cancelled.")
		return err
	}

	prompt := fmt.Sprintf("Edit this code according to these instructions: %s\n"+
		"Return ONLY the modified code without any explanations.\n\nOriginal code:\n%s", instructions, code)
	reply, err := a.Engine.Send(ctx, a.Session, prompt, session.RoleUser)
	if err != nil {
		return err
	}

	edited := ExtractCode(reply)

	a.Console.Header("--- Original ---")
	a.Console.Println(session.Truncate(code, editPreview))
	a.Console.Header("--- Modified ---")
	a.Console.Println(session.Truncate(edited, editPreview))

	if !a.Console.Confirm("Apply these changes?", true) {
		a.Console.Muted("Changes discarded.")
		return nil
	}
	if _, err := a.Files.Write(path, edited); err != nil {
		a.reportFileError(path, err)
		return err
	}
	return nil
}

// command builds the process for /run. An existing file is run through the
// interpreter for its extension, or directly; anything else is a shell
// command line.
func (a *App) command(ctx context.Context, arg string) *exec.Cmd {
	if a.Files.Exists(arg) {
		path := a.Files.Resolve(arg)
		if interp, ok := interpreters[strings.ToLower(filepath.Ext(path))]; ok {
			return exec.CommandContext(ctx, interp, path)
		}
		return exec.CommandContext(ctx, path)
	}
	return exec.CommandContext(ctx, "sh", "-c", arg)
}

func (a *App) run(ctx context.Context, arg string) error {
	if arg == "" {
		a.Console.Error("Usage: /run <file/cmd>")
		return nil
	}

	cmd := a.command(ctx, arg)
	cmd.Dir = a.Config.Get().WorkingDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	internal.LogDebug("running %v in %s", cmd.Args, cmd.Dir)
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			a.Console.Error("Run Error: %v\n%s", err, msg)
		} else {
			a.Console.Error("Run Error: %v", err)
		}
		return err
	}

	if stdout.Len() == 0 {
		a.Console.Success("Command executed successfully.")
		return nil
	}
	a.Console.Success("Run Output:")
	a.Console.Printf("%s", stdout.String())
	if !strings.HasSuffix(stdout.String(), "\n") {
		a.Console.Println()
	}
	return nil
}

func (a *App) initProject(ctx context.Context, kind string) error {
	if kind == "" {
		answer, err := a.Console.Ask("Project type (e.g., python):", "")
		if err != nil || answer == "" {
			a.Console.Muted("Operation cancelled.")
			return err
		}
		kind = answer
	}
	_, err := a.Engine.Send(ctx, a.Session, fmt.Sprintf("Initialize a %s project setup.", kind), session.RoleUser)
	return err
}
