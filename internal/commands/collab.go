package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/aigent47/grok-code/internal"
	"github.com/aigent47/grok-code/internal/canvas"
	"github.com/aigent47/grok-code/internal/export"
	"github.com/aigent47/grok-code/internal/session"
	"github.com/aigent47/grok-code/internal/triage"
	"github.com/aigent47/grok-code/internal/workspace"
)

func (a *App) export(args string) error {
	fields := strings.Fields(args)
	format := "md"
	if len(fields) > 0 {
		format = fields[0]
	}

	exporter, err := export.NewExporter(format)
	if err != nil {
		a.Console.Error("%v", err)
		return err
	}

	var buf bytes.Buffer
	if err := exporter.Export(a.Session, &buf); err != nil {
		a.Console.Error("Failed to export session: %v", err)
		return err
	}

	path := export.DefaultFileName(a.Session, exporter)
	if len(fields) > 1 {
		path = fields[1]
	}
	if _, err := a.Files.Write(path, buf.String()); err != nil {
		a.reportFileError(path, err)
		return err
	}
	return nil
}

func (a *App) canvas(ctx context.Context, arg string) error {
	if arg == "" {
		a.Console.Error("Usage: /canvas <file>")
		return nil
	}

	url, err := a.Canvas.Start(a.Files.Resolve(arg))
	if err != nil {
		switch {
		case errors.Is(err, canvas.ErrUnsupported):
			a.Console.Error("Cannot preview %s: %v", arg, err)
		case errors.Is(err, internal.ErrNotFound):
			a.Console.Error("File not found: %s", a.Files.Resolve(arg))
		default:
			a.Console.Error("Failed to start preview: %v", err)
		}
		return err
	}

	a.Console.Success("Canvas preview running at %s", url)
	if !a.OneShot {
		a.Console.Muted("The preview stays up until grok exits or another /canvas starts.")
		return nil
	}

	a.Console.Muted("Press Ctrl+C to stop")
	<-ctx.Done()
	if err := a.Canvas.Stop(context.Background()); err != nil {
		internal.LogDebug("stopping preview: %v", err)
	}
	a.Console.Warn("Canvas preview stopped")
	return nil
}

func (a *App) email(ctx context.Context, args string) error {
	if a.Ledger == nil {
		a.Console.Error("Email triage is unavailable.")
		return nil
	}

	sub, rest, _ := strings.Cut(args, " ")
	switch sub {
	case "", "review":
		return a.reviewEmail(ctx)
	case "template":
		a.Console.Println(triage.Template(strings.TrimSpace(rest)))
		return nil
	default:
		return a.queueEmail(args)
	}
}

func (a *App) queueEmail(path string) error {
	content, err := a.Files.Read(path)
	if err != nil {
		a.reportFileError(path, err)
		return err
	}

	req, err := a.Ledger.Add(content)
	if err != nil {
		a.Console.Error("Failed to store email request: %v", err)
		return err
	}
	a.Console.Success("Email request formatted:")
	a.Console.Printf("Request ID: %s\nTitle: %s\n", req.ID, req.Parsed.Title)
	a.Console.Muted(`Use "grok /email review" to review pending requests`)
	return nil
}

func (a *App) reviewEmail(ctx context.Context) error {
	pending, err := a.Ledger.Pending()
	if err != nil {
		a.Console.Error("Failed to read pending requests: %v", err)
		return err
	}
	if len(pending) == 0 {
		a.Console.Muted("No pending email requests.")
		return nil
	}

	a.Console.Header(pluralize(len(pending), "pending email request", "pending email requests") + ":")
	for _, req := range pending {
		a.showRequest(req)
		choice, err := a.Console.Choose("Approve, reject or skip?", []string{"approve", "reject", "skip"}, "skip")
		if err != nil {
			return nil
		}
		switch choice {
		case "approve":
			a.fileRequest(ctx, req)
		case "reject":
			if err := a.Ledger.MarkProcessed(req.ID, triage.StatusRejected, 0); err != nil {
				a.Console.Error("Failed to update request: %v", err)
				continue
			}
			a.Console.Warn("Request rejected.")
		}
	}
	return nil
}

func (a *App) showRequest(req triage.Request) {
	a.Console.Println(strings.Repeat("-", 60))
	a.Console.Printf("Request ID: %s\n", req.ID)
	a.Console.Printf("Received: %s\n", req.ReceivedAt.Local().Format("2006-01-02 15:04"))
	a.Console.Printf("Type: %s\n", req.Parsed.Type)
	a.Console.Printf("Priority: %s\n", req.Parsed.Priority)
	a.Console.Printf("Title: %s\n", req.Parsed.Title)
	a.Console.Println("Description:")
	a.Console.Muted("%s", session.Truncate(req.Parsed.Description, 200))
	a.Console.Printf("Labels: %s\n", strings.Join(req.Parsed.Labels, ", "))
	a.Console.Println(strings.Repeat("-", 60))
}

// fileRequest files an approved request. The request is marked processed
// whatever the outcome so it does not come back in the next review.
func (a *App) fileRequest(ctx context.Context, req triage.Request) {
	status, number := triage.StatusCreated, 0

	if a.Filer == nil {
		a.Console.Warn("GitHub token not configured. Issue creation skipped.")
		status = triage.StatusPendingGitHub
	} else {
		issue, err := a.Filer.File(ctx, req)
		switch {
		case errors.Is(err, triage.ErrNoToken):
			a.Console.Warn("GitHub token not configured. Issue creation skipped.")
			status = triage.StatusPendingGitHub
		case err != nil:
			a.Console.Error("Failed to create GitHub issue: %v", err)
			status = triage.StatusError
		default:
			number = issue.Number
			a.Console.Success("Created GitHub issue #%d", issue.Number)
			if issue.URL != "" {
				a.Console.Muted("View at: %s", issue.URL)
			}
		}
	}

	if err := a.Ledger.MarkProcessed(req.ID, status, number); err != nil {
		a.Console.Error("Failed to update request: %v", err)
	}
}

func (a *App) morningInit(ctx context.Context) error {
	a.Console.Header("Good morning! Here is where things stand.")

	dir := a.Config.Get().WorkingDir
	a.Console.Info("Working directory: %s", dir)
	for _, line := range workspace.Detect(ctx, dir).Lines() {
		a.Console.Info("%s", line)
	}
	a.Console.Info("Session %s (%s), %s", a.Session.ID, a.Session.Model,
		pluralize(a.Session.Len(), "message", "messages"))

	a.syncRegistry(ctx)

	if a.Ledger != nil {
		n, err := a.Ledger.Count()
		switch {
		case err != nil:
			a.Console.Warn("Could not count pending email requests: %v", err)
		case n > 0:
			a.Console.Info("%s. Run /email review.", pluralize(n, "pending email request", "pending email requests"))
		default:
			a.Console.Muted("No pending email requests.")
		}
	}
	return nil
}

func (a *App) packItUp(ctx context.Context) error {
	a.Console.Header("Packing up")

	if err := a.Sessions.Persist(a.Session); err != nil {
		a.Console.Error("Failed to save session: %v", err)
		return err
	}
	a.Console.Success("Session saved: %s", a.Session.ID)

	a.syncRegistry(ctx)

	prompts := 0
	for _, m := range a.Session.History {
		if m.Role == session.RoleUser {
			prompts++
		}
	}
	a.Console.Info("%s, %s with %s", a.Session.Model,
		pluralize(prompts, "prompt", "prompts"), pluralize(a.Session.Len(), "message", "messages"))
	a.Console.Muted("Resume later with: grok /resume %s", a.Session.ID)
	return nil
}

func (a *App) syncRegistry(ctx context.Context) {
	if a.Registry == nil {
		return
	}
	res, err := a.Registry.FullSync(ctx)
	if err != nil {
		a.Console.Warn("Registry sync failed: %v", err)
		return
	}
	if res.Projects == 0 && res.Agents == 0 && len(res.Failed) == 0 {
		a.Console.Muted("No project registry files found.")
		return
	}
	a.Console.Success("Registry synced: %s, %s", pluralize(res.Projects, "project", "projects"),
		pluralize(res.Agents, "agent file", "agent files"))
	for _, f := range res.Failed {
		a.Console.Warn("Could not sync %s", f)
	}
}
