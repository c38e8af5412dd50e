package commands

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aigent47/grok-code/internal"
	"github.com/aigent47/grok-code/internal/background"
	"github.com/aigent47/grok-code/internal/canvas"
	"github.com/aigent47/grok-code/internal/chat"
	"github.com/aigent47/grok-code/internal/config"
	"github.com/aigent47/grok-code/internal/console"
	"github.com/aigent47/grok-code/internal/fileio"
	"github.com/aigent47/grok-code/internal/registry"
	"github.com/aigent47/grok-code/internal/session"
	"github.com/aigent47/grok-code/internal/triage"
)

// ErrExit is returned by Dispatch when the user asked to quit
var ErrExit = errors.New("exit requested")

// FirstRunMarker is written once the setup wizard completed
const FirstRunMarker = ".first_run_complete"

// App is the explicit context every handler works against. It replaces
// process-wide state: one App owns the live config, the current session and
// the collaborators.
type App struct {
	Console  *console.Console
	Config   *config.Store
	Sessions *session.Store
	Session  *session.Session
	Files    *fileio.Gate
	Engine   *chat.Engine

	// Optional collaborators; nil disables the commands that need them.
	Runner   *background.Runner
	Registry *registry.Agent
	Ledger   *triage.Ledger
	Filer    triage.IssueFiler
	Canvas   *canvas.Server

	// OneShot is set when a single command runs outside the loop
	OneShot bool
}

// New wires the core components around a loaded config store and starts a
// fresh, unpersisted session.
func New(con *console.Console, cfg *config.Store, provider chat.Provider) *App {
	a := &App{
		Console: con,
		Config:  cfg,
		Canvas:  canvas.NewServer(canvas.DefaultAddr),
	}
	workingDir := func() string { return a.Config.Get().WorkingDir }

	a.Sessions = session.NewStore(cfg.Paths().SessionsDir, func() string { return a.Config.Get().DefaultModel })
	a.Files = fileio.NewGate(workingDir, con, con)
	loader := chat.ContextLoader{GlobalDir: cfg.Paths().Home, ProjectDir: workingDir}
	a.Engine = chat.NewEngine(provider, a.Sessions, func() string { return a.Config.Get().APIKey }, loader.Load, con)
	a.Session = a.Sessions.Create()
	return a
}

// Dispatch runs one parsed command to completion. Handlers report their own
// failures on the console; a returned error other than ErrExit only tells
// the caller the command did not succeed.
func (a *App) Dispatch(ctx context.Context, cmd Command) error {
	internal.LogDebug("dispatch %s %q", cmd.Kind, cmd.Args)

	switch cmd.Kind {
	case KindEmpty:
		return nil
	case KindPrompt:
		_, err := a.Engine.Send(ctx, a.Session, cmd.Args, session.RoleUser)
		return err
	case KindUnknown:
		a.Console.Error("Unknown command. Use /help.")
		return nil
	case KindHelp:
		a.help()
		return nil
	case KindNew:
		return a.newSession()
	case KindHistory:
		a.history()
		return nil
	case KindResume:
		return a.resume(cmd.Args)
	case KindModel:
		return a.model(cmd.Args)
	case KindConfig:
		return a.configure(cmd.Args)
	case KindExplain:
		return a.explain(ctx, cmd.Args)
	case KindEdit:
		return a.edit(ctx, cmd.Args)
	case KindRun:
		return a.run(ctx, cmd.Args)
	case KindInit:
		return a.initProject(ctx, cmd.Args)
	case KindDisclaimer:
		a.Console.Println(Disclaimer)
		return nil
	case KindSessions:
		return a.sessions()
	case KindExport:
		return a.export(cmd.Args)
	case KindCanvas:
		return a.canvas(ctx, cmd.Args)
	case KindEmail:
		return a.email(ctx, cmd.Args)
	case KindMorningInit:
		return a.morningInit(ctx)
	case KindPackItUp:
		return a.packItUp(ctx)
	case KindExit:
		return ErrExit
	default:
		a.Console.Error("Unknown command. Use /help.")
		return nil
	}
}

// RunOnce handles a single command line. Empty input shows the splash and
// help.
func (a *App) RunOnce(ctx context.Context, line string) error {
	a.OneShot = true
	cmd := Parse(line)
	if cmd.Kind == KindEmpty {
		a.Console.Splash(Banner)
		a.help()
		return nil
	}
	err := a.Dispatch(ctx, cmd)
	if errors.Is(err, ErrExit) {
		return nil
	}
	return err
}

// Loop reads and dispatches lines until /exit, end of input or ctx is done.
// Background notices are shown between inputs.
func (a *App) Loop(ctx context.Context) error {
	a.Console.Muted("Session %s. Type /help for commands, /exit to quit.", a.Session.ID)
	for {
		a.ShowNotices()
		if ctx.Err() != nil {
			return nil
		}

		line, err := a.Console.ReadLine("grok> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		cmd := Parse(line)
		if cmd.Kind == KindEmpty {
			continue
		}
		if err := a.Dispatch(ctx, cmd); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			internal.LogDebug("%s: %v", cmd.Kind, err)
		}
	}
}

// ShowNotices prints what background tasks reported since the last call
func (a *App) ShowNotices() {
	if a.Runner == nil {
		return
	}
	for _, n := range a.Runner.Drain() {
		a.Console.Info("%s", n)
	}
}

// Settle gives background tasks up to d to finish, then shows their notices
func (a *App) Settle(d time.Duration) {
	if a.Runner == nil {
		return
	}
	a.Runner.WaitFor(d)
	a.ShowNotices()
}

func (a *App) help() {
	a.Console.Header("GROK-CODE Commands:")
	rows := make([][]string, 0, len(builtins))
	for _, s := range builtins {
		rows = append(rows, []string{s.usage, s.desc})
	}
	a.Console.Table([]string{"Command", "Description"}, rows)
}
