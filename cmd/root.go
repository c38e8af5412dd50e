package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aigent47/grok-code/internal"
	"github.com/aigent47/grok-code/internal/background"
	"github.com/aigent47/grok-code/internal/chat"
	"github.com/aigent47/grok-code/internal/commands"
	"github.com/aigent47/grok-code/internal/config"
	"github.com/aigent47/grok-code/internal/console"
	"github.com/aigent47/grok-code/internal/registry"
	"github.com/aigent47/grok-code/internal/triage"
	"github.com/aigent47/grok-code/internal/update"
	"github.com/aigent47/grok-code/internal/workspace"
)

var (
	verbose bool
	homeDir string
	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"
)

// settleTimeout bounds how long a one-shot command waits for background
// notices before exiting
const settleTimeout = 3 * time.Second

// rootCmd represents the base command; grok has no subcommands
var rootCmd = &cobra.Command{
	Use:   "grok [input...]",
	Short: "AI-powered development assistant for the terminal",
	Long: `grok talks to X.AI's Grok models from your terminal.

Run it without arguments for an interactive session, or pass a prompt or a
slash command to run once.

Every file read or write asks for your confirmation first, and overwritten
files are kept as <file>.backup.

Quick Start:
  grok                                   # Interactive session
  grok "Write a hello world in Go"       # One prompt
  grok /edit main.go                     # Edit a file with Grok
  grok /help                             # All slash commands`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		con := console.New(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		return run(ctx, con, args)
	},
}

// Execute runs the root command and exits the process. A command error or
// a panic on any goroutine that reports back here exits 1.
func Execute() {
	os.Exit(exitCode(func() error {
		return rootCmd.ExecuteContext(context.Background())
	}))
}

// exitCode runs fn under the process-wide safety net: a panic is logged
// with its stack and reported as "Error:" instead of crashing.
func exitCode(fn func() error) (code int) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		stack := debug.Stack()
		if p, ok := r.(*loopPanic); ok {
			r, stack = p.value, p.stack
		}
		internal.LogError("unexpected failure: %v\n%s", r, stack)
		_ = internal.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", r)
		code = 1
	}()

	if err := fn(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.Flags().SetInterspersed(false)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (also written to <home>/logs/grok.log)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "Custom grok directory (default ~/.grok)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

func run(ctx context.Context, con *console.Console, args []string) error {
	paths, err := internal.DetectPaths(homeDir)
	if err != nil {
		return err
	}
	if err := paths.Ensure(); err != nil {
		return err
	}
	if verbose {
		closeLog, err := internal.EnableFileLog(paths.LogsDir)
		if err != nil {
			internal.LogWarn("file logging disabled: %v", err)
		} else {
			defer func() { _ = closeLog() }()
		}
	}
	defer func() { _ = internal.Sync() }()

	cfg := config.NewStore(paths)
	loaded := cfg.Load()
	internal.LogDebug("config loaded from %s (model %s, working dir %s)", paths.ConfigFile, loaded.DefaultModel, loaded.WorkingDir)

	app := commands.New(con, cfg, chat.NewXAIClient(chat.DefaultXAIConfig()))
	defer func() { _ = app.Canvas.Stop(context.Background()) }()

	if err := app.FirstRun(); err != nil {
		internal.LogDebug("setup wizard not completed: %v", err)
	}

	ledger, err := triage.OpenLedger(filepath.Join(paths.GrokDir, "requests.db"))
	if err != nil {
		internal.LogWarn("email triage disabled: %v", err)
	} else {
		app.Ledger = ledger
		defer ledger.Close()
	}
	app.Filer = triage.NewGitHubFiler(os.Getenv)

	workDir := cfg.Get().WorkingDir
	syncCfg, err := registry.LoadSyncConfig(workDir)
	if err != nil {
		internal.LogWarn("using default registry sync settings: %v", err)
	}
	app.Registry = registry.NewAgent(workDir, registry.NewStore(filepath.Join(paths.GrokDir, "registry.yaml")), syncCfg)

	runner := background.NewRunner(ctx)
	defer runner.Shutdown()
	app.Runner = runner
	runner.Go("update-check", update.NewChecker(paths, version, cfg.Get().AutoUpdateEnabled).Run)
	runner.Go("workspace", workspace.Task(func() string { return workDir }))

	if len(args) > 0 {
		if err := app.RunOnce(ctx, strings.Join(args, " ")); err != nil {
			internal.LogDebug("command failed: %v", err)
		}
		app.Settle(settleTimeout)
		return nil
	}

	runner.Go("registry-watch", app.Registry.Watch)
	return loop(ctx, con, app)
}

// loopPanic carries a panic from the loop goroutine to the caller of loop
type loopPanic struct {
	value any
	stack []byte
}

// loop runs the interactive loop until it returns or the user interrupts.
// A pending read cannot be cancelled, so an interrupt stops waiting for it.
// A panic inside the loop is re-raised on the calling goroutine, after the
// deferred cleanup of run, so the safety net in Execute sees it.
func loop(ctx context.Context, con *console.Console, app *commands.App) error {
	done := make(chan error, 1)
	panics := make(chan *loopPanic, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				panics <- &loopPanic{value: r, stack: debug.Stack()}
			}
		}()
		done <- app.Loop(ctx)
	}()

	select {
	case err := <-done:
		return err
	case p := <-panics:
		panic(p)
	case <-ctx.Done():
		con.Println()
		internal.LogInfo("interrupted, exiting")
		select {
		case <-done:
		case p := <-panics:
			panic(p)
		case <-time.After(time.Second):
		}
		return nil
	}
}
