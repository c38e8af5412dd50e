package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigent47/grok-code/internal/commands"
	"github.com/aigent47/grok-code/internal/console"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		homeDir = ""
		verbose = false
		rootCmd.SetIn(nil)
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := rootCmd.Execute()
	return stdout.String() + stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "version flag",
			args: []string{"--version"},
			want: version,
		},
		{
			name: "help flag",
			args: []string{"--help"},
			want: "grok [input...]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestRootCommand_OneShotSlashCommand(t *testing.T) {
	home := filepath.Join(t.TempDir(), ".grok")
	require.NoError(t, os.MkdirAll(home, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, commands.FirstRunMarker), []byte("done"), 0644))
	t.Setenv("XAI_API_KEY", "test-key")

	out, err := execute(t, "--home", home, "/help")
	require.NoError(t, err)
	assert.Contains(t, out, "/resume")
	assert.Contains(t, out, "/pack-it-up")
	assert.FileExists(t, filepath.Join(home, "config.json"))
	assert.FileExists(t, filepath.Join(home, "requests.db"))
}

func TestRootCommand_FlagsAfterInputAreInput(t *testing.T) {
	home := filepath.Join(t.TempDir(), ".grok")
	require.NoError(t, os.MkdirAll(home, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(home, commands.FirstRunMarker), []byte("done"), 0644))
	t.Setenv("XAI_API_KEY", "test-key")

	out, err := execute(t, "--home", home, "/history", "--verbose")
	require.NoError(t, err)
	assert.False(t, verbose)
	assert.Contains(t, out, "Session History:")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(func() error { return nil }))
	assert.Equal(t, 1, exitCode(func() error { return errors.New("bad flag") }))
	assert.Equal(t, 1, exitCode(func() error { panic("boom") }))
}

// crashEnv makes the test binary act as a grok process whose loop panics
const crashEnv = "GROK_TEST_LOOP_PANIC"

func TestLoop_PanicExitsOne(t *testing.T) {
	if os.Getenv(crashEnv) == "1" {
		// no session: the loop dereferences nil on its first line
		con := console.New(strings.NewReader("/history\n"), os.Stdout, os.Stderr)
		app := &commands.App{Console: con}
		os.Exit(exitCode(func() error { return loop(context.Background(), con, app) }))
	}

	child := exec.Command(os.Args[0], "-test.run=^TestLoop_PanicExitsOne$")
	child.Env = append(os.Environ(), crashEnv+"=1")
	out, err := child.CombinedOutput()

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr, string(out))
	assert.Equal(t, 1, exitErr.ExitCode(), string(out))
	assert.Contains(t, string(out), "Error: runtime error")
	assert.Contains(t, string(out), "unexpected failure")
}
