package fileio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigent47/grok-code/internal"
	"github.com/aigent47/grok-code/testutil"
)

type scriptedPrompter struct {
	answers   []bool
	questions []string
}

func (p *scriptedPrompter) Confirm(question string, def bool) bool {
	p.questions = append(p.questions, question)
	if len(p.answers) == 0 {
		return false
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a
}

type recordingNotifier struct {
	buf bytes.Buffer
}

func (n *recordingNotifier) Warn(format string, a ...interface{}) {
	fmt.Fprintf(&n.buf, "WARN "+format+"\n", a...)
}

func (n *recordingNotifier) Muted(format string, a ...interface{}) {
	fmt.Fprintf(&n.buf, format+"\n", a...)
}

func (n *recordingNotifier) Success(format string, a ...interface{}) {
	fmt.Fprintf(&n.buf, "OK "+format+"\n", a...)
}

func newTestGate(t *testing.T, answers ...bool) (*Gate, *scriptedPrompter, *recordingNotifier, string) {
	t.Helper()
	root := testutil.CreateTempDir(t)
	p := &scriptedPrompter{answers: answers}
	n := &recordingNotifier{}
	return NewGate(func() string { return root }, p, n), p, n, root
}

func TestGate_Read(t *testing.T) {
	g, p, _, root := newTestGate(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0644))

	got, err := g.Read("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	require.Len(t, p.questions, 1)
	assert.Equal(t, "Read "+filepath.Join(root, "a.txt")+"?", p.questions[0])
}

func TestGate_Read_Declined(t *testing.T) {
	g, _, _, root := newTestGate(t, false)
	path := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	got, err := g.Read("a.txt")
	assert.Equal(t, "", got)
	assert.True(t, errors.Is(err, internal.ErrDeclined))
	assert.False(t, errors.Is(err, internal.ErrNotFound))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestGate_Read_NotFound(t *testing.T) {
	g, p, _, _ := newTestGate(t, true)

	_, err := g.Read("missing.txt")
	assert.True(t, errors.Is(err, internal.ErrNotFound))
	assert.False(t, errors.Is(err, internal.ErrDeclined))
	assert.Empty(t, p.questions, "no consent prompt for a missing file")
}

func TestGate_Read_LargeFileWarning(t *testing.T) {
	g, _, n, root := newTestGate(t, true)
	big := strings.Repeat("x", LargeFileThreshold+1)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.txt"), []byte(big), 0644))

	got, err := g.Read("big.txt")
	require.NoError(t, err)
	assert.Len(t, got, LargeFileThreshold+1)
	assert.Contains(t, n.buf.String(), "WARN Large file (1.00MB)")
}

func TestGate_Write_BackupIffExistedAndConfirmed(t *testing.T) {
	tests := []struct {
		name        string
		existing    *string
		confirm     bool
		wantErr     error
		wantContent string
		wantBackup  *string
	}{
		{
			name:        "new file confirmed",
			confirm:     true,
			wantContent: "new",
		},
		{
			name:        "existing file confirmed",
			existing:    strPtr("old"),
			confirm:     true,
			wantContent: "new",
			wantBackup:  strPtr("old"),
		},
		{
			name:        "existing file declined",
			existing:    strPtr("old"),
			confirm:     false,
			wantErr:     internal.ErrDeclined,
			wantContent: "old",
		},
		{
			name:    "new file declined",
			confirm: false,
			wantErr: internal.ErrDeclined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, p, _, root := newTestGate(t, tt.confirm)
			path := filepath.Join(root, "out.txt")
			if tt.existing != nil {
				require.NoError(t, os.WriteFile(path, []byte(*tt.existing), 0644))
			}

			_, err := g.Write("out.txt", "new")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
			}
			assert.Len(t, p.questions, 1, "consent is asked exactly once")

			data, readErr := os.ReadFile(path)
			if tt.wantContent == "" {
				assert.True(t, os.IsNotExist(readErr))
			} else {
				require.NoError(t, readErr)
				assert.Equal(t, tt.wantContent, string(data))
			}

			backup, backupErr := os.ReadFile(path + BackupSuffix)
			if tt.wantBackup == nil {
				assert.True(t, os.IsNotExist(backupErr), "no backup expected")
			} else {
				require.NoError(t, backupErr)
				assert.Equal(t, *tt.wantBackup, string(backup))
			}
		})
	}
}

func TestGate_Write_OverwritesPriorBackup(t *testing.T) {
	g, _, _, root := newTestGate(t, true, true)
	path := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	_, err := g.Write("f.txt", "v2")
	require.NoError(t, err)
	_, err = g.Write("f.txt", "v3")
	require.NoError(t, err)

	backup, err := os.ReadFile(path + BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(backup))
}

func TestGate_Write_CreatesParents(t *testing.T) {
	g, _, n, root := newTestGate(t, true)

	full, err := g.Write("nested/dir/file.txt", "x")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "nested", "dir", "file.txt"), full)
	assert.Contains(t, n.buf.String(), "Creating directory")
}

func TestGate_Resolve(t *testing.T) {
	g, _, _, root := newTestGate(t)

	assert.Equal(t, filepath.Join(root, "a", "b.go"), g.Resolve("a/b.go"))
	assert.Equal(t, "/etc/hosts", g.Resolve("/etc/hosts"))
	assert.False(t, g.Exists("nope"))
	assert.False(t, g.Exists(""))
}

func strPtr(s string) *string { return &s }
