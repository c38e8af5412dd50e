// Package fileio gates every read and write of user files behind an
// explicit confirmation, with a size warning on read and a backup copy on
// overwrite.
package fileio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aigent47/grok-code/internal"
)

// LargeFileThreshold triggers the size warning on read
const LargeFileThreshold = 1024 * 1024

// BackupSuffix is appended to a destination to form its backup path
const BackupSuffix = ".backup"

// Prompter asks the user a yes/no question
type Prompter interface {
	Confirm(question string, def bool) bool
}

// Notifier receives the gate's status lines
type Notifier interface {
	Warn(format string, a ...interface{})
	Muted(format string, a ...interface{})
	Success(format string, a ...interface{})
}

// Mode is the kind of a pending file operation
type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// pending describes the operation awaiting consent. It lives only for the
// duration of one prompt.
type pending struct {
	Path    string
	Mode    Mode
	Content *string
}

func (p pending) question() string {
	if p.Mode == ModeWrite {
		if p.Content != nil {
			return fmt.Sprintf("Write %d bytes to %s?", len(*p.Content), p.Path)
		}
		return fmt.Sprintf("Write to %s?", p.Path)
	}
	return fmt.Sprintf("Read %s?", p.Path)
}

// Gate performs consent-gated file operations relative to a working
// directory
type Gate struct {
	root     func() string
	prompter Prompter
	notify   Notifier
}

// NewGate creates a gate. root is consulted on every call so a changed
// working directory takes effect immediately.
func NewGate(root func() string, prompter Prompter, notify Notifier) *Gate {
	return &Gate{root: root, prompter: prompter, notify: notify}
}

// Resolve returns the absolute path of p relative to the working directory
func (g *Gate) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(g.root(), p)
}

// Exists reports whether p names an existing regular file
func (g *Gate) Exists(p string) bool {
	if p == "" {
		return false
	}
	info, err := os.Stat(g.Resolve(p))
	return err == nil && info.Mode().IsRegular()
}

func (g *Gate) ask(op pending) bool {
	return g.prompter.Confirm(op.question(), false)
}

// Read returns the content of p after the user agreed. It fails with
// internal.ErrNotFound when the file is absent and internal.ErrDeclined
// when the user refuses.
func (g *Gate) Read(p string) (string, error) {
	full := g.Resolve(p)

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file %s: %w", full, internal.ErrNotFound)
		}
		return "", &internal.StorageError{Path: full, Op: "stat", Err: err}
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory: %w", full, internal.ErrNotFound)
	}

	if info.Size() > LargeFileThreshold {
		g.notify.Warn("Large file (%.2fMB)", float64(info.Size())/1024/1024)
	}

	if !g.ask(pending{Path: full, Mode: ModeRead}) {
		return "", internal.ErrDeclined
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", &internal.StorageError{Path: full, Op: "read", Err: err}
	}
	internal.LogDebug("read %d bytes from %s", len(data), full)
	return string(data), nil
}

// Write replaces p with content after the user agreed. An existing
// destination is first copied to p + ".backup". It returns the resolved
// path on success and internal.ErrDeclined when the user refuses.
func (g *Gate) Write(p, content string) (string, error) {
	full := g.Resolve(p)

	dir := filepath.Dir(full)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		g.notify.Muted("Creating directory: %s", dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", &internal.StorageError{Path: dir, Op: "mkdir", Err: err}
		}
	}

	if !g.ask(pending{Path: full, Mode: ModeWrite, Content: &content}) {
		return "", internal.ErrDeclined
	}

	// checked after consent: the backup must reflect the file as it was
	// immediately before this write
	if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
		backup := full + BackupSuffix
		if err := copyFile(full, backup); err != nil {
			return "", &internal.StorageError{Path: backup, Op: "backup", Err: err}
		}
		g.notify.Muted("Backup created: %s", backup)
	}

	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return "", &internal.StorageError{Path: full, Op: "write", Err: err}
	}
	g.notify.Success("File written: %s", full)
	return full, nil
}

// copyFile copies a file from src to dst, replacing dst
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	info, err := sourceFile.Stat()
	if err != nil {
		return err
	}

	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}
	return destFile.Close()
}
