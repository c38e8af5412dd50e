package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aigent47/grok-code/internal"
	"github.com/aigent47/grok-code/internal/session"
)

// historyPreview is how much of each message /history shows
const historyPreview = 50

func (a *App) newSession() error {
	sess := a.Sessions.Create()
	if err := a.Sessions.Persist(sess); err != nil {
		a.Console.Error("Failed to save session: %v", err)
		return err
	}
	a.Session = sess
	a.Console.Info("New session started.")
	return nil
}

func (a *App) history() {
	a.Console.Header("Session History:")
	if a.Session.Len() == 0 {
		a.Console.Muted("No messages yet.")
		return
	}
	for i, msg := range a.Session.History {
		a.Console.Printf("%d: %s %s\n", i, a.Console.Role(string(msg.Role)), session.Truncate(msg.Content, historyPreview))
	}
}

func (a *App) resume(id string) error {
	if id == "" {
		a.Console.Error("Usage: /resume <id>")
		return nil
	}
	sess, err := a.Sessions.Load(id)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			a.Console.Error("Session not found: %s", id)
		} else {
			a.Console.Error("Failed to load session %s: %v", id, err)
		}
		return err
	}
	a.Session = sess
	a.Console.Info("Resumed session %s (%d messages).", sess.ID, sess.Len())
	return nil
}

func (a *App) model(name string) error {
	if name == "" {
		name = a.Config.Get().DefaultModel
	}
	if !knownModel(name) {
		a.Console.Warn("%s is not a known model; the provider may reject it.", name)
	}

	previous := a.Session.Model
	a.Session.Model = name
	if err := a.Sessions.Persist(a.Session); err != nil {
		a.Session.Model = previous
		a.Console.Error("Failed to save session: %v", err)
		return err
	}
	a.Console.Info("Model set to %s.", name)
	return nil
}

func (a *App) sessions() error {
	entries, err := a.Sessions.List()
	if err != nil {
		a.Console.Error("Failed to read session index: %v", err)
		return err
	}
	if len(entries) == 0 {
		a.Console.Muted("No saved sessions.")
		return nil
	}

	a.Console.Header(fmt.Sprintf("Found %d session(s)", len(entries)))
	now := time.Now()
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		marker := ""
		if e.ID == a.Session.ID {
			marker = "*"
		}
		preview := e.Preview
		if preview == "" {
			preview = "Untitled"
		}
		rows = append(rows, []string{marker + e.ID, e.Model, strconv.Itoa(e.MessageCount), when(e.UpdatedAt, now), preview})
	}
	a.Console.Table([]string{"ID", "Model", "Messages", "Updated", "First prompt"}, rows)
	a.Console.Muted("Resume one with: grok /resume <id>")
	return nil
}

// when renders t relative to now, coarser the older it is
func when(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	t = t.Local()
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
