package triage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aigent47/grok-code/internal"
)

// Schema creates the request ledger table
const Schema = `
CREATE TABLE IF NOT EXISTS requests (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	received_at TEXT NOT NULL,
	raw TEXT NOT NULL,
	parsed TEXT NOT NULL,
	status TEXT NOT NULL,
	processed INTEGER NOT NULL DEFAULT 0,
	issue_number INTEGER NOT NULL DEFAULT 0
)`

// Ledger stores requests in SQLite
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// OpenLedger opens (creating if needed) the ledger database at path
func OpenLedger(path string) (*Ledger, error) {
	db, err := internal.OpenDatabase(path, Schema)
	if err != nil {
		return nil, &internal.StorageError{Path: path, Op: "open", Err: err}
	}
	return NewLedger(db), nil
}

// NewLedger wraps an already prepared database
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Close closes the underlying database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Add parses an email body and stores it as a pending request
func (l *Ledger) Add(raw string) (Request, error) {
	r := Request{
		ID:         uuid.NewString(),
		ReceivedAt: l.now().UTC(),
		Raw:        raw,
		Parsed:     Parse(raw),
		Status:     StatusPending,
	}
	parsed, err := json.Marshal(r.Parsed)
	if err != nil {
		return Request{}, fmt.Errorf("failed to encode request: %w", err)
	}
	_, err = l.db.Exec(
		`INSERT INTO requests (id, received_at, raw, parsed, status) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.ReceivedAt.Format(time.RFC3339Nano), r.Raw, string(parsed), r.Status,
	)
	if err != nil {
		return Request{}, fmt.Errorf("failed to store request: %w", err)
	}
	internal.LogDebug("stored email request %s", r.ID)
	return r, nil
}

// Pending returns unprocessed requests in arrival order
func (l *Ledger) Pending() ([]Request, error) {
	rows, err := l.db.Query(
		`SELECT id, received_at, raw, parsed, status, processed, issue_number
		 FROM requests WHERE processed = 0 ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns one request by id
func (l *Ledger) Get(id string) (Request, error) {
	row := l.db.QueryRow(
		`SELECT id, received_at, raw, parsed, status, processed, issue_number
		 FROM requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, fmt.Errorf("request %s: %w", id, internal.ErrNotFound)
	}
	return r, err
}

// MarkProcessed records the outcome of a review
func (l *Ledger) MarkProcessed(id, status string, issueNumber int) error {
	res, err := l.db.Exec(
		`UPDATE requests SET status = ?, processed = 1, issue_number = ? WHERE id = ?`,
		status, issueNumber, id)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("request %s: %w", id, internal.ErrNotFound)
	}
	return nil
}

// Count returns the number of unprocessed requests
func (l *Ledger) Count() (int, error) {
	var n int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM requests WHERE processed = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(s scanner) (Request, error) {
	var (
		r         Request
		received  string
		parsed    string
		processed int
	)
	if err := s.Scan(&r.ID, &received, &r.Raw, &parsed, &r.Status, &processed, &r.IssueNumber); err != nil {
		return Request{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, received)
	if err != nil {
		return Request{}, &internal.ParseError{Source: "requests", Key: r.ID, Err: err}
	}
	r.ReceivedAt = t
	if err := json.Unmarshal([]byte(parsed), &r.Parsed); err != nil {
		return Request{}, &internal.ParseError{Source: "requests", Key: r.ID, Err: err}
	}
	r.Processed = processed != 0
	return r, nil
}
