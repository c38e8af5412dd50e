package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aigent47/grok-code/internal/session"
)

// JSONLExporter exports sessions in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlLine struct {
	Session string       `json:"session"`
	Index   int          `json:"index"`
	Role    session.Role `json:"role"`
	Content string       `json:"content"`
}

// Export exports a session to JSONL format
func (e *JSONLExporter) Export(sess *session.Session, w io.Writer) error {
	enc := json.NewEncoder(w)

	for i, msg := range sess.History {
		line := jsonlLine{Session: sess.ID, Index: i, Role: msg.Role, Content: msg.Content}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
