// Package export renders a conversation session in a shareable format.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/aigent47/grok-code/internal/session"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(sess *session.Session, w io.Writer) error
	Extension() string
}

// Formats lists the accepted format names
var Formats = []string{"md", "json", "yaml", "jsonl"}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// DefaultFileName is the file an export is written to when none is given
func DefaultFileName(sess *session.Session, e Exporter) string {
	return fmt.Sprintf("grok-session-%s.%s", shortID(sess.ID), e.Extension())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
