package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/aigent47/grok-code/internal/session"
)

// MarkdownExporter exports sessions in Markdown format
type MarkdownExporter struct{}

var roleHeadings = map[session.Role]string{
	session.RoleSystem:    "System",
	session.RoleUser:      "You",
	session.RoleAssistant: "Grok",
}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(sess *session.Session, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Session %s\n\n", sess.ID)
	_, _ = fmt.Fprintf(w, "**Model:** %s  \n", sess.Model)
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(sess.History))
	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	for i, msg := range sess.History {
		heading, ok := roleHeadings[msg.Role]
		if !ok {
			heading = string(msg.Role)
		}

		_, _ = fmt.Fprintf(w, "**%s:**\n\n%s\n\n", heading, escapeMarkdown(msg.Content))

		// Add horizontal rule after each message (except the last one)
		if i < len(sess.History)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// escapeMarkdown escapes bold and underline markers outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
