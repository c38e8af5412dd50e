// Package session owns conversation state: the message history and the
// selected model, persisted as one JSON file per session.
package session

// Role is the author of a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one history entry. It is never modified once appended.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Session is the durable unit of conversational state
type Session struct {
	ID      string    `json:"id" yaml:"id"`
	History []Message `json:"history" yaml:"history"`
	Model   string    `json:"model" yaml:"model"`
}

// Len returns the number of messages in the history
func (s *Session) Len() int {
	return len(s.History)
}

// Clone returns a deep copy so callers can snapshot the history
func (s *Session) Clone() *Session {
	c := *s
	c.History = append([]Message(nil), s.History...)
	return &c
}
