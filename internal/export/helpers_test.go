package export

import "github.com/aigent47/grok-code/internal/session"

func testSession(id string) *session.Session {
	return testSessionWithHistory(id, []session.Message{
		{Role: session.RoleUser, Content: "Hello, how are you?"},
		{Role: session.RoleAssistant, Content: "I'm doing well, thank you!"},
	})
}

func testSessionWithHistory(id string, history []session.Message) *session.Session {
	return &session.Session{ID: id, History: history, Model: "grok-4"}
}
