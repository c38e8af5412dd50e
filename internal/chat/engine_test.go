package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigent47/grok-code/internal"
	"github.com/aigent47/grok-code/internal/session"
	"github.com/aigent47/grok-code/testutil"
)

// fakeProvider replays scripted results and records every request
type fakeProvider struct {
	results  []error
	reply    string
	requests []Request
}

func (p *fakeProvider) Complete(ctx context.Context, apiKey string, req Request) (string, error) {
	p.requests = append(p.requests, req)
	i := len(p.requests) - 1
	if i < len(p.results) && p.results[i] != nil {
		return "", p.results[i]
	}
	return p.reply, nil
}

type nullReporter struct {
	errors  []string
	warns   []string
	replies []string
}

func (r *nullReporter) Error(format string, a ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, a...))
}

func (r *nullReporter) Warn(format string, a ...interface{}) {
	r.warns = append(r.warns, fmt.Sprintf(format, a...))
}

func (r *nullReporter) Reply(label, content string) {
	r.replies = append(r.replies, content)
}

func (r *nullReporter) Thinking(ctx context.Context, message string, fn func() error) error {
	return fn()
}

type failingRecorder struct{}

func (failingRecorder) Append(*session.Session, session.Message, session.Message) error {
	return errors.New("disk full")
}

func setup(t *testing.T, p *fakeProvider, apiKey string) (*Engine, *session.Store, *session.Session, *nullReporter) {
	t.Helper()
	store := session.NewStore(filepath.Join(testutil.CreateTempDir(t), "sessions"), func() string { return "grok-4" })
	out := &nullReporter{}
	e := NewEngine(p, store, func() string { return apiKey }, func() string { return "" }, out)
	return e, store, store.Create(), out
}

func transientErr() error {
	return &internal.ProviderError{Kind: internal.ErrTransient, StatusCode: 500, Err: errors.New("boom")}
}

func TestEngine_Send_Success(t *testing.T) {
	p := &fakeProvider{reply: "hello"}
	e, store, sess, out := setup(t, p, "key")

	got, err := e.Send(context.Background(), sess, "hi", session.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, []session.Message{
		{Role: session.RoleUser, Content: "hi"},
		{Role: session.RoleAssistant, Content: "hello"},
	}, sess.History)
	assert.Equal(t, []string{"hello"}, out.replies)

	require.Len(t, p.requests, 1)
	req := p.requests[0]
	assert.Equal(t, "grok-4", req.Model)
	assert.Equal(t, BaseTemperature, req.Temperature)
	assert.False(t, req.Stream)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "consent")
	assert.Equal(t, WireMessage{Role: "user", Content: "hi"}, req.Messages[1])

	loaded, err := store.Load(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.History, loaded.History)
}

func TestEngine_Send_HistoryGrowsByPairs(t *testing.T) {
	p := &fakeProvider{reply: "ok"}
	e, _, sess, _ := setup(t, p, "key")

	for i := 1; i <= 4; i++ {
		_, err := e.Send(context.Background(), sess, fmt.Sprintf("q%d", i), session.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, 2*i, sess.Len())
	}
	for i, m := range sess.History {
		if i%2 == 0 {
			assert.Equal(t, session.RoleUser, m.Role)
		} else {
			assert.Equal(t, session.RoleAssistant, m.Role)
		}
	}

	// history is replayed in order after the single preamble
	last := p.requests[len(p.requests)-1]
	assert.Len(t, last.Messages, 1+6+1)
}

func TestEngine_Send_CredentialMissing(t *testing.T) {
	p := &fakeProvider{reply: "hello"}
	e, _, sess, out := setup(t, p, "")

	_, err := e.Send(context.Background(), sess, "hi", session.RoleUser)
	assert.True(t, errors.Is(err, internal.ErrCredentialMissing))
	assert.Empty(t, p.requests, "no network call without a credential")
	assert.Equal(t, 0, sess.Len())
	require.NotEmpty(t, out.errors)
	assert.Contains(t, out.errors[0], "API key not set")
}

func TestEngine_Send_RetriesTransientThenSucceeds(t *testing.T) {
	p := &fakeProvider{results: []error{transientErr(), transientErr()}, reply: "fixed"}
	e, _, sess, out := setup(t, p, "key")

	got, err := e.Send(context.Background(), sess, "hi", session.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, "fixed", got)

	require.Len(t, p.requests, 3)
	assert.Equal(t, BaseTemperature, p.requests[0].Temperature)
	assert.Equal(t, RetryTemperature, p.requests[1].Temperature)
	assert.Equal(t, RetryTemperature, p.requests[2].Temperature)
	assert.Equal(t, 2, sess.Len(), "exactly one pair is recorded")
	assert.Len(t, out.warns, 2)

	for i, req := range p.requests {
		corrections := 0
		systems := 0
		for _, m := range req.Messages {
			if m.Role == "system" {
				systems++
			}
			if m.Content == CorrectionMessage {
				corrections++
			}
		}
		if i == 0 {
			assert.Equal(t, 0, corrections)
			assert.Equal(t, 1, systems)
		} else {
			assert.Equal(t, 1, corrections, "one correction message on attempt %d", i+1)
			assert.Equal(t, 2, systems)
			// correction sits right before the prompt
			n := len(req.Messages)
			assert.Equal(t, CorrectionMessage, req.Messages[n-2].Content)
			assert.Equal(t, "hi", req.Messages[n-1].Content)
		}
	}
}

func TestEngine_Send_GivesUpAfterThreeAttempts(t *testing.T) {
	p := &fakeProvider{results: []error{transientErr(), transientErr(), transientErr(), nil}, reply: "never"}
	e, store, sess, out := setup(t, p, "key")

	_, err := e.Send(context.Background(), sess, "hi", session.RoleUser)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internal.ErrTransient))
	assert.Len(t, p.requests, 3)
	assert.Equal(t, 0, sess.Len())
	assert.Len(t, out.errors, 1)

	_, loadErr := store.Load(sess.ID)
	assert.True(t, errors.Is(loadErr, internal.ErrNotFound), "nothing persisted on failure")
}

func TestEngine_Send_NeverRetriesTerminalErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{
			name:    "auth",
			err:     &internal.ProviderError{Kind: internal.ErrAuth, StatusCode: 401, Err: errors.New("bad key")},
			message: "Invalid API key",
		},
		{
			name:    "rate limited",
			err:     &internal.ProviderError{Kind: internal.ErrRateLimited, StatusCode: 429, Err: errors.New("slow down")},
			message: "Rate limit exceeded",
		},
		{
			name:    "network",
			err:     &internal.ProviderError{Kind: internal.ErrNetworkUnreachable, Err: errors.New("no such host")},
			message: "Network error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{results: []error{tt.err}, reply: "unused"}
			e, _, sess, out := setup(t, p, "key")

			_, err := e.Send(context.Background(), sess, "hi", session.RoleUser)
			assert.True(t, errors.Is(err, tt.err))
			assert.Len(t, p.requests, 1)
			assert.Equal(t, 0, sess.Len())
			require.Len(t, out.errors, 1)
			assert.Contains(t, out.errors[0], tt.message)
			assert.Empty(t, out.warns)
		})
	}
}

func TestEngine_Send_RecordFailureLeavesHistory(t *testing.T) {
	p := &fakeProvider{reply: "hello"}
	out := &nullReporter{}
	e := NewEngine(p, failingRecorder{}, func() string { return "key" }, nil, out)
	sess := &session.Session{ID: "x", History: []session.Message{}, Model: "grok-4"}

	_, err := e.Send(context.Background(), sess, "hi", session.RoleUser)
	require.Error(t, err)
	assert.Equal(t, 0, sess.Len())
	assert.Empty(t, out.replies)
}

func TestEngine_Send_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeProvider{results: []error{transientErr(), transientErr(), transientErr()}}
	e, _, sess, _ := setup(t, p, "key")

	_, err := e.Send(ctx, sess, "hi", session.RoleUser)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, p.requests, 1)
}

func TestBuildRequest(t *testing.T) {
	t.Run("existing system message suppresses preamble", func(t *testing.T) {
		sess := &session.Session{Model: "grok-3", History: []session.Message{
			{Role: session.RoleSystem, Content: "custom"},
		}}
		req := buildRequest(sess, "hi", session.RoleUser, 0, "ctx")
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "custom", req.Messages[0].Content)
		assert.Equal(t, "grok-3", req.Model)
	})

	t.Run("context text joins the preamble", func(t *testing.T) {
		sess := &session.Session{Model: "grok-4"}
		req := buildRequest(sess, "hi", session.RoleUser, 0, "Project Context:\nuse tabs\n\n")
		assert.Equal(t, SafetyPreamble+"\n\nProject Context:\nuse tabs", req.Messages[0].Content)
	})

	t.Run("system role prompt", func(t *testing.T) {
		sess := &session.Session{Model: "grok-4"}
		req := buildRequest(sess, "reset", session.RoleSystem, 0, "")
		last := req.Messages[len(req.Messages)-1]
		assert.Equal(t, WireMessage{Role: "system", Content: "reset"}, last)
	})
}
