// Package chat turns a prompt plus session history into provider requests,
// applies the bounded self-correction policy and records the exchange.
package chat

import (
	"context"
	"errors"

	"github.com/aigent47/grok-code/internal"
	"github.com/aigent47/grok-code/internal/session"
)

const (
	// MaxRetries is the number of self-correction retries after the first attempt
	MaxRetries = 2
	// BaseTemperature is used on the first attempt
	BaseTemperature = 0.7
	// RetryTemperature favors determinism on retries
	RetryTemperature = 0.5
)

// Recorder durably appends a completed exchange
type Recorder interface {
	Append(sess *session.Session, user, assistant session.Message) error
}

// Reporter is the user-facing surface of the engine
type Reporter interface {
	Error(format string, a ...interface{})
	Warn(format string, a ...interface{})
	Reply(label, content string)
	Thinking(ctx context.Context, message string, fn func() error) error
}

// Engine sends prompts on behalf of a session
type Engine struct {
	provider   Provider
	recorder   Recorder
	credential func() string
	context    func() string
	out        Reporter
}

// NewEngine creates an engine. credential and contextText are read on every
// send so configuration changes apply immediately.
func NewEngine(provider Provider, recorder Recorder, credential func() string, contextText func() string, out Reporter) *Engine {
	if contextText == nil {
		contextText = func() string { return "" }
	}
	return &Engine{
		provider:   provider,
		recorder:   recorder,
		credential: credential,
		context:    contextText,
		out:        out,
	}
}

// Send submits prompt with the session history and returns the reply.
// Failures are reported to the user here; the returned error only tells the
// caller to abort. On success exactly one user/assistant pair has been
// persisted; on failure nothing has.
func (e *Engine) Send(ctx context.Context, sess *session.Session, prompt string, role session.Role) (string, error) {
	apiKey := e.credential()
	if apiKey == "" {
		e.out.Error("API key not set. Use \"grok /config\" to set your X.AI API key.")
		e.out.Warn("Get your API key from: https://x.ai/api")
		return "", internal.ErrCredentialMissing
	}
	if role == "" {
		role = session.RoleUser
	}

	contextText := e.context()

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		req := buildRequest(sess, prompt, role, attempt, contextText)

		var content string
		err := e.out.Thinking(ctx, "Thinking...", func() error {
			var err error
			content, err = e.provider.Complete(ctx, apiKey, req)
			return err
		})
		if err == nil {
			return e.record(sess, prompt, content)
		}

		lastErr = err
		internal.LogDebug("attempt %d failed: %v", attempt+1, err)

		if ctx.Err() != nil {
			e.out.Error("Request cancelled.")
			return "", ctx.Err()
		}
		if !retryable(err) {
			e.report(err)
			return "", err
		}
		if attempt < MaxRetries {
			e.out.Warn("Error occurred, attempting self-correction...")
		}
	}

	e.report(lastErr)
	return "", lastErr
}

func (e *Engine) record(sess *session.Session, prompt, content string) (string, error) {
	err := e.recorder.Append(sess,
		session.Message{Role: session.RoleUser, Content: prompt},
		session.Message{Role: session.RoleAssistant, Content: content},
	)
	if err != nil {
		e.out.Error("Failed to save session: %v", err)
		return "", err
	}
	e.out.Reply("Grok", content)
	return content, nil
}

func (e *Engine) report(err error) {
	switch {
	case errors.Is(err, internal.ErrAuth):
		e.out.Error("Invalid API key. Please check your X.AI API key.")
	case errors.Is(err, internal.ErrRateLimited):
		e.out.Error("Rate limit exceeded. Please wait a moment and try again.")
	case errors.Is(err, internal.ErrNetworkUnreachable):
		e.out.Error("Network error. Please check your internet connection.")
	default:
		e.out.Error("%v", err)
	}
}

func retryable(err error) bool {
	var perr *internal.ProviderError
	if errors.As(err, &perr) {
		return perr.Retryable()
	}
	// unclassified failures from a Provider are treated as transient
	return !errors.Is(err, internal.ErrAuth) &&
		!errors.Is(err, internal.ErrRateLimited) &&
		!errors.Is(err, internal.ErrNetworkUnreachable)
}

// buildRequest assembles the message list for one attempt. It is rebuilt
// from the history on every attempt, so the system preamble and the
// correction message each appear at most once.
func buildRequest(sess *session.Session, prompt string, role session.Role, attempt int, contextText string) Request {
	messages := make([]WireMessage, 0, len(sess.History)+3)
	hasSystem := false
	for _, m := range sess.History {
		if m.Role == session.RoleSystem {
			hasSystem = true
		}
		messages = append(messages, WireMessage{Role: string(m.Role), Content: m.Content})
	}

	if !hasSystem {
		messages = append([]WireMessage{{Role: string(session.RoleSystem), Content: systemPrompt(contextText)}}, messages...)
	}

	temperature := BaseTemperature
	if attempt > 0 {
		messages = append(messages, WireMessage{Role: string(session.RoleSystem), Content: CorrectionMessage})
		temperature = RetryTemperature
	}

	messages = append(messages, WireMessage{Role: string(role), Content: prompt})

	return Request{
		Model:       sess.Model,
		Messages:    messages,
		Temperature: temperature,
		Stream:      false,
	}
}
