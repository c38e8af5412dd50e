package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/aigent47/grok-code/internal"
)

// DefaultBaseURL is the xAI OpenAI-compatible endpoint
const DefaultBaseURL = "https://api.x.ai/v1"

// DefaultTimeout bounds a single completion request
const DefaultTimeout = 2 * time.Minute

// WireMessage is a role/content pair as sent to the provider
type WireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the chat-completion request body
type Request struct {
	Model       string        `json:"model"`
	Messages    []WireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

// Response is the subset of the chat-completion response that is consumed
type Response struct {
	Choices []struct {
		Message WireMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Provider performs one chat-completion call. Implementations return a
// *internal.ProviderError for every failure.
type Provider interface {
	Complete(ctx context.Context, apiKey string, req Request) (string, error)
}

// XAIConfig configures the HTTP provider
type XAIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultXAIConfig returns sensible defaults. GROK_BASE_URL overrides the
// endpoint.
func DefaultXAIConfig() XAIConfig {
	cfg := XAIConfig{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
	if u := os.Getenv("GROK_BASE_URL"); u != "" {
		cfg.BaseURL = u
	}
	return cfg
}

// XAIClient implements Provider over the xAI HTTP API
type XAIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewXAIClient creates a client with the given config
func NewXAIClient(cfg XAIConfig) *XAIClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &XAIClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete sends one request and returns the first choice's content
func (c *XAIClient) Complete(ctx context.Context, apiKey string, req Request) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	internal.LogDebug("[xai] complete: model=%s messages=%d temperature=%.1f", req.Model, len(req.Messages), req.Temperature)

	body, err := json.Marshal(req)
	if err != nil {
		return "", transient(0, fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", transient(0, fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(fmt.Errorf("failed to read response: %w", err))
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "", &internal.ProviderError{Kind: internal.ErrAuth, StatusCode: resp.StatusCode, Err: errors.New(apiMessage(data))}
	case http.StatusTooManyRequests:
		return "", &internal.ProviderError{Kind: internal.ErrRateLimited, StatusCode: resp.StatusCode, Err: errors.New(apiMessage(data))}
	default:
		return "", transient(resp.StatusCode, errors.New(apiMessage(data)))
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return "", transient(resp.StatusCode, fmt.Errorf("failed to parse response: %w", err))
	}
	if out.Error != nil {
		return "", transient(resp.StatusCode, fmt.Errorf("API error: %s", out.Error.Message))
	}
	if len(out.Choices) == 0 {
		return "", transient(resp.StatusCode, errors.New("invalid response from API: no choices"))
	}

	internal.LogDebug("[xai] complete: done in %v", time.Since(startTime))
	return out.Choices[0].Message.Content, nil
}

func transient(status int, err error) error {
	return &internal.ProviderError{Kind: internal.ErrTransient, StatusCode: status, Err: err}
}

// apiMessage extracts the provider's error message from a response body
func apiMessage(body []byte) string {
	var out Response
	if err := json.Unmarshal(body, &out); err == nil && out.Error != nil && out.Error.Message != "" {
		return out.Error.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	if len(body) == 0 {
		return "empty response body"
	}
	return string(body)
}

// classifyTransportError maps failures below HTTP to the error taxonomy.
// DNS failures, refused connections and timeouts are network errors; they
// are never retried.
func classifyTransportError(err error) error {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	var netErr net.Error
	switch {
	case errors.As(err, &dnsErr),
		errors.As(err, &opErr) && opErr.Op == "dial",
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &internal.ProviderError{Kind: internal.ErrNetworkUnreachable, Err: err}
	default:
		return transient(0, err)
	}
}
