package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialMissing is returned when no API key is configured.
	ErrCredentialMissing = errors.New("api key not set")
	// ErrAuth means the provider rejected the credential (HTTP 401).
	ErrAuth = errors.New("invalid api key")
	// ErrRateLimited means the provider throttled the request (HTTP 429).
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrNetworkUnreachable covers DNS, connection and timeout failures.
	ErrNetworkUnreachable = errors.New("network unreachable")
	// ErrTransient is any other provider failure; it is eligible for retry.
	ErrTransient = errors.New("provider error")
	// ErrDeclined means the user refused a consent prompt.
	ErrDeclined = errors.New("declined by user")
	// ErrNotFound means a file or session does not exist.
	ErrNotFound = errors.New("not found")
)

// StorageError represents errors accessing storage files
type StorageError struct {
	Path string
	Op   string // "open", "read", "parse", "write"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing data
type ParseError struct {
	Source string // "registry", "email", "SYNC_CONFIG.yaml"
	Key    string // section or file path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ProviderError is a classified failure of a chat-completion call. It
// matches both its Kind and its cause with errors.Is.
type ProviderError struct {
	Kind       error // one of ErrAuth, ErrRateLimited, ErrNetworkUnreachable, ErrTransient
	StatusCode int   // 0 when no HTTP response was received
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Retryable reports whether the self-correction loop may try again.
func (e *ProviderError) Retryable() bool {
	return errors.Is(e.Kind, ErrTransient)
}
