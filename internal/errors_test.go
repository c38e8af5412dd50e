package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestStorageError(t *testing.T) {
	originalErr := errors.New("permission denied")
	err := &StorageError{
		Path: "/test/path",
		Op:   "open",
		Err:  originalErr,
	}

	// Test Error() method
	errorMsg := err.Error()
	if errorMsg == "" {
		t.Error("StorageError.Error() returned empty string")
	}
	if !strings.Contains(errorMsg, "storage error") {
		t.Errorf("StorageError.Error() should contain 'storage error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "/test/path") {
		t.Errorf("StorageError.Error() should contain path, got: %q", errorMsg)
	}

	// Test Unwrap() method
	if !errors.Is(err, originalErr) {
		t.Error("StorageError.Unwrap() should return original error")
	}
}

func TestParseError(t *testing.T) {
	originalErr := errors.New("invalid JSON")
	err := &ParseError{
		Source: "globalStorage",
		Key:    "test:key",
		Err:    originalErr,
	}

	// Test Error() method
	errorMsg := err.Error()
	if errorMsg == "" {
		t.Error("ParseError.Error() returned empty string")
	}
	if !strings.Contains(errorMsg, "parse error") {
		t.Errorf("ParseError.Error() should contain 'parse error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "globalStorage") {
		t.Errorf("ParseError.Error() should contain source, got: %q", errorMsg)
	}

	// Test Unwrap() method
	if !errors.Is(err, originalErr) {
		t.Error("ParseError.Unwrap() should return original error")
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("upstream said no")
	tests := []struct {
		name      string
		err       *ProviderError
		wantKind  error
		retryable bool
		wantText  string
	}{
		{
			name:     "auth with status",
			err:      &ProviderError{Kind: ErrAuth, StatusCode: 401, Err: cause},
			wantKind: ErrAuth,
			wantText: "status 401",
		},
		{
			name:     "rate limited",
			err:      &ProviderError{Kind: ErrRateLimited, StatusCode: 429, Err: cause},
			wantKind: ErrRateLimited,
			wantText: "rate limit exceeded",
		},
		{
			name:     "network has no status",
			err:      &ProviderError{Kind: ErrNetworkUnreachable, Err: cause},
			wantKind: ErrNetworkUnreachable,
			wantText: "network unreachable: upstream said no",
		},
		{
			name:      "transient",
			err:       &ProviderError{Kind: ErrTransient, StatusCode: 500, Err: cause},
			wantKind:  ErrTransient,
			retryable: true,
			wantText:  "provider error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.wantKind) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.wantKind)
			}
			if !errors.Is(tt.err, cause) {
				t.Error("ProviderError should unwrap to its cause")
			}
			if got := tt.err.Retryable(); got != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", got, tt.retryable)
			}
			if !strings.Contains(tt.err.Error(), tt.wantText) {
				t.Errorf("Error() = %q, want it to contain %q", tt.err.Error(), tt.wantText)
			}
		})
	}
}
