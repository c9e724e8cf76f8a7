package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind classifies an APIError into the categories the retry policy
// and callers care about.
type ErrorKind string

const (
	// KindAuth covers authentication and authorization failures (401, 403)
	// and missing required credentials. Never retried.
	KindAuth ErrorKind = "auth"

	// KindRateLimit covers rate limiting (429). Retried with backoff.
	KindRateLimit ErrorKind = "rate_limit"

	// KindServer covers provider-side failures (status >= 500).
	// Retried with backoff.
	KindServer ErrorKind = "server"

	// KindTimeout covers timeouts and aborted requests. Retried with backoff.
	KindTimeout ErrorKind = "timeout"

	// KindNetwork covers transport-level failures (DNS, connection refused).
	// StatusCode is 0. Retried with backoff.
	KindNetwork ErrorKind = "network"

	// KindContentPolicy covers provider content-filter rejections.
	// Never retried; surfaced verbatim.
	KindContentPolicy ErrorKind = "content_policy"

	// KindUnknown is the fallback for anything unclassified.
	KindUnknown ErrorKind = "unknown"
)

// APIError is the single concrete error type raised by the completion core.
// The Kind tag carries the classification; there are no per-provider error
// subtypes. Provider is never empty on errors raised by this package.
type APIError struct {
	// Provider is the name of the provider the error belongs to
	Provider string

	// Kind is the error classification
	Kind ErrorKind

	// StatusCode is the HTTP status code (0 if the failure happened below
	// HTTP: transport error, timeout, or a pre-network credential failure)
	StatusCode int

	// Message is the error message, parsed from the provider's error body
	// when one was available
	Message string

	// RequestContext carries request diagnostics (attempt count, model,
	// retry-after hints). Nil until the first WithContext call.
	RequestContext map[string]string

	// Timestamp records when the error was created
	Timestamp time.Time

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the retry policy should consider another
// attempt for this error. Auth and content-policy failures are final.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindServer, KindRateLimit, KindTimeout, KindNetwork:
		return true
	}
	return false
}

// WithContext attaches a request-context entry and returns the error.
// The map is created lazily.
func (e *APIError) WithContext(key, value string) *APIError {
	if e.RequestContext == nil {
		e.RequestContext = make(map[string]string)
	}
	e.RequestContext[key] = value
	return e
}

// NewAPIError builds an APIError classified from the HTTP status code and
// message. Use WrapTransportError for failures without an HTTP status.
func NewAPIError(provider string, statusCode int, message string) *APIError {
	return &APIError{
		Provider:   provider,
		Kind:       classifyStatus(provider, statusCode, message),
		StatusCode: statusCode,
		Message:    message,
		Timestamp:  time.Now(),
	}
}

// NewAuthError builds a credential failure raised before any network call
// (missing required key). StatusCode stays 0: no HTTP exchange happened.
func NewAuthError(provider string, message string) *APIError {
	return &APIError{
		Provider:  provider,
		Kind:      KindAuth,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WrapTransportError builds an APIError for a failure below HTTP: context
// cancellation, timeout, DNS or connection errors. StatusCode is 0 and the
// kind distinguishes aborted/timed-out requests from network failures.
func WrapTransportError(provider string, err error) *APIError {
	kind := KindNetwork
	message := fmt.Sprintf("network error: %v", err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || matchesTimeout(err.Error()) {
		kind = KindTimeout
		message = fmt.Sprintf("request aborted or timed out: %v", err)
	}
	return &APIError{
		Provider:  provider,
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     err,
	}
}

// TagProvider stamps a provider name onto an error that is missing one, so
// provider-specific message overrides apply. Adapters call this on every
// error path; non-APIError values are wrapped as KindUnknown.
func TagProvider(provider string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Provider == "" {
			apiErr.Provider = provider
		}
		return err
	}
	return &APIError{
		Provider:  provider,
		Kind:      KindUnknown,
		Message:   err.Error(),
		Timestamp: time.Now(),
		Cause:     err,
	}
}

// classifyStatus maps an HTTP status and message onto an ErrorKind.
func classifyStatus(provider string, statusCode int, message string) ErrorKind {
	switch {
	case statusCode == 401 || statusCode == 403:
		return KindAuth
	case statusCode == 429:
		return KindRateLimit
	case statusCode >= 500:
		return KindServer
	}
	if matchesContentPolicy(provider, message) {
		return KindContentPolicy
	}
	if statusCode == 0 && matchesTimeout(message) {
		return KindTimeout
	}
	return KindUnknown
}

// timeoutPatterns identify timeout/abort failures from message text when no
// typed cause is available.
var timeoutPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"aborted",
	"canceled",
	"cancelled",
}

func matchesTimeout(message string) bool {
	lower := strings.ToLower(message)
	for _, pattern := range timeoutPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// contentPolicyPatterns identify provider content-filter rejections.
// An empty provider entry applies to every provider.
var contentPolicyPatterns = []struct {
	provider string
	pattern  string
}{
	{"", "content_filter"},
	{"", "content_policy_violation"},
	{"", "content management policy"},
	{"gemini", "PROHIBITED_CONTENT"},
	{"gemini", "blocked due to SAFETY"},
}

func matchesContentPolicy(provider, message string) bool {
	for _, entry := range contentPolicyPatterns {
		if entry.provider != "" && entry.provider != provider {
			continue
		}
		if strings.Contains(message, entry.pattern) {
			return true
		}
	}
	return false
}

// IsAuthError reports whether err is an auth-kind APIError.
func IsAuthError(err error) bool {
	return kindOf(err) == KindAuth
}

// IsRateLimitError reports whether err is a rate-limit-kind APIError.
func IsRateLimitError(err error) bool {
	return kindOf(err) == KindRateLimit
}

// IsServerError reports whether err is a server-kind APIError.
func IsServerError(err error) bool {
	return kindOf(err) == KindServer
}

// IsTimeout reports whether err is a timeout-kind APIError.
func IsTimeout(err error) bool {
	return kindOf(err) == KindTimeout
}

// IsNetworkError reports whether err is a network-kind APIError.
func IsNetworkError(err error) bool {
	return kindOf(err) == KindNetwork
}

// IsContentPolicyError reports whether err is a content-policy-kind APIError.
func IsContentPolicyError(err error) bool {
	return kindOf(err) == KindContentPolicy
}

// IsRetryable reports whether the default retry predicate would retry err:
// server, rate-limit, timeout, and network kinds. Anything that is not an
// APIError is not retried.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Retryable()
}

func kindOf(err error) ErrorKind {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	return apiErr.Kind
}

// messageOverrides maps (provider, message substring) pairs to friendly
// messages, checked before the per-kind defaults.
var messageOverrides = []struct {
	provider string
	pattern  string
	message  string
}{
	{"deepseek", "commercial_use_required", "DeepSeek keyless access is limited to non-commercial use. Add a DeepSeek API key to continue."},
	{"openai", "insufficient_quota", "Your OpenAI account is out of quota. Check your plan and billing details."},
	{"openai", "context_length_exceeded", "The request exceeds the model's context window. Shorten the prompt or selection."},
}

// FriendlyMessage maps an error to a human-readable message suitable for
// direct display. Provider-specific overrides win over the per-kind
// defaults; content-policy messages are surfaced verbatim.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	for _, o := range messageOverrides {
		if o.provider == apiErr.Provider && strings.Contains(apiErr.Message, o.pattern) {
			return o.message
		}
	}

	switch apiErr.Kind {
	case KindAuth:
		return fmt.Sprintf("Authentication with %s failed. Check your API key.", apiErr.Provider)
	case KindRateLimit:
		if wait, ok := apiErr.RequestContext["retry_after"]; ok {
			return fmt.Sprintf("%s is rate limiting requests. Wait %s and try again.", apiErr.Provider, wait)
		}
		return fmt.Sprintf("%s is rate limiting requests. Wait a moment and try again.", apiErr.Provider)
	case KindServer:
		return fmt.Sprintf("%s reported a server error. Try again shortly.", apiErr.Provider)
	case KindTimeout:
		return "The request timed out. Try again, or increase the provider timeout."
	case KindNetwork:
		return fmt.Sprintf("Could not reach %s. Check your network connection.", apiErr.Provider)
	case KindContentPolicy:
		return apiErr.Message
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return "The request failed for an unknown reason."
}

// ValidationError represents a request validation failure raised before any
// network call. This occurs when the request has invalid fields.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}
