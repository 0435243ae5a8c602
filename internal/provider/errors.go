package provider

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"configllm/internal/domain"
)

// ErrNoFallback is returned by Fallback when an adapter has no degraded path
// for the given failure.
var ErrNoFallback = errors.New("no fallback available")

// Failure is the typed error every adapter returns. Error() is the result
// text recorded for the attempt and always starts with "Error".
type Failure struct {
	Kind     domain.FailureKind
	Provider domain.ProviderKind
	Message  string
	Err      error
}

func (f *Failure) Error() string {
	return "Error: " + f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Recoverable reports whether the failure may be retried with a degraded payload.
func (f *Failure) Recoverable() bool {
	switch f.Kind {
	case domain.FailureTransport, domain.FailureHTTPStatus, domain.FailureRateLimited, domain.FailureEmptyResponse:
		return true
	}
	return false
}

// NewFailure creates a Failure with a formatted message.
func NewFailure(kind domain.FailureKind, p domain.ProviderKind, err error, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Provider: p, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotConfigured is the failure for an adapter without a usable client.
func NotConfigured(p domain.ProviderKind) *Failure {
	return NewFailure(domain.FailureConfiguration, p, domain.ErrNotConfigured,
		"API client for '%s' not initialized. Check API key and settings.", p)
}

// Transport wraps a client-side error (timeout, connection, SDK exception).
func Transport(p domain.ProviderKind, err error) *Failure {
	return NewFailure(domain.FailureTransport, p, err, "calling %s API: %v", DisplayName(p), err)
}

// HTTPStatus wraps a non-2xx response. 429 becomes a rate-limited failure
// carrying a RateLimitError.
func HTTPStatus(p domain.ProviderKind, status int, body, retryAfter string) *Failure {
	detail := truncate(body, 500)
	base := fmt.Errorf("status %d: %s", status, detail)
	if status == 429 {
		rl := NewRateLimitError(string(p), base, ParseRetryAfterHeader(retryAfter))
		return NewFailure(domain.FailureRateLimited, p, rl, "API returned status %d: %s", status, detail)
	}
	return NewFailure(domain.FailureHTTPStatus, p, base, "API returned status %d: %s", status, detail)
}

// SafetyBlock reports a response refused by the provider's content filter.
func SafetyBlock(p domain.ProviderKind, reason string) *Failure {
	return NewFailure(domain.FailureSafetyBlock, p, nil,
		"Response blocked due to %s. Content may violate safety policies.", reason)
}

// EmptyResponse reports a response with no text.
func EmptyResponse(p domain.ProviderKind) *Failure {
	return NewFailure(domain.FailureEmptyResponse, p, nil,
		"Received an empty or blocked response from %s.", DisplayName(p))
}

// Composite joins a failure and the failure of its degraded retry.
func Composite(first, second *Failure) *Failure {
	return &Failure{
		Kind:     second.Kind,
		Provider: second.Provider,
		Message:  fmt.Sprintf("API provider failed. Details: %s. Fallback attempt also failed: %s", first.Message, second.Message),
		Err:      errors.Join(first, second),
	}
}

// AsFailure returns err as a *Failure, wrapping unknown errors as transport failures.
func AsFailure(p domain.ProviderKind, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return Transport(p, err)
}

// DisplayName returns the human-readable provider name.
func DisplayName(p domain.ProviderKind) string {
	switch p {
	case domain.ProviderClaude:
		return "Claude"
	case domain.ProviderOpenAI:
		return "OpenAI"
	case domain.ProviderGemini:
		return "Gemini"
	case domain.ProviderCompatible:
		return "OpenAI-compatible"
	}
	return string(p)
}

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. If retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// RetryAfter returns the rate-limit backoff carried by err, or 0.
func RetryAfter(err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}

// Truncate shortens s to at most maxLen runes, appending "..." when cut.
func Truncate(s string, maxLen int) string {
	return truncate(s, maxLen)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
