package port

import (
	"context"

	"configllm/internal/domain"
)

// ProviderRequest is the composed input for one adapter call.
type ProviderRequest struct {
	SystemText string
	UserText   string
	Content    *domain.ContentDescriptor
	Settings   domain.Settings
}

// Provider sends one composed request to an LLM backend and returns the response text.
// Implementations return a *provider.Failure for every error.
type Provider interface {
	Kind() domain.ProviderKind
	Configured() bool
	Send(ctx context.Context, req ProviderRequest) (string, error)
}

// Fallbacker is implemented by providers that can retry a recoverable failure
// with a degraded payload.
type Fallbacker interface {
	Fallback(ctx context.Context, req ProviderRequest, cause error) (string, error)
}

// ProviderFactory builds a provider for an attempt's settings.
type ProviderFactory func(settings domain.Settings) (Provider, error)
