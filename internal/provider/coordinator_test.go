package provider_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"configllm/internal/domain"
	"configllm/internal/port"
	"configllm/internal/provider"
	"configllm/mocks"
)

func testRequest(kind domain.ProviderKind) port.ProviderRequest {
	return port.ProviderRequest{
		SystemText: "system",
		UserText:   "message",
		Content:    &domain.ContentDescriptor{Kind: domain.ContentText, Text: "hello", SourcePath: "/tmp/a.txt"},
		Settings:   domain.Settings{Provider: kind, APIKey: "k"},
	}
}

func TestCoordinator_NotConfigured_NoNetworkCall(t *testing.T) {
	p := new(mocks.MockFallbackProvider)
	p.On("Kind").Return(domain.ProviderGemini)
	p.On("Configured").Return(false)

	res := provider.NewCoordinator(nil).Invoke(context.Background(), p, testRequest(domain.ProviderGemini))

	assert.False(t, res.Succeeded())
	assert.Equal(t, domain.FailureConfiguration, res.Failure.Kind)
	assert.Equal(t, "Error: API client for 'gemini' not initialized. Check API key and settings.", res.Text)
	p.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	p.AssertNotCalled(t, "Fallback", mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_Success(t *testing.T) {
	req := testRequest(domain.ProviderClaude)
	p := new(mocks.MockFallbackProvider)
	p.On("Kind").Return(domain.ProviderClaude)
	p.On("Configured").Return(true)
	p.On("Send", mock.Anything, req).Return("analysis", nil)

	res := provider.NewCoordinator(nil).Invoke(context.Background(), p, req)

	assert.True(t, res.Succeeded())
	assert.Equal(t, "analysis", res.Text)
	assert.False(t, res.Degraded)
	p.AssertNotCalled(t, "Fallback", mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_RecoverableUsesFallback(t *testing.T) {
	req := testRequest(domain.ProviderCompatible)
	first := provider.Transport(domain.ProviderCompatible, errors.New("bad payload"))
	p := new(mocks.MockFallbackProvider)
	p.On("Kind").Return(domain.ProviderCompatible)
	p.On("Configured").Return(true)
	p.On("Send", mock.Anything, req).Return("", first)
	p.On("Fallback", mock.Anything, req, first).Return("text-only answer", nil)

	res := provider.NewCoordinator(nil).Invoke(context.Background(), p, req)

	assert.True(t, res.Succeeded())
	assert.True(t, res.Degraded)
	assert.Equal(t, "text-only answer", res.Text)
	p.AssertExpectations(t)
}

func TestCoordinator_FallbackAlsoFails(t *testing.T) {
	req := testRequest(domain.ProviderClaude)
	p := new(mocks.MockFallbackProvider)
	p.On("Kind").Return(domain.ProviderClaude)
	p.On("Configured").Return(true)
	p.On("Send", mock.Anything, req).Return("", provider.Transport(domain.ProviderClaude, errors.New("sdk exploded")))
	p.On("Fallback", mock.Anything, req, mock.Anything).Return("", provider.HTTPStatus(domain.ProviderClaude, 500, "server error", ""))

	res := provider.NewCoordinator(nil).Invoke(context.Background(), p, req)

	assert.False(t, res.Succeeded())
	assert.True(t, strings.HasPrefix(res.Text, "Error:"))
	assert.Contains(t, res.Text, "sdk exploded")
	assert.Contains(t, res.Text, "500")
}

func TestCoordinator_NonRecoverableSkipsFallback(t *testing.T) {
	req := testRequest(domain.ProviderGemini)
	p := new(mocks.MockFallbackProvider)
	p.On("Kind").Return(domain.ProviderGemini)
	p.On("Configured").Return(true)
	p.On("Send", mock.Anything, req).Return("", provider.SafetyBlock(domain.ProviderGemini, "SAFETY"))

	res := provider.NewCoordinator(nil).Invoke(context.Background(), p, req)

	assert.Equal(t, domain.FailureSafetyBlock, res.Failure.Kind)
	assert.Contains(t, res.Text, "Response blocked due to SAFETY")
	p.AssertNotCalled(t, "Fallback", mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_NoFallbackPropagatesOriginal(t *testing.T) {
	req := testRequest(domain.ProviderOpenAI)
	first := provider.HTTPStatus(domain.ProviderOpenAI, 400, "bad image", "")
	p := new(mocks.MockFallbackProvider)
	p.On("Kind").Return(domain.ProviderOpenAI)
	p.On("Configured").Return(true)
	p.On("Send", mock.Anything, req).Return("", first)
	p.On("Fallback", mock.Anything, req, first).Return("", provider.ErrNoFallback)

	res := provider.NewCoordinator(nil).Invoke(context.Background(), p, req)

	assert.Same(t, first, res.Failure)
	assert.Equal(t, "Error: API returned status 400: bad image", res.Text)
}

func TestCoordinator_PlainProviderWithoutFallbacker(t *testing.T) {
	req := testRequest(domain.ProviderOpenAI)
	p := new(mocks.MockProvider)
	p.On("Kind").Return(domain.ProviderOpenAI)
	p.On("Configured").Return(true)
	p.On("Send", mock.Anything, req).Return("", errors.New("raw error"))

	res := provider.NewCoordinator(nil).Invoke(context.Background(), p, req)

	assert.Equal(t, domain.FailureTransport, res.Failure.Kind)
	assert.Equal(t, "Error: calling OpenAI API: raw error", res.Text)
}

func TestCoordinator_RecoversAdapterPanic(t *testing.T) {
	req := testRequest(domain.ProviderClaude)
	p := new(mocks.MockProvider)
	p.On("Kind").Return(domain.ProviderClaude)
	p.On("Configured").Return(true)
	p.On("Send", mock.Anything, req).Run(func(mock.Arguments) { panic("nil map") }).Return("", nil)

	res := provider.NewCoordinator(nil).Invoke(context.Background(), p, req)

	assert.Equal(t, domain.FailureInternal, res.Failure.Kind)
	assert.True(t, strings.HasPrefix(res.Text, "Error:"))
}

func TestCoordinator_DispatchUnknownProvider(t *testing.T) {
	res := provider.NewCoordinator(nil).Dispatch(context.Background(), testRequest("mystery"))

	assert.Equal(t, domain.FailureConfiguration, res.Failure.Kind)
	assert.Equal(t, "Error: unsupported API type 'mystery'.", res.Text)
}

func TestCoordinator_DispatchUsesFactorySettings(t *testing.T) {
	req := testRequest(domain.ProviderGemini)
	p := new(mocks.MockProvider)
	p.On("Kind").Return(domain.ProviderGemini)
	p.On("Configured").Return(true)
	p.On("Send", mock.Anything, req).Return("ok", nil)

	var got domain.Settings
	factory := func(s domain.Settings) (port.Provider, error) {
		got = s
		return p, nil
	}

	res := provider.NewCoordinator(factory).Dispatch(context.Background(), req)

	assert.True(t, res.Succeeded())
	assert.Equal(t, req.Settings, got)
}
