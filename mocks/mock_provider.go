package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"configllm/internal/domain"
	"configllm/internal/port"
)

// MockProvider is a mock implementation of port.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Kind() domain.ProviderKind {
	args := m.Called()
	return args.Get(0).(domain.ProviderKind)
}

func (m *MockProvider) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockProvider) Send(ctx context.Context, req port.ProviderRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// MockFallbackProvider is a MockProvider that also implements port.Fallbacker.
type MockFallbackProvider struct {
	MockProvider
}

func (m *MockFallbackProvider) Fallback(ctx context.Context, req port.ProviderRequest, cause error) (string, error) {
	args := m.Called(ctx, req, cause)
	return args.String(0), args.Error(1)
}
