package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"configllm/internal/service"
)

// MockRunController is a mock implementation of handler.RunController.
type MockRunController struct {
	mock.Mock
}

func (m *MockRunController) Start(ctx context.Context, req service.RunRequest, onProgress service.ProgressFunc, onDone service.DoneFunc) (string, error) {
	args := m.Called(ctx, req, onProgress, onDone)
	return args.String(0), args.Error(1)
}

func (m *MockRunController) Cancel() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRunController) Status() service.RunState {
	args := m.Called()
	return args.Get(0).(service.RunState)
}

func (m *MockRunController) Subscribe() (<-chan service.Event, func()) {
	args := m.Called()
	return args.Get(0).(<-chan service.Event), args.Get(1).(func())
}
