package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"configllm/internal/domain"
)

// MockAttemptRepo is a mock implementation of port.AttemptRepository.
type MockAttemptRepo struct {
	mock.Mock
}

func (m *MockAttemptRepo) Create(ctx context.Context, result *domain.AttemptResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockAttemptRepo) ListRecent(ctx context.Context, limit int) ([]domain.AttemptResult, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttemptResult), args.Error(1)
}

func (m *MockAttemptRepo) ListByRun(ctx context.Context, runID string) ([]domain.AttemptResult, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttemptResult), args.Error(1)
}
