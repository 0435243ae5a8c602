package mocks

import (
	"github.com/stretchr/testify/mock"

	"configllm/internal/domain"
)

// MockSettingsSource is a mock implementation of port.SettingsSource.
type MockSettingsSource struct {
	mock.Mock
}

func (m *MockSettingsSource) Load() (*domain.Snapshot, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}
