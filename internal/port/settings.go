package port

import "configllm/internal/domain"

// SettingsSource yields a fresh configuration snapshot on every call.
type SettingsSource interface {
	Load() (*domain.Snapshot, error)
}
