package config

import (
	"configllm/internal/domain"
)

// FileSource re-reads configuration on every Load so edits made between
// attempts take effect without restarting a run.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for the config file at path (see Load).
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load implements port.SettingsSource.
func (s *FileSource) Load() (*domain.Snapshot, error) {
	cfg, err := Load(s.path)
	if err != nil {
		return nil, err
	}
	return cfg.Snapshot(), nil
}

// Snapshot extracts the per-attempt settings, prompt and message.
func (c *Config) Snapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Settings:        c.API.Settings(),
		SystemPrompt:    c.Prompts.SystemPrompt,
		MessageTemplate: c.Prompts.UserMessage,
	}
}
