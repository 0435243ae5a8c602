package noop

import (
	"context"
	"log"

	"configllm/internal/domain"
	"configllm/internal/port"
)

type noopNotifier struct{}

// NewNoopNotifier creates a Notifier that only logs run summaries.
func NewNoopNotifier() port.Notifier {
	return noopNotifier{}
}

func (noopNotifier) NotifyRunFinished(_ context.Context, s *domain.RunSummary) error {
	log.Printf("[NOOP EMAIL] Run %s %s: %s", s.RunID, s.Status, s.Message)
	return nil
}
