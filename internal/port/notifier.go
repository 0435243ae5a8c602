package port

import (
	"context"

	"configllm/internal/domain"
)

// Notifier delivers a run summary once a run ends.
type Notifier interface {
	NotifyRunFinished(ctx context.Context, summary *domain.RunSummary) error
}
