package port

import (
	"context"

	"configllm/internal/domain"
)

// AttemptRepository persists attempt results to a database.
type AttemptRepository interface {
	Create(ctx context.Context, result *domain.AttemptResult) error
	ListRecent(ctx context.Context, limit int) ([]domain.AttemptResult, error)
	ListByRun(ctx context.Context, runID string) ([]domain.AttemptResult, error)
}
