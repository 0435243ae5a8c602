package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"configllm/internal/domain"
	"configllm/internal/port"
)

// createdAtLayout is fixed-width so created_at sorts as text in every backend.
const createdAtLayout = "2006-01-02T15:04:05.000000Z"

type attemptRow struct {
	ID              string `db:"id"`
	RunID           string `db:"run_id"`
	FilePath        string `db:"file_path"`
	FileName        string `db:"file_name"`
	ContentHash     string `db:"content_hash"`
	Iteration       int    `db:"iteration"`
	TotalIterations int    `db:"total_iterations"`
	Provider        string `db:"provider"`
	ModelID         string `db:"model_id"`
	ResultText      string `db:"result_text"`
	Succeeded       bool   `db:"succeeded"`
	FailureKind     string `db:"failure_kind"`
	ErrorMessage    string `db:"error_message"`
	OutputFilePath  string `db:"output_file_path"`
	CreatedAt       string `db:"created_at"`
}

func toRow(r *domain.AttemptResult) attemptRow {
	return attemptRow{
		ID:              r.ID,
		RunID:           r.RunID,
		FilePath:        r.WorkItem.FilePath,
		FileName:        r.WorkItem.FileName,
		ContentHash:     r.WorkItem.ContentHash,
		Iteration:       r.WorkItem.Iteration,
		TotalIterations: r.WorkItem.TotalIterations,
		Provider:        string(r.Provider),
		ModelID:         r.ModelID,
		ResultText:      r.ResultText,
		Succeeded:       r.Succeeded,
		FailureKind:     string(r.FailureKind),
		ErrorMessage:    r.ErrorMessage,
		OutputFilePath:  r.OutputFilePath,
		CreatedAt:       r.Timestamp.UTC().Format(createdAtLayout),
	}
}

func (row *attemptRow) toDomain() domain.AttemptResult {
	ts, _ := time.Parse(createdAtLayout, row.CreatedAt)
	return domain.AttemptResult{
		ID:    row.ID,
		RunID: row.RunID,
		WorkItem: domain.WorkItem{
			FilePath:        row.FilePath,
			FileName:        row.FileName,
			ContentHash:     row.ContentHash,
			Iteration:       row.Iteration,
			TotalIterations: row.TotalIterations,
		},
		Provider:       domain.ProviderKind(row.Provider),
		ModelID:        row.ModelID,
		ResultText:     row.ResultText,
		Succeeded:      row.Succeeded,
		FailureKind:    domain.FailureKind(row.FailureKind),
		ErrorMessage:   row.ErrorMessage,
		OutputFilePath: row.OutputFilePath,
		Timestamp:      ts,
	}
}

type attemptRepo struct {
	db *sqlx.DB
}

// NewAttemptRepo creates a sqlx-backed AttemptRepository. Queries are written
// with ? placeholders and rebound for the connection's driver.
func NewAttemptRepo(db *sqlx.DB) port.AttemptRepository {
	return &attemptRepo{db: db}
}

func (r *attemptRepo) Create(ctx context.Context, result *domain.AttemptResult) error {
	query := r.db.Rebind(`INSERT INTO attempts
		(id, run_id, file_path, file_name, content_hash, iteration, total_iterations,
		 provider, model_id, result_text, succeeded, failure_kind, error_message,
		 output_file_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	row := toRow(result)
	_, err := r.db.ExecContext(ctx, query,
		row.ID, row.RunID, row.FilePath, row.FileName, row.ContentHash, row.Iteration,
		row.TotalIterations, row.Provider, row.ModelID, row.ResultText, row.Succeeded,
		row.FailureKind, row.ErrorMessage, row.OutputFilePath, row.CreatedAt)
	if err != nil {
		return fmt.Errorf("attemptRepo.Create: %w", err)
	}
	return nil
}

func (r *attemptRepo) ListRecent(ctx context.Context, limit int) ([]domain.AttemptResult, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []attemptRow
	err := r.db.SelectContext(ctx, &rows,
		r.db.Rebind("SELECT * FROM attempts ORDER BY created_at DESC, iteration DESC LIMIT ?"), limit)
	if err != nil {
		return nil, fmt.Errorf("attemptRepo.ListRecent: %w", err)
	}
	return toDomainList(rows), nil
}

func (r *attemptRepo) ListByRun(ctx context.Context, runID string) ([]domain.AttemptResult, error) {
	var rows []attemptRow
	err := r.db.SelectContext(ctx, &rows,
		r.db.Rebind("SELECT * FROM attempts WHERE run_id = ? ORDER BY created_at ASC, iteration ASC"), runID)
	if err != nil {
		return nil, fmt.Errorf("attemptRepo.ListByRun: %w", err)
	}
	return toDomainList(rows), nil
}

func toDomainList(rows []attemptRow) []domain.AttemptResult {
	out := make([]domain.AttemptResult, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out
}
