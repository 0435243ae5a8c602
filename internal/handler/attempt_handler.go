package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"configllm/internal/domain"
	"configllm/internal/port"
)

const (
	defaultAttemptLimit = 50
	maxAttemptLimit     = 500
)

// AttemptHandler serves attempt history from the database sink.
type AttemptHandler struct {
	repo port.AttemptRepository
}

// NewAttemptHandler creates a new AttemptHandler. repo may be nil when no
// database is configured.
func NewAttemptHandler(repo port.AttemptRepository) *AttemptHandler {
	return &AttemptHandler{repo: repo}
}

// List handles GET /api/v1/attempts?run_id=&limit=
func (h *AttemptHandler) List(c *gin.Context) {
	if h.repo == nil {
		HandleError(c, domain.ErrSinkDisabled)
		return
	}

	var (
		results []domain.AttemptResult
		err     error
	)
	if runID := c.Query("run_id"); runID != "" {
		results, err = h.repo.ListByRun(c.Request.Context(), runID)
	} else {
		limit := defaultAttemptLimit
		if raw := c.Query("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 1 {
				RespondError(c, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
				return
			}
			limit = min(limit, maxAttemptLimit)
		}
		results, err = h.repo.ListRecent(c.Request.Context(), limit)
	}
	if err != nil {
		HandleError(c, err)
		return
	}
	if results == nil {
		results = []domain.AttemptResult{}
	}
	RespondOK(c, results)
}
