package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"configllm/internal/domain"
	"configllm/internal/handler"
	"configllm/mocks"
)

func attemptRouter(h *handler.AttemptHandler) *gin.Engine {
	r := gin.New()
	r.GET("/attempts", h.List)
	return r
}

func TestAttemptHandler_SinkDisabled(t *testing.T) {
	w := serve(attemptRouter(handler.NewAttemptHandler(nil)), http.MethodGet, "/attempts")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "SINK_DISABLED", decode(t, w).Error.Code)
}

func TestAttemptHandler_ListRecent(t *testing.T) {
	repo := new(mocks.MockAttemptRepo)
	repo.On("ListRecent", mock.Anything, 50).Return([]domain.AttemptResult{{ID: "a1", Succeeded: true}}, nil).Once()
	repo.On("ListRecent", mock.Anything, 500).Return(nil, nil).Once()
	r := attemptRouter(handler.NewAttemptHandler(repo))

	w := serve(r, http.MethodGet, "/attempts")
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w).Data.([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "a1", items[0].(map[string]interface{})["id"])

	w = serve(r, http.MethodGet, "/attempts?limit=9999")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decode(t, w).Data)

	repo.AssertExpectations(t)
}

func TestAttemptHandler_ListByRun(t *testing.T) {
	repo := new(mocks.MockAttemptRepo)
	repo.On("ListByRun", mock.Anything, "run-7").Return([]domain.AttemptResult{{ID: "x", RunID: "run-7"}}, nil)

	w := serve(attemptRouter(handler.NewAttemptHandler(repo)), http.MethodGet, "/attempts?run_id=run-7")

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestAttemptHandler_BadLimit(t *testing.T) {
	repo := new(mocks.MockAttemptRepo)
	w := serve(attemptRouter(handler.NewAttemptHandler(repo)), http.MethodGet, "/attempts?limit=zero")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "ListRecent", mock.Anything, mock.Anything)
}

func TestAttemptHandler_RepoError(t *testing.T) {
	repo := new(mocks.MockAttemptRepo)
	repo.On("ListRecent", mock.Anything, 50).Return(nil, errors.New("db down"))

	w := serve(attemptRouter(handler.NewAttemptHandler(repo)), http.MethodGet, "/attempts")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode(t, w).Error.Code)
}
