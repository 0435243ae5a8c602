package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"configllm/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondAccepted sends a 202 success response.
func RespondAccepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrRunActive):
		return http.StatusConflict, "RUN_ACTIVE", domain.ErrRunActive.Error()
	case errors.Is(err, domain.ErrNoActiveRun):
		return http.StatusConflict, "NO_ACTIVE_RUN", domain.ErrNoActiveRun.Error()
	case errors.Is(err, domain.ErrNoFiles):
		return http.StatusBadRequest, "NO_FILES", domain.ErrNoFiles.Error()
	case errors.Is(err, domain.ErrInvalidIterations):
		return http.StatusBadRequest, "INVALID_ITERATIONS", domain.ErrInvalidIterations.Error()
	case errors.Is(err, domain.ErrInvalidDelay):
		return http.StatusBadRequest, "INVALID_DELAY", domain.ErrInvalidDelay.Error()
	case errors.Is(err, domain.ErrInvalidFormat):
		return http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx"
	case errors.Is(err, domain.ErrFileExists):
		return http.StatusConflict, "FILE_EXISTS", domain.ErrFileExists.Error()
	case errors.Is(err, domain.ErrSinkDisabled):
		return http.StatusServiceUnavailable, "SINK_DISABLED", domain.ErrSinkDisabled.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log.Printf("[%s] internal error: %v", c.GetString("request_id"), err)
	}
	RespondError(c, status, code, msg)
}
