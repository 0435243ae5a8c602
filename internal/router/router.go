package router

import (
	"github.com/gin-gonic/gin"

	"configllm/internal/handler"
	"configllm/internal/middleware"
)

// Handlers groups the API handlers mounted by Setup.
type Handlers struct {
	Health   *handler.HealthHandler
	Runs     *handler.RunHandler
	Files    *handler.FileHandler
	Attempts *handler.AttemptHandler
	Tables   *handler.TableHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(validator middleware.TokenValidator, origins []string, h Handlers) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(origins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(validator))

	runs := v1.Group("/runs")
	runs.POST("", h.Runs.Start)
	runs.GET("/current", h.Runs.Current)
	runs.POST("/current/cancel", h.Runs.Cancel)
	runs.GET("/events", h.Runs.Events)

	files := v1.Group("/files")
	files.GET("", h.Files.List)
	files.POST("", h.Files.Upload)
	files.DELETE("", h.Files.DeleteAll)
	files.DELETE("/:name", h.Files.Delete)

	v1.GET("/attempts", h.Attempts.List)

	v1.GET("/tables", h.Tables.Get)
	v1.GET("/tables/export", h.Tables.Export)

	return r
}
