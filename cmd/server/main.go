package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"configllm/internal/app"
	"configllm/internal/auth"
	"configllm/internal/config"
	"configllm/internal/handler"
	"configllm/internal/router"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authority, err := auth.NewAuthority(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}

	a, err := app.New(cfg, "")
	if err != nil {
		return err
	}
	defer a.Close()

	var pinger handler.Pinger
	if a.DB != nil {
		pinger = a.DB
	}

	r := router.Setup(authority, cfg.Server.AllowedOrigins, router.Handlers{
		Health:   handler.NewHealthHandler(pinger),
		Runs:     handler.NewRunHandler(a.Runs, cfg.Paths.FilesDir, cfg.Processing),
		Files:    handler.NewFileHandler(a.Library),
		Attempts: handler.NewAttemptHandler(a.Attempts),
		Tables:   handler.NewTableHandler(a.Logger.TranscriptPath(), a.Logger.SummaryPath()),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down server")
	if err := a.Runs.Cancel(); err == nil {
		log.Printf("Cancelled active run")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
