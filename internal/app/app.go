// Package app assembles the run service and its sinks from configuration.
package app

import (
	"fmt"
	"log"
	"sync"

	"github.com/jmoiron/sqlx"

	"configllm/internal/audit"
	"configllm/internal/config"
	"configllm/internal/domain"
	"configllm/internal/email/noop"
	"configllm/internal/email/ses"
	"configllm/internal/library"
	"configllm/internal/pdftext"
	"configllm/internal/port"
	"configllm/internal/provider"
	"configllm/internal/provider/claude"
	"configllm/internal/provider/gemini"
	"configllm/internal/provider/openai"
	"configllm/internal/repository/sqlstore"
	"configllm/internal/service"
	s3storage "configllm/internal/storage/s3"
)

const pdfCacheSize = 32

// App holds the assembled components. DB and Attempts are nil when no
// attempt database is configured.
type App struct {
	Config   *config.Config
	Runs     *service.RunService
	Library  *library.Library
	Logger   *audit.Logger
	DB       *sqlx.DB
	Attempts port.AttemptRepository
}

var registerOnce sync.Once

// RegisterProviders installs every provider adapter into the registry.
func RegisterProviders(extractor port.PDFTextExtractor) {
	provider.RegisterProvider(domain.ProviderClaude, claude.New)
	provider.RegisterProvider(domain.ProviderOpenAI, openai.Factory(extractor))
	provider.RegisterProvider(domain.ProviderGemini, gemini.Factory(extractor))
	provider.RegisterProvider(domain.ProviderCompatible, openai.CompatibleFactory(extractor))
}

// New builds the application from cfg. configPath is re-read before every
// attempt so settings edits apply mid-run.
func New(cfg *config.Config, configPath string) (*App, error) {
	registerOnce.Do(func() {
		RegisterProviders(pdftext.NewCachingExtractor(pdftext.NewExtractor(), pdfCacheSize))
	})

	a := &App{Config: cfg, Library: library.New(cfg.Paths.FilesDir)}

	if cfg.DB.Enabled() {
		if err := sqlstore.Migrate(&cfg.DB); err != nil {
			return nil, fmt.Errorf("migrating attempt database: %w", err)
		}
		db, err := sqlstore.NewDB(&cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = db
		a.Attempts = sqlstore.NewAttemptRepo(db)
	}

	opts := audit.Options{OutputDir: cfg.Paths.OutputDir, Repo: a.Attempts}
	if cfg.S3.Enabled() {
		store, err := s3storage.NewArtifactStore(&cfg.S3)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		opts.Storage = store
		opts.Bucket = cfg.S3.Bucket
		opts.Prefix = cfg.S3.Prefix
	}
	a.Logger = audit.NewLogger(opts)

	notifier, err := NewNotifier(&cfg.Email)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Runs = service.NewRunService(service.RunServiceConfig{
		Source:     config.NewFileSource(configPath),
		Dispatcher: provider.NewCoordinator(provider.NewProvider),
		Recorder:   a.Logger,
		Files:      a.Library,
		Notifier:   notifier,
		OutputDir:  cfg.Paths.OutputDir,
	})
	return a, nil
}

// NewNotifier selects the run-completion notifier. SES without a recipient
// falls back to the log-only notifier.
func NewNotifier(cfg *config.EmailConfig) (port.Notifier, error) {
	switch cfg.Provider {
	case "ses":
		if cfg.ToAddress == "" {
			log.Printf("app.NewNotifier: email.to_address is empty, using noop notifier")
			return noop.NewNoopNotifier(), nil
		}
		n, err := ses.NewSESNotifier(cfg.Region, cfg.FromAddress, cfg.FromName, cfg.ToAddress)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SES notifier: %w", err)
		}
		return n, nil
	case "", "noop":
		return noop.NewNoopNotifier(), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// Close releases the database connection, if any.
func (a *App) Close() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Printf("app.App.Close: closing database: %v", err)
		}
	}
}
