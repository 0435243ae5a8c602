package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"configllm/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	API        APIConfig
	Prompts    PromptsConfig
	Processing ProcessingConfig
	Paths      PathsConfig
	Server     ServerConfig
	Auth       AuthConfig
	DB         DBConfig
	S3         S3Config
	Email      EmailConfig
}

// APIConfig holds the active LLM provider settings.
type APIConfig struct {
	Type             string  `mapstructure:"type"`
	APIKey           string  `mapstructure:"api_key"`
	APIBase          string  `mapstructure:"api_base"`
	Model            string  `mapstructure:"model"`
	Temperature      float64 `mapstructure:"temperature"`
	ReasoningEnabled bool    `mapstructure:"reasoning_enabled"`
	ReasoningLevel   string  `mapstructure:"reasoning_level"`
	TimeoutSecs      int     `mapstructure:"timeout_secs"`
	CivicIntegrity   bool    `mapstructure:"gemini_civic_integrity"`
}

// Settings converts the API section into the domain settings record.
// Temperature is clamped to [0,1].
func (a *APIConfig) Settings() domain.Settings {
	temp := a.Temperature
	if temp < 0 || temp > 1 {
		clamped := min(max(temp, 0), 1)
		log.Printf("config.APIConfig.Settings: temperature %.2f out of range, using %.2f", temp, clamped)
		temp = clamped
	}
	return domain.Settings{
		Provider:         domain.ProviderKind(a.Type),
		APIKey:           a.APIKey,
		BaseURL:          a.APIBase,
		Model:            a.Model,
		Temperature:      temp,
		ReasoningEnabled: a.ReasoningEnabled,
		ReasoningLevel:   domain.ReasoningLevel(strings.ToLower(a.ReasoningLevel)),
		TimeoutSecs:      a.TimeoutSecs,
		CivicIntegrity:   a.CivicIntegrity,
	}
}

// PromptsConfig holds the system prompt and user message template.
type PromptsConfig struct {
	SystemPrompt string `mapstructure:"system_prompt"`
	UserMessage  string `mapstructure:"user_message"`
}

// ProcessingConfig holds run parameters.
type ProcessingConfig struct {
	NumIterations int     `mapstructure:"num_iterations"`
	DelaySeconds  float64 `mapstructure:"delay_seconds"`
}

// Delay returns the inter-step delay as a duration.
func (p *ProcessingConfig) Delay() time.Duration {
	return time.Duration(p.DelaySeconds * float64(time.Second))
}

// PathsConfig holds the output and input directories.
type PathsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	FilesDir  string `mapstructure:"files_dir"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// AuthConfig holds JWT signing settings for the control API.
type AuthConfig struct {
	Secret      string        `mapstructure:"secret"`
	Issuer      string        `mapstructure:"issuer"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

// DBConfig holds the optional attempt database settings.
type DBConfig struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	MaxOpen int    `mapstructure:"max_open"`
	MaxIdle int    `mapstructure:"max_idle"`
}

// Enabled reports whether an attempt database is configured.
func (d *DBConfig) Enabled() bool {
	return d.Driver != ""
}

// S3Config holds the optional artifact mirror settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// Enabled reports whether artifacts should be mirrored to S3.
func (s *S3Config) Enabled() bool {
	return s.Bucket != ""
}

// EmailConfig holds run-completion notification settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	ToAddress   string `mapstructure:"to_address"`
}

// envBindings maps nested keys to their environment variables.
var envBindings = map[string]string{
	"api.type":                   "CONFIGLLM_API_TYPE",
	"api.api_key":                "CONFIGLLM_API_API_KEY",
	"api.api_base":               "CONFIGLLM_API_API_BASE",
	"api.model":                  "CONFIGLLM_API_MODEL",
	"api.temperature":            "CONFIGLLM_API_TEMPERATURE",
	"api.reasoning_enabled":      "CONFIGLLM_API_REASONING_ENABLED",
	"api.reasoning_level":        "CONFIGLLM_API_REASONING_LEVEL",
	"api.timeout_secs":           "CONFIGLLM_API_TIMEOUT_SECS",
	"api.gemini_civic_integrity": "CONFIGLLM_API_GEMINI_CIVIC_INTEGRITY",
	"prompts.system_prompt":      "CONFIGLLM_PROMPTS_SYSTEM_PROMPT",
	"message.user_message":       "CONFIGLLM_MESSAGE_USER_MESSAGE",
	"processing.num_iterations":  "CONFIGLLM_PROCESSING_NUM_ITERATIONS",
	"processing.delay_seconds":   "CONFIGLLM_PROCESSING_DELAY_SECONDS",
	"paths.output_dir":           "CONFIGLLM_PATHS_OUTPUT_DIR",
	"paths.files_dir":            "CONFIGLLM_PATHS_FILES_DIR",
	"server.port":                "CONFIGLLM_SERVER_PORT",
	"server.read_timeout":        "CONFIGLLM_SERVER_READ_TIMEOUT",
	"server.write_timeout":       "CONFIGLLM_SERVER_WRITE_TIMEOUT",
	"server.environment":         "CONFIGLLM_SERVER_ENVIRONMENT",
	"server.allowed_origins":     "CONFIGLLM_SERVER_ALLOWED_ORIGINS",
	"auth.secret":                "CONFIGLLM_AUTH_SECRET",
	"auth.issuer":                "CONFIGLLM_AUTH_ISSUER",
	"auth.token_expiry":          "CONFIGLLM_AUTH_TOKEN_EXPIRY",
	"db.driver":                  "CONFIGLLM_DB_DRIVER",
	"db.dsn":                     "CONFIGLLM_DB_DSN",
	"db.max_open":                "CONFIGLLM_DB_MAX_OPEN",
	"db.max_idle":                "CONFIGLLM_DB_MAX_IDLE",
	"s3.region":                  "CONFIGLLM_S3_REGION",
	"s3.bucket":                  "CONFIGLLM_S3_BUCKET",
	"s3.endpoint":                "CONFIGLLM_S3_ENDPOINT",
	"s3.access_key":              "CONFIGLLM_S3_ACCESS_KEY",
	"s3.secret_key":              "CONFIGLLM_S3_SECRET_KEY",
	"s3.prefix":                  "CONFIGLLM_S3_PREFIX",
	"email.provider":             "CONFIGLLM_EMAIL_PROVIDER",
	"email.region":               "CONFIGLLM_EMAIL_REGION",
	"email.from_address":         "CONFIGLLM_EMAIL_FROM_ADDRESS",
	"email.from_name":            "CONFIGLLM_EMAIL_FROM_NAME",
	"email.to_address":           "CONFIGLLM_EMAIL_TO_ADDRESS",
}

// DefaultConfigFile returns ~/.configllm/config.yaml, or "" if the home directory is unknown.
func DefaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".configllm", "config.yaml")
}

func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ConfigurationalLLM"
	}
	return filepath.Join(home, "Documents", "ConfigurationalLLM")
}

// Load reads configuration from environment variables with the CONFIGLLM_ prefix,
// layered over the config file at path. An empty path falls back to
// CONFIGLLM_CONFIG_FILE and then DefaultConfigFile; a missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CONFIGLLM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// API defaults
	v.SetDefault("api.type", string(domain.ProviderClaude))
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.api_base", "")
	v.SetDefault("api.model", "")
	v.SetDefault("api.temperature", 0.7)
	v.SetDefault("api.reasoning_enabled", true)
	v.SetDefault("api.reasoning_level", string(domain.ReasoningMedium))
	v.SetDefault("api.timeout_secs", 180)
	v.SetDefault("api.gemini_civic_integrity", false)

	// Prompt defaults
	v.SetDefault("prompts.system_prompt", "You are a helpful assistant. Analyze the provided content carefully.")
	v.SetDefault("message.user_message", "Please analyze the file {filename}.")

	// Processing defaults
	v.SetDefault("processing.num_iterations", 1)
	v.SetDefault("processing.delay_seconds", 0)

	// Path defaults
	v.SetDefault("paths.output_dir", defaultOutputDir())
	v.SetDefault("paths.files_dir", "")

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})

	// Auth defaults
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "configllm")
	v.SetDefault("auth.token_expiry", "24h")

	// DB defaults (disabled)
	v.SetDefault("db.driver", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)

	// S3 defaults (disabled)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.prefix", "configllm")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "noreply@configllm.local")
	v.SetDefault("email.from_name", "ConfigurationalLLM")
	v.SetDefault("email.to_address", "")

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIGLLM_CONFIG_FILE")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultConfigFile()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil || explicit {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// "message.user_message" lives outside the prompts group in config files.
	cfg.Prompts.UserMessage = v.GetString("message.user_message")

	if cfg.Paths.FilesDir == "" {
		cfg.Paths.FilesDir = filepath.Join(cfg.Paths.OutputDir, "files")
	}
	if cfg.Processing.NumIterations < 1 {
		cfg.Processing.NumIterations = 1
	}
	if cfg.Processing.DelaySeconds < 0 {
		cfg.Processing.DelaySeconds = 0
	}

	// Hosting platforms set PORT. Use it if CONFIGLLM_SERVER_PORT is not explicitly set.
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CONFIGLLM_SERVER_PORT") == "" {
		cfg.Server.Port = ":" + port
	}

	return cfg, nil
}
