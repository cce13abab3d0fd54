package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Model is the generation model every backend call targets.
const Model = "gemma2:9b"

// DefaultBackendTimeout bounds a backend call when BACKEND_TIMEOUT is unset or unusable.
const DefaultBackendTimeout = 300 * time.Second

// Config holds runtime configuration read once at startup.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"` // 10MB in bytes

	// Generation backend
	BackendProvider string        `env:"BACKEND_PROVIDER" envDefault:"ollama"` // "ollama" (native API) or "openai" (OpenAI-compatible API)
	OllamaURL       string        `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OpenAIKey       string        `env:"OPENAI_API_KEY" envDefault:"ollama"`
	BackendTimeout  time.Duration `env:"BACKEND_TIMEOUT" envDefault:"300s"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg.Normalize()
}

// Normalize replaces unusable values with their defaults so every consumer of
// the config sees the same bounds.
func (c Config) Normalize() Config {
	if c.BackendTimeout <= 0 {
		c.BackendTimeout = DefaultBackendTimeout
	}
	return c
}
