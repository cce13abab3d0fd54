package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/openai/openai-go/v3"

	"study-summarizer/internal/config"
	"study-summarizer/internal/llm"
	"study-summarizer/internal/logger"
	"study-summarizer/internal/metrics"
	"study-summarizer/internal/summarize"
)

// Deps bundles the runtime dependencies of the gateway.
type Deps struct {
	Config     config.Config
	Log        *slog.Logger
	Summarizer *summarize.Service
	Metrics    *metrics.Metrics
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	// A missing .env is fine; variables may come from the process environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load .env: %w", err)
	}
	// Load normalizes BACKEND_TIMEOUT so the router and the backend clients share one bound.
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	gen, err := buildGenerator(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize generation backend: %w", err)
	}
	return Deps{
		Config:     cfg,
		Log:        log,
		Summarizer: summarize.New(gen),
		Metrics:    metrics.New(),
	}, nil
}

func buildGenerator(cfg config.Config, log *slog.Logger) (llm.Generator, error) {
	switch cfg.BackendProvider {
	case "ollama":
		client, err := llm.NewOllamaClient(cfg.OllamaURL, config.Model, cfg.BackendTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Ollama client: %w", err)
		}
		log.Info("using Ollama backend", "endpoint", client.Endpoint(), "model", config.Model, "timeout", cfg.BackendTimeout.String())
		return client, nil
	case "openai":
		client, err := llm.NewOpenAIClient(cfg.OllamaURL, cfg.OpenAIKey, openai.ChatModel(config.Model), cfg.BackendTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI-compatible client: %w", err)
		}
		log.Info("using OpenAI-compatible backend", "url", cfg.OllamaURL, "model", config.Model, "timeout", cfg.BackendTimeout.String())
		return client, nil
	default:
		return nil, fmt.Errorf("invalid BACKEND_PROVIDER: %s (valid options: ollama, openai)", cfg.BackendProvider)
	}
}
