// Package llm builds the generation pipeline and its text-generation
// backend from configuration.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/wondercards-api/internal/config"
	"github.com/phrazzld/wondercards-api/internal/generation"
	"github.com/phrazzld/wondercards-api/internal/platform/gemini"
	"github.com/phrazzld/wondercards-api/internal/platform/openai"
)

// NewBackend returns the backend for cfg.Provider.
func NewBackend(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generation.Backend, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		b, err := openai.NewBackend(cfg.BaseURL, cfg.APIKey, cfg.ModelName, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai backend: %w", err)
		}
		return b, nil
	case config.ProviderGemini:
		b, err := gemini.NewBackend(ctx, cfg.GeminiAPIKey, cfg.ModelName, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini backend: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", generation.ErrConfiguration, cfg.Provider)
	}
}

// NewPipeline wires a pipeline around backend using the prompt template and
// retry settings from cfg.
func NewPipeline(cfg *config.Config, backend generation.Backend, logger *slog.Logger) (*generation.Pipeline, error) {
	prompts, err := generation.NewPromptBuilder(cfg.LLM.PromptTemplatePath)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return generation.NewPipeline(logger, backend, prompts, generation.Config{
		MaxRetries:     cfg.Generation.MaxRetries,
		RetryBaseDelay: cfg.Generation.RetryBaseDelay,
		AttemptTimeout: cfg.Generation.AttemptTimeout,
	})
}

// FromConfig builds the configured backend and the pipeline around it.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*generation.Pipeline, generation.Backend, error) {
	backend, err := NewBackend(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, nil, err
	}
	pipeline, err := NewPipeline(cfg, backend, logger)
	if err != nil {
		return nil, nil, err
	}
	return pipeline, backend, nil
}
