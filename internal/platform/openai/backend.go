// Package openai provides a generation.Backend for OpenAI chat completions
// and any OpenAI-compatible host, such as a local Ollama server's /v1 API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/phrazzld/wondercards-api/internal/generation"
)

const finishReasonContentFilter = "content_filter"

// Backend implements generation.Backend with the openai-go SDK.
type Backend struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

var _ generation.Backend = (*Backend)(nil)

// NewBackend creates a chat-completions backend. baseURL may be empty to use
// the SDK default. SDK-level retries are disabled; the pipeline owns retries.
func NewBackend(baseURL, apiKey, model string, logger *slog.Logger) (*Backend, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrConfiguration)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key cannot be empty", generation.ErrConfiguration)
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Backend{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger.With(slog.String("component", "openai_backend"), slog.String("model", model)),
	}, nil
}

// Name implements generation.Backend.
func (b *Backend) Name() string { return "openai:" + b.model }

// Complete implements generation.Backend. The prompt is sent as a single
// user message and the first choice's content is returned.
func (b *Backend) Complete(ctx context.Context, prompt string) (string, error) {
	b.logger.DebugContext(ctx, "calling chat completions", slog.Int("prompt_length", len(prompt)))

	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return "", err
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: chat completions returned status %d: %w",
				generation.ErrBackend, apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("%w: chat completions: %w", generation.ErrBackend, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat completions returned no choices", generation.ErrEmptyResponse)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == finishReasonContentFilter {
		return "", fmt.Errorf("%w: response stopped by content filter", generation.ErrContentBlocked)
	}

	return choice.Message.Content, nil
}
