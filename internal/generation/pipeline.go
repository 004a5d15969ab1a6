package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/phrazzld/wondercards-api/internal/redact"
)

// Source records which path produced a Result's cards.
type Source string

// Result sources, from best to worst.
const (
	SourceModel    Source = "model"
	SourceRepaired Source = "repaired"
	SourceSalvaged Source = "salvaged"
	SourceFallback Source = "fallback"
)

// snippetLength bounds raw model output quoted in failure logs.
const snippetLength = 200

// Result is the outcome of a generation request. It always holds cards.
type Result struct {
	Cards       []domain.Card
	Source      Source
	Attempts    int
	TargetCount int
}

// IsFallback reports whether the cards are placeholders.
func (r *Result) IsFallback() bool {
	return r.Source == SourceFallback
}

// Config holds the pipeline's retry and timeout settings.
type Config struct {
	MaxRetries     int
	RetryBaseDelay time.Duration
	AttemptTimeout time.Duration
}

// DefaultConfig returns two retries, a 1s doubling delay and a 60s attempt timeout.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     DefaultMaxRetries,
		RetryBaseDelay: DefaultRetryBaseDelay,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// Pipeline orchestrates one generation request: Building, Invoking,
// Sanitizing, Parsing (direct, repair, salvage) and Validating, retrying
// failed attempts and falling back to placeholder cards at the end. It has
// no mutable state and may serve concurrent requests.
type Pipeline struct {
	logger    *slog.Logger
	prompts   *PromptBuilder
	invoker   *Invoker
	validator *CardValidator
	retry     RetryPolicy
}

// NewPipeline wires a pipeline around backend.
func NewPipeline(logger *slog.Logger, backend Backend, prompts *PromptBuilder, cfg Config) (*Pipeline, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrConfiguration)
	}
	if prompts == nil {
		return nil, fmt.Errorf("%w: prompt builder cannot be nil", ErrConfiguration)
	}

	logger = logger.With("component", "generation_pipeline")

	invoker, err := NewInvoker(backend, cfg.AttemptTimeout, logger)
	if err != nil {
		return nil, err
	}

	validator, err := NewCardValidator()
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		logger:    logger,
		prompts:   prompts,
		invoker:   invoker,
		validator: validator,
		retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
		}.normalize(),
	}, nil
}

// attemptError carries the raw reply alongside an attempt failure so the
// failure log can quote it.
type attemptError struct {
	err error
	raw string
}

func (e *attemptError) Error() string { return e.err.Error() }
func (e *attemptError) Unwrap() error { return e.err }

// GenerateCards produces cards for req. The only error it returns is
// ErrConfiguration, raised before any backend call when req is invalid.
// Every other failure is retried and, once retries are exhausted or ctx is
// done, answered with FallbackCards.
func (p *Pipeline) GenerateCards(ctx context.Context, req domain.GenerationRequest) (*Result, error) {
	// Building
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	prompt, err := p.prompts.Build(req)
	if err != nil {
		return nil, err
	}

	log := p.logger.With(
		"topic", req.Topic,
		"age_group", string(req.AgeGroup),
		"course_length", string(req.CourseLength),
		"backend", p.invoker.BackendName())
	log.InfoContext(ctx, "generating cards",
		"target_count", prompt.TargetCount,
		"max_attempts", p.retry.MaxAttempts())

	var result *Result
	attempts, err := p.retry.Run(ctx,
		func(attempt int) error {
			start := time.Now()
			cards, source, err := p.attempt(ctx, prompt)
			if err != nil {
				p.logAttemptFailure(ctx, log, attempt, time.Since(start), err)
				if errors.Is(err, ErrContentBlocked) {
					return backoff.Permanent(err)
				}
				return err
			}
			result = &Result{Cards: cards, Source: source, Attempts: attempt, TargetCount: prompt.TargetCount}
			return nil
		},
		func(attempt int, err error, wait time.Duration) {
			log.InfoContext(ctx, "retrying after delay",
				"attempt", attempt,
				"failure_kind", FailureKind(err),
				"delay_ms", wait.Milliseconds())
		},
	)

	if err == nil && result != nil {
		if len(result.Cards) != prompt.TargetCount {
			log.WarnContext(ctx, "card count differs from target",
				"target_count", prompt.TargetCount,
				"card_count", len(result.Cards))
		}
		log.InfoContext(ctx, "cards generated",
			"source", string(result.Source),
			"attempt", result.Attempts,
			"card_count", len(result.Cards))
		return result, nil
	}

	log.WarnContext(ctx, "all generation attempts failed, using fallback cards",
		"attempts", attempts,
		"failure_kind", FailureKind(err),
		"error", redact.Error(err))

	return &Result{
		Cards:       FallbackCards(req),
		Source:      SourceFallback,
		Attempts:    attempts,
		TargetCount: prompt.TargetCount,
	}, nil
}

// attempt runs Invoking through Validating once.
func (p *Pipeline) attempt(ctx context.Context, prompt Prompt) ([]domain.Card, Source, error) {
	// Invoking
	raw, err := p.invoker.Invoke(ctx, prompt.Text)
	if err != nil {
		return nil, "", err
	}

	// Sanitizing
	payload, err := Sanitize(raw)
	if err != nil {
		return nil, "", &attemptError{err: err, raw: raw}
	}

	// Parsing
	data, source, err := p.parse(ctx, payload)
	if err != nil {
		return nil, "", &attemptError{err: err, raw: raw}
	}

	// Validating
	cards, err := p.validator.Validate(unwrapEnvelope(data))
	if err != nil {
		return nil, "", &attemptError{err: err, raw: raw}
	}
	return cards, source, nil
}

// parse tries a strict parse, then the repair passes, then object salvage.
func (p *Pipeline) parse(ctx context.Context, payload Payload) ([]byte, Source, error) {
	syntaxErr := json.Unmarshal([]byte(payload.Text), new(json.RawMessage))
	if syntaxErr == nil {
		return []byte(payload.Text), SourceModel, nil
	}

	if repaired, stage, err := Repair(payload.Text); err == nil {
		p.logger.DebugContext(ctx, "payload repaired",
			"stage", string(stage),
			"shape", payload.Shape.String())
		return []byte(repaired), SourceRepaired, nil
	}

	salvaged, report, err := Salvage(payload.Text, p.validator.ValidCard)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnrepairable, syntaxErr)
	}
	p.logger.InfoContext(ctx, "payload salvaged",
		"recovered", report.Recovered,
		"discarded", report.Discarded)
	return []byte(salvaged), SourceSalvaged, nil
}

func (p *Pipeline) logAttemptFailure(
	ctx context.Context,
	log *slog.Logger,
	attempt int,
	elapsed time.Duration,
	err error,
) {
	attrs := []any{
		"attempt", attempt,
		"max_attempts", p.retry.MaxAttempts(),
		"failure_kind", FailureKind(err),
		"duration_ms", elapsed.Milliseconds(),
		"error", redact.Error(err),
	}
	var ae *attemptError
	if errors.As(err, &ae) {
		attrs = append(attrs,
			"response_length", len(ae.raw),
			"raw_snippet", redact.Snippet(ae.raw, snippetLength))
	}
	log.WarnContext(ctx, "generation attempt failed", attrs...)
}
