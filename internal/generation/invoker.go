package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultAttemptTimeout bounds a single backend call.
const DefaultAttemptTimeout = 60 * time.Second

// Invoker calls a Backend with a hard per-attempt wall-clock timeout and
// normalizes its failures into ErrBackend / ErrTimeout.
type Invoker struct {
	backend Backend
	timeout time.Duration
	logger  *slog.Logger
}

// NewInvoker creates an Invoker. A non-positive timeout selects
// DefaultAttemptTimeout.
func NewInvoker(backend Backend, timeout time.Duration, logger *slog.Logger) (*Invoker, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend cannot be nil", ErrConfiguration)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrConfiguration)
	}
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	return &Invoker{backend: backend, timeout: timeout, logger: logger}, nil
}

// Timeout returns the per-attempt deadline.
func (i *Invoker) Timeout() time.Duration { return i.timeout }

// BackendName returns the wrapped backend's name.
func (i *Invoker) BackendName() string { return i.backend.Name() }

type completion struct {
	text string
	err  error
}

// Invoke runs one backend call. The call is raced against the attempt
// deadline, so a backend that ignores ctx still cannot hold the attempt
// open past the timeout; its goroutine finishes on its own and its result
// is dropped.
func (i *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	done := make(chan completion, 1)
	start := time.Now()
	go func() {
		text, err := i.backend.Complete(attemptCtx, prompt)
		done <- completion{text: text, err: err}
	}()

	select {
	case res := <-done:
		elapsed := time.Since(start)
		if res.err != nil {
			return "", i.classify(ctx, res.err)
		}
		if strings.TrimSpace(res.text) == "" {
			return "", ErrEmptyResponse
		}
		i.logger.DebugContext(ctx, "backend call completed",
			"backend", i.backend.Name(),
			"duration_ms", elapsed.Milliseconds(),
			"response_length", len(res.text))
		return res.text, nil
	case <-attemptCtx.Done():
		return "", i.classify(ctx, attemptCtx.Err())
	}
}

// classify maps a raw call error onto the package taxonomy. A deadline hit
// while the caller's context is still live is an attempt timeout.
func (i *Invoker) classify(parent context.Context, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%w: %w", ErrBackend, parent.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, i.timeout)
	}
	if errors.Is(err, ErrBackend) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBackend, err)
}
