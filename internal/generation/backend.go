package generation

import "context"

// Backend is a text-generation service. Complete sends a single instruction
// message and returns the model's raw text. Implementations must honor ctx
// cancellation and must be safe for concurrent use; one instance is shared
// across requests.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Name identifies the backend and model in logs, e.g. "gemini/gemini-2.0-flash".
	Name() string
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f(ctx, prompt).
func (f BackendFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Name returns "func".
func (f BackendFunc) Name() string { return "func" }
