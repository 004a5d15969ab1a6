// Package generation turns a (topic, age group, course length) request into
// a validated sequence of learning cards using a text-generation backend.
//
// The Pipeline builds the prompt, invokes the Backend with a per-attempt
// timeout, isolates the JSON payload in the raw reply, repairs or salvages
// near-JSON, and validates the result against the card schema. Attempt
// failures are retried with exponential backoff. Once retries are exhausted
// the Pipeline returns deterministic placeholder cards, so callers only ever
// see an error for invalid input (ErrConfiguration).
//
// Backends live under internal/platform and are injected at construction.
package generation
