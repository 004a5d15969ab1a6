package generation_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/wondercards-api/internal/generation"
	"github.com/stretchr/testify/require"
)

// reply is one scripted backend response.
type reply struct {
	text string
	err  error
}

// scriptedBackend returns its replies in order, repeating the last one.
type scriptedBackend struct {
	mu      sync.Mutex
	replies []reply
	calls   int
	prompts []string
}

func newScriptedBackend(replies ...reply) *scriptedBackend {
	return &scriptedBackend{replies: replies}
}

func (b *scriptedBackend) Complete(ctx context.Context, prompt string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prompts = append(b.prompts, prompt)
	idx := b.calls
	if idx >= len(b.replies) {
		idx = len(b.replies) - 1
	}
	b.calls++
	r := b.replies[idx]
	return r.text, r.err
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastConfig keeps retry waits in the millisecond range.
func fastConfig(maxRetries int) generation.Config {
	return generation.Config{
		MaxRetries:     maxRetries,
		RetryBaseDelay: time.Millisecond,
		AttemptTimeout: time.Second,
	}
}

func newPipeline(t *testing.T, backend generation.Backend, cfg generation.Config) *generation.Pipeline {
	t.Helper()
	prompts, err := generation.NewPromptBuilder("")
	require.NoError(t, err, "default prompt template should parse")
	p, err := generation.NewPipeline(discardLogger(), backend, prompts, cfg)
	require.NoError(t, err, "pipeline construction should succeed")
	return p
}

// cardsJSON renders n well-formed cards.
func cardsJSON(t *testing.T, n int) string {
	t.Helper()
	type card struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		FunFact string `json:"funFact"`
	}
	cards := make([]card, n)
	for i := range cards {
		cards[i] = card{
			Title:   fmt.Sprintf("Card %d", i+1),
			Content: fmt.Sprintf("Content for card %d.", i+1),
			FunFact: fmt.Sprintf("Fact %d", i+1),
		}
	}
	data, err := json.Marshal(cards)
	require.NoError(t, err)
	return string(data)
}
