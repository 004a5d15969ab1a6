package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/wondercards-api/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	resp      *genai.GenerateContentResponse
	err       error
	gotModel  string
	gotPrompt string
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	_ *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotPrompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content, FinishReason: genai.FinishReasonStop}},
	}
}

func TestBackend_Complete(t *testing.T) {
	t.Parallel()

	t.Run("joins text parts", func(t *testing.T) {
		t.Parallel()
		fake := &fakeModels{resp: textResponse(`[{"title":"A",`, `"content":"B","funFact":null}]`)}
		b := newBackend(fake, "gemini-2.0-flash", nil)

		text, err := b.Complete(context.Background(), "make cards")
		require.NoError(t, err)
		assert.Equal(t, `[{"title":"A","content":"B","funFact":null}]`, text)
		assert.Equal(t, "gemini-2.0-flash", fake.gotModel)
		assert.Equal(t, "make cards", fake.gotPrompt)
		assert.Equal(t, "gemini:gemini-2.0-flash", b.Name())
	})

	tests := []struct {
		name     string
		fake     *fakeModels
		expected error
	}{
		{
			name:     "client error",
			fake:     &fakeModels{err: errors.New("503 unavailable")},
			expected: generation.ErrBackend,
		},
		{
			name:     "nil response",
			fake:     &fakeModels{},
			expected: generation.ErrEmptyResponse,
		},
		{
			name:     "no candidates",
			fake:     &fakeModels{resp: &genai.GenerateContentResponse{}},
			expected: generation.ErrEmptyResponse,
		},
		{
			name: "safety finish",
			fake: &fakeModels{resp: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
			}},
			expected: generation.ErrContentBlocked,
		},
		{
			name: "prompt blocked",
			fake: &fakeModels{resp: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			}},
			expected: generation.ErrContentBlocked,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := newBackend(tc.fake, "gemini-2.0-flash", nil)
			_, err := b.Complete(context.Background(), "prompt")
			assert.ErrorIs(t, err, tc.expected)
			assert.ErrorIs(t, err, generation.ErrBackend, "every failure is a backend failure")
		})
	}
}

func TestBackend_ContextErrorPassesThrough(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newBackend(&fakeModels{err: context.Canceled}, "m", nil)
	_, err := b.Complete(ctx, "prompt")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, generation.ErrBackend)
}

func TestNewBackend_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewBackend(context.Background(), "", "gemini-2.0-flash", nil)
	assert.ErrorIs(t, err, generation.ErrConfiguration)

	_, err = NewBackend(context.Background(), "key", "", nil)
	assert.ErrorIs(t, err, generation.ErrConfiguration)
}
