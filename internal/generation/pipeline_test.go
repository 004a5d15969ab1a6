package generation_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/phrazzld/wondercards-api/internal/generation"
	"github.com/phrazzld/wondercards-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickRequest(topic string) domain.GenerationRequest {
	return domain.GenerationRequest{Topic: topic, AgeGroup: domain.AgeGroup8To10, CourseLength: domain.CourseLengthQuick}
}

func TestPipeline_WellFormedFirstAttempt(t *testing.T) {
	t.Parallel()

	for _, age := range domain.AgeGroups() {
		for _, length := range domain.CourseLengths() {
			age, length := age, length
			t.Run(string(age)+"/"+string(length), func(t *testing.T) {
				t.Parallel()
				want, _ := length.CardCount()
				backend := newScriptedBackend(reply{text: cardsJSON(t, want)})
				p := newPipeline(t, backend, fastConfig(2))

				res, err := p.GenerateCards(context.Background(),
					domain.GenerationRequest{Topic: "Planets", AgeGroup: age, CourseLength: length})
				require.NoError(t, err)
				assert.Len(t, res.Cards, want, "should return exactly the target count")
				assert.Equal(t, generation.SourceModel, res.Source)
				assert.Equal(t, 1, res.Attempts)
				assert.Equal(t, want, res.TargetCount)
				assert.Equal(t, 1, backend.Calls())
			})
		}
	}
}

func TestPipeline_ProseWrappedReply(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(reply{text: "Sure! [{\"title\":\"A\",\"content\":\"B\",\"funFact\":\"C\"}] Hope that helps!"})
	p := newPipeline(t, backend, fastConfig(2))

	res, err := p.GenerateCards(context.Background(), quickRequest("Letters"))
	require.NoError(t, err)
	require.Len(t, res.Cards, 1)
	assert.Equal(t, "A", res.Cards[0].Title)
	require.NotNil(t, res.Cards[0].FunFact)
	assert.Equal(t, "C", *res.Cards[0].FunFact)
	assert.Equal(t, generation.SourceModel, res.Source)
}

func TestPipeline_RepairsNearJSON(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(reply{text: "[{title: 'A', content: 'B'}]"})
	p := newPipeline(t, backend, fastConfig(2))

	res, err := p.GenerateCards(context.Background(), quickRequest("Rivers"))
	require.NoError(t, err)
	require.Len(t, res.Cards, 1)
	assert.Equal(t, domain.Card{Title: "A", Content: "B", FunFact: nil}, res.Cards[0])
	assert.Equal(t, generation.SourceRepaired, res.Source)
	assert.Equal(t, 1, backend.Calls())
}

func TestPipeline_SalvagesObjects(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(reply{text: `[{"title":"A","content":"B"}, {BROKEN}, {"title":"C","content":"D"}]`})
	p := newPipeline(t, backend, fastConfig(2))

	res, err := p.GenerateCards(context.Background(), quickRequest("Trees"))
	require.NoError(t, err)
	require.Len(t, res.Cards, 2, "broken object should be discarded")
	assert.Equal(t, "A", res.Cards[0].Title)
	assert.Equal(t, "B", res.Cards[0].Content)
	assert.Equal(t, "C", res.Cards[1].Title)
	assert.Equal(t, "D", res.Cards[1].Content)
	assert.Equal(t, generation.SourceSalvaged, res.Source)
}

func TestPipeline_SalvageDropsObjectsFailingSchema(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(reply{text: `[{"title":"A","content":"B"}, {BROKEN}, {"title":"C"}]`})
	p := newPipeline(t, backend, fastConfig(2))

	res, err := p.GenerateCards(context.Background(), quickRequest("Trees"))
	require.NoError(t, err)
	assert.Equal(t, generation.SourceSalvaged, res.Source)
	assert.Equal(t, 1, res.Attempts, "a salvaged card should not cost a retry")
	assert.Equal(t, 1, backend.Calls())
	require.Len(t, res.Cards, 1)
	assert.Equal(t, domain.Card{Title: "A", Content: "B"}, res.Cards[0])
}

func TestPipeline_RepairKeepsApostrophesInBareValues(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(reply{text: `[{title: 'Sun', content: It's hot}]`})
	p := newPipeline(t, backend, fastConfig(0))

	res, err := p.GenerateCards(context.Background(), quickRequest("Sun"))
	require.NoError(t, err)
	assert.Equal(t, generation.SourceRepaired, res.Source)
	require.Len(t, res.Cards, 1)
	assert.Equal(t, "It's hot", res.Cards[0].Content)
}

func TestPipeline_CardFieldNormalization(t *testing.T) {
	t.Parallel()

	t.Run("blank fun fact becomes null", func(t *testing.T) {
		t.Parallel()
		backend := newScriptedBackend(reply{text: `[{"title":"A","content":"B","funFact":""},{"title":"C","content":"D","funFact":"  "}]`})
		p := newPipeline(t, backend, fastConfig(0))

		res, err := p.GenerateCards(context.Background(), quickRequest("Owls"))
		require.NoError(t, err)
		assert.Equal(t, generation.SourceModel, res.Source)
		require.Len(t, res.Cards, 2)
		assert.Nil(t, res.Cards[0].FunFact)
		assert.Nil(t, res.Cards[1].FunFact)
	})

	t.Run("blank title is rejected", func(t *testing.T) {
		t.Parallel()
		backend := newScriptedBackend(reply{text: `[{"title":"   ","content":"B"}]`})
		p := newPipeline(t, backend, fastConfig(0))

		res, err := p.GenerateCards(context.Background(), quickRequest("Owls"))
		require.NoError(t, err)
		assert.Equal(t, generation.SourceFallback, res.Source)
	})
}

func TestPipeline_UnwrapsCardsEnvelope(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(reply{text: `{"cards": [{"title":"A","content":"B","funFact":null}]}`})
	p := newPipeline(t, backend, fastConfig(0))

	res, err := p.GenerateCards(context.Background(), quickRequest("Stars"))
	require.NoError(t, err)
	require.Len(t, res.Cards, 1)
	assert.Equal(t, "A", res.Cards[0].Title)
}

func TestPipeline_FallbackAfterBackendErrors(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(reply{err: errors.New("backend unavailable")})
	p := newPipeline(t, backend, fastConfig(2))
	req := quickRequest("Moon")

	res, err := p.GenerateCards(context.Background(), req)
	require.NoError(t, err, "backend failures must not reach the caller")
	assert.Equal(t, 3, backend.Calls(), "one attempt plus two retries")
	assert.Equal(t, 3, res.Attempts)
	assert.True(t, res.IsFallback())
	require.Len(t, res.Cards, req.TargetCount())
	for i, c := range res.Cards {
		assert.Nil(t, c.FunFact, "fallback card %d should have no fun fact", i)
	}
	assert.Equal(t, generation.FallbackCards(req), res.Cards)
}

func TestPipeline_RetriesEveryAttemptFailureKind(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(
		reply{err: errors.New("503")},
		reply{text: "I'm sorry, I can't produce JSON today."},
		reply{text: `[{"content":"no title"}]`},
		reply{text: `[{"nope}]`},
		reply{text: `[{"title":"Finally","content":"ok"}]`},
	)
	p := newPipeline(t, backend, fastConfig(4))

	res, err := p.GenerateCards(context.Background(), quickRequest("Weather"))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Attempts)
	assert.Equal(t, generation.SourceModel, res.Source)
	require.Len(t, res.Cards, 1)
	assert.Equal(t, "Finally", res.Cards[0].Title)
}

func TestPipeline_ContentBlockedSkipsRetries(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(reply{err: generation.ErrContentBlocked})
	p := newPipeline(t, backend, fastConfig(2))

	res, err := p.GenerateCards(context.Background(), quickRequest("Volcanoes"))
	require.NoError(t, err)
	assert.Equal(t, 1, backend.Calls())
	assert.True(t, res.IsFallback())
}

func TestPipeline_ConfigurationErrorSkipsBackend(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(reply{text: cardsJSON(t, 5)})
	p := newPipeline(t, backend, fastConfig(2))

	for _, req := range []domain.GenerationRequest{
		{Topic: "Bees", AgeGroup: "99-100", CourseLength: domain.CourseLengthQuick},
		{Topic: "Bees", AgeGroup: domain.AgeGroup5To7, CourseLength: "forever"},
		{Topic: "", AgeGroup: domain.AgeGroup5To7, CourseLength: domain.CourseLengthQuick},
	} {
		res, err := p.GenerateCards(context.Background(), req)
		assert.ErrorIs(t, err, generation.ErrConfiguration)
		assert.Nil(t, res)
	}
	assert.Equal(t, 0, backend.Calls(), "invalid input must not reach the backend")
}

func TestPipeline_CancelledContextFallsBack(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backend := newScriptedBackend(reply{text: cardsJSON(t, 5)})
	p := newPipeline(t, backend, fastConfig(2))

	res, err := p.GenerateCards(ctx, quickRequest("Fish"))
	require.NoError(t, err)
	assert.True(t, res.IsFallback())
	assert.Equal(t, 0, backend.Calls())
}

func TestPipeline_CountMismatchIsKept(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(reply{text: cardsJSON(t, 3)})
	p := newPipeline(t, backend, fastConfig(2))

	res, err := p.GenerateCards(context.Background(), quickRequest("Ants"))
	require.NoError(t, err)
	assert.Len(t, res.Cards, 3)
	assert.Equal(t, 5, res.TargetCount)
	assert.False(t, res.IsFallback())
}

func TestPipeline_ConcurrentRequests(t *testing.T) {
	t.Parallel()

	backend := newScriptedBackend(reply{text: cardsJSON(t, 5)})
	p := newPipeline(t, backend, fastConfig(0))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.GenerateCards(context.Background(), quickRequest("Birds"))
			assert.NoError(t, err)
			assert.Len(t, res.Cards, 5)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, backend.Calls())
}

func TestNewPipeline_Validation(t *testing.T) {
	t.Parallel()

	prompts, err := generation.NewPromptBuilder("")
	require.NoError(t, err)

	_, err = generation.NewPipeline(nil, newScriptedBackend(reply{text: "x"}), prompts, fastConfig(0))
	assert.ErrorIs(t, err, generation.ErrConfiguration)
	_, err = generation.NewPipeline(discardLogger(), nil, prompts, fastConfig(0))
	assert.ErrorIs(t, err, generation.ErrConfiguration)
	_, err = generation.NewPipeline(discardLogger(), newScriptedBackend(reply{text: "x"}), nil, fastConfig(0))
	assert.ErrorIs(t, err, generation.ErrConfiguration)
}

func TestFailureKind(t *testing.T) {
	t.Parallel()

	cases := map[error]string{
		generation.ErrTimeout:           generation.KindTimeout,
		generation.ErrContentBlocked:    generation.KindContentBlocked,
		generation.ErrEmptyResponse:     generation.KindBackend,
		generation.ErrStructureNotFound: generation.KindStructureNotFound,
		generation.ErrUnrepairable:      generation.KindUnrepairable,
		generation.ErrJSONSyntax:        generation.KindJSONSyntax,
		&generation.SchemaError{}:       generation.KindSchemaValidation,
		generation.ErrConfiguration:     generation.KindConfiguration,
		errors.New("mystery"):           generation.KindUnknown,
	}
	for err, want := range cases {
		assert.Equal(t, want, generation.FailureKind(err), "kind for %v", err)
	}
	assert.Empty(t, generation.FailureKind(nil))
}

func TestPipeline_LogsAttemptFailures(t *testing.T) {
	t.Parallel()

	log, buf := logger.NewCapture()
	prompts, err := generation.NewPromptBuilder("")
	require.NoError(t, err)
	backend := newScriptedBackend(
		reply{text: "No cards today, api_key=abcdef1234567890ghij"},
		reply{text: cardsJSON(t, 5)},
	)
	p, err := generation.NewPipeline(log, backend, prompts, fastConfig(2))
	require.NoError(t, err)

	res, err := p.GenerateCards(context.Background(), quickRequest("Clouds"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)

	failures := buf.EntriesWithMessage("generation attempt failed")
	require.Len(t, failures, 1)
	entry := failures[0]
	assert.EqualValues(t, 1, entry["attempt"])
	assert.EqualValues(t, 3, entry["max_attempts"])
	assert.Equal(t, generation.KindStructureNotFound, entry["failure_kind"])
	assert.Equal(t, "Clouds", entry["topic"])
	snippet, _ := entry["raw_snippet"].(string)
	assert.Contains(t, snippet, "No cards today")
	assert.NotContains(t, snippet, "abcdef1234567890ghij", "secrets must be redacted from snippets")

	assert.Len(t, buf.EntriesWithMessage("retrying after delay"), 1)
	assert.Len(t, buf.EntriesWithMessage("cards generated"), 1)
}
