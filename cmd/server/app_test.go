package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/wondercards-api/internal/api"
	"github.com/phrazzld/wondercards-api/internal/api/shared"
	"github.com/phrazzld/wondercards-api/internal/config"
	"github.com/phrazzld/wondercards-api/internal/content"
	"github.com/phrazzld/wondercards-api/internal/generation"
	"github.com/phrazzld/wondercards-api/internal/platform/llm"
	"github.com/phrazzld/wondercards-api/internal/platform/logger"
	"github.com/phrazzld/wondercards-api/internal/platform/memory"
	"github.com/phrazzld/wondercards-api/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        8080,
			LogLevel:    "debug",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		LLM: config.LLMConfig{
			Provider:  config.ProviderOpenAI,
			ModelName: "llama3",
			BaseURL:   "http://localhost:11434/v1",
			APIKey:    "ollama",
		},
		Generation: config.GenerationConfig{
			MaxRetries:     1,
			RetryBaseDelay: time.Millisecond,
			AttemptTimeout: time.Second,
		},
	}
}

// newTestApplication wires the real pipeline around backend with an
// in-memory course store.
func newTestApplication(t *testing.T, backend generation.Backend) *application {
	t.Helper()
	cfg := testConfig()
	l, _ := logger.NewCapture()

	pipeline, err := llm.NewPipeline(cfg, backend, l)
	require.NoError(t, err)
	svc, err := service.NewCourseService(pipeline, nil, memory.NewCourseStore(l), l)
	require.NoError(t, err)

	return &application{
		config:        cfg,
		logger:        l,
		courseService: svc,
		renderer:      content.NewRenderer(),
	}
}

func fencedCards(n int) string {
	cards := make([]string, n)
	for i := range cards {
		cards[i] = fmt.Sprintf(`{"title":"Card %d","content":"Fact number %d.","funFact":null}`, i+1, i+1)
	}
	return "Here you go!\n```json\n[" + strings.Join(cards, ",") + "]\n```"
}

func TestRouter_GenerateCardsEndToEnd(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t, generation.BackendFunc(func(context.Context, string) (string, error) {
		return fencedCards(5), nil
	}))
	srv := httptest.NewServer(app.setupRouter())
	defer srv.Close()

	body := `{"topic":"Owls","ageGroup":"5-7","courseLength":"quick"}`
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/generate-cards", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://localhost:5173")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(shared.TraceIDHeader))
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	var got api.GenerateCardsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got.Cards, 5)
	assert.Equal(t, "Card 1", got.Cards[0].Title)
	assert.Equal(t, string(generation.SourceModel), got.Source)
}

func TestRouter_GenerateCardsFallsBack(t *testing.T) {
	t.Parallel()

	calls := 0
	app := newTestApplication(t, generation.BackendFunc(func(context.Context, string) (string, error) {
		calls++
		return "I'm sorry, I can't help with that.", nil
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate-cards",
		strings.NewReader(`{"topic":"Owls","ageGroup":"8-10","courseLength":"standard"}`))
	app.setupRouter().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got api.GenerateCardsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Cards, 10)
	assert.Equal(t, string(generation.SourceFallback), got.Source)
	assert.Equal(t, 2, calls, "one retry configured")
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	app := newTestApplication(t, generation.BackendFunc(func(context.Context, string) (string, error) {
		return "", nil
	}))

	rec := httptest.NewRecorder()
	app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRunMigrations_RejectsBadInput(t *testing.T) {
	t.Parallel()
	l, _ := logger.NewCapture()
	cfg := testConfig()

	err := runMigrations(context.Background(), cfg, "sideways", l)
	assert.ErrorContains(t, err, "unknown migration command")

	err = runMigrations(context.Background(), cfg, "up", l)
	assert.ErrorContains(t, err, "database.url")
}
