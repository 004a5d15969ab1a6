//go:build integration

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/wondercards-api/internal/domain"
)

func TestCardCache_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	cache, err := NewCardCache(ctx, addr, time.Minute, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	req := request(t, "integration "+time.Now().Format(time.RFC3339Nano))
	cards := []domain.Card{{Title: "Rain", Content: "Rain falls from clouds."}}

	require.NoError(t, cache.Set(ctx, req, cards))
	got, ok, err := cache.Get(ctx, req)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cards, got)
}
