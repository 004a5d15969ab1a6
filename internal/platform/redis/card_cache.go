// Package redis caches generated card sets in Redis, keyed by the
// normalized generation request.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/wondercards-api/internal/domain"
	"github.com/phrazzld/wondercards-api/internal/platform/logger"
)

const keyPrefix = "wondercards:cards:v1:"

// DefaultTTL applies when NewCardCache is given a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// kv is the subset of goredis.Cmdable used by CardCache.
type kv interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// CardCache stores card sets as JSON strings with a TTL.
type CardCache struct {
	rdb    kv
	closer func() error
	ping   func(ctx context.Context) error
	ttl    time.Duration
	logger *slog.Logger
}

// NewCardCache connects to addr and verifies the connection with PING.
func NewCardCache(ctx context.Context, addr string, ttl time.Duration, logger *slog.Logger) (*CardCache, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	c := newCardCache(rdb, ttl, logger)
	c.closer = rdb.Close
	c.ping = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	return c, nil
}

func newCardCache(rdb kv, ttl time.Duration, logger *slog.Logger) *CardCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CardCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "card_cache")),
	}
}

// Key returns the cache key for req. Topics differing only in case or
// surrounding whitespace share a key.
func Key(req domain.GenerationRequest) string {
	topic := strings.ToLower(strings.Join(strings.Fields(req.Topic), " "))
	sum := sha256.Sum256([]byte(topic + "\x00" + string(req.AgeGroup) + "\x00" + string(req.CourseLength)))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached cards for req. The bool is false on a miss.
// Undecodable entries are treated as misses.
func (c *CardCache) Get(ctx context.Context, req domain.GenerationRequest) ([]domain.Card, bool, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)
	key := Key(req)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			log.Debug("card cache miss", slog.String("key", key))
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var cards []domain.Card
	if err := json.Unmarshal(raw, &cards); err != nil || len(cards) == 0 {
		log.Warn("discarding undecodable card cache entry", slog.String("key", key))
		return nil, false, nil
	}

	log.Debug("card cache hit", slog.String("key", key), slog.Int("card_count", len(cards)))
	return cards, true, nil
}

// Set stores cards for req with the cache TTL.
func (c *CardCache) Set(ctx context.Context, req domain.GenerationRequest, cards []domain.Card) error {
	raw, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("encode cards: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(req), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable. It backs the /health cache check.
func (c *CardCache) Ping(ctx context.Context) error {
	if c == nil || c.ping == nil {
		return nil
	}
	return c.ping(ctx)
}

// Close releases the underlying client.
func (c *CardCache) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer()
}
