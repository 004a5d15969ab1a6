package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/wondercards-api/internal/config"
	"github.com/phrazzld/wondercards-api/internal/content"
	"github.com/phrazzld/wondercards-api/internal/platform/llm"
	"github.com/phrazzld/wondercards-api/internal/platform/memory"
	"github.com/phrazzld/wondercards-api/internal/platform/postgres"
	"github.com/phrazzld/wondercards-api/internal/platform/redis"
	"github.com/phrazzld/wondercards-api/internal/service"
	"github.com/phrazzld/wondercards-api/internal/store"
)

// application holds the shared dependencies of the server and releases
// them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when courses are kept in memory.
	db *sql.DB
	// cache is nil when no Redis address is configured.
	cache *redis.CardCache

	courseService service.CourseService
	renderer      *content.Renderer
}

// newApplication connects to the configured infrastructure and wires the
// generation pipeline, cache and course store into the course service.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		renderer: content.NewRenderer(),
	}

	courses, err := app.setupCourseStore(ctx)
	if err != nil {
		return nil, err
	}

	pipeline, backend, err := llm.FromConfig(ctx, cfg, logger)
	if err != nil {
		app.cleanup()
		return nil, err
	}

	var cache service.CardCache
	if cfg.Cache.RedisAddr != "" {
		app.cache, err = redis.NewCardCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.TTL, logger)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to connect to card cache: %w", err)
		}
		cache = app.cache
		logger.Info("Card cache enabled", slog.Duration("ttl", cfg.Cache.TTL))
	}

	app.courseService, err = service.NewCourseService(pipeline, cache, courses, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create course service: %w", err)
	}

	logger.Info("Application initialized successfully",
		slog.String("backend", backend.Name()))
	return app, nil
}

// setupCourseStore returns the Postgres store when database.url is set and
// the in-memory store otherwise.
func (app *application) setupCourseStore(ctx context.Context) (store.CourseStore, error) {
	if app.config.Database.URL == "" {
		app.logger.Warn("No database configured, courses are kept in memory")
		return memory.NewCourseStore(app.logger), nil
	}

	db, err := setupAppDatabase(ctx, app.config.Database.URL, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db
	return postgres.NewPostgresCourseStore(db, db, app.logger), nil
}

// Run serves HTTP until ctx is canceled or the process is signaled.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the cache client and database pool.
func (app *application) cleanup() {
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("Error closing card cache", slog.String("error", err.Error()))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("Application shutdown completed")
}
