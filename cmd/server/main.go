// Package main implements the entry point for the WonderCards API server,
// which generates children's learning cards with an LLM and stores the
// courses built from them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/phrazzld/wondercards-api/internal/config"
	"github.com/phrazzld/wondercards-api/internal/platform/logger"
	"github.com/phrazzld/wondercards-api/internal/platform/postgres"
)

func main() {
	migrate := flag.String("migrate", "",
		"run database migrations and exit: up, down or status")
	flag.Parse()

	if err := run(context.Background(), *migrate); err != nil {
		log.Fatalf("wondercards-api: %v", err)
	}
}

// run loads configuration, then either executes a migration command or
// serves HTTP until interrupted.
func run(ctx context.Context, migrate string) error {
	cfg, l, err := initializeApp()
	if err != nil {
		return err
	}

	if migrate != "" {
		return runMigrations(ctx, cfg, migrate, l)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.String("llm_model", cfg.LLM.ModelName),
		slog.Bool("database_configured", cfg.Database.URL != ""),
		slog.Bool("cache_configured", cfg.Cache.RedisAddr != ""))

	return cfg, l, nil
}

func runMigrations(ctx context.Context, cfg *config.Config, command string, l *slog.Logger) error {
	switch command {
	case postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus:
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("migrations need database.url (WONDER_DATABASE_URL) to be set")
	}

	db, err := setupAppDatabase(ctx, cfg.Database.URL, l)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			l.Error("Error closing database connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := postgres.Migrate(ctx, db, command, l); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "migration %s completed\n", command)
	return nil
}
