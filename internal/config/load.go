package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. WONDER_SERVER_PORT.
const EnvPrefix = "WONDER"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173"})

	v.SetDefault("database.url", "")

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.model_name", "llama3")
	v.SetDefault("llm.base_url", "http://localhost:11434/v1")
	v.SetDefault("llm.api_key", "ollama")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.prompt_template_path", "")

	v.SetDefault("generation.max_retries", 2)
	v.SetDefault("generation.retry_base_delay", "1s")
	v.SetDefault("generation.attempt_timeout", "60s")

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", "24h")
}

// Load configuration from, in increasing precedence: defaults, an optional
// config.yaml in the working directory, and WONDER_* environment variables.
// Variables from envFiles (or ./.env when none are given) are loaded into
// the process environment first without overriding variables already set.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags on cfg.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// loadEnvFiles loads explicit env files strictly and ./.env leniently.
func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		// A missing .env is the normal case outside local development.
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}
