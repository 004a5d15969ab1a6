package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	LLM        LLMConfig        `mapstructure:"llm" validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port        int      `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel    string   `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory course store.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// Supported LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// LLMConfig selects and configures the text-generation backend. The openai
// provider speaks the OpenAI chat completions protocol and also covers
// compatible hosts such as a local Ollama server at BaseURL.
type LLMConfig struct {
	Provider           string `mapstructure:"provider" validate:"required,oneof=openai gemini"`
	ModelName          string `mapstructure:"model_name" validate:"required"`
	BaseURL            string `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey             string `mapstructure:"api_key"`
	GeminiAPIKey       string `mapstructure:"gemini_api_key" validate:"required_if=Provider gemini"`
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
}

// GenerationConfig bounds the retry loop around each generation request.
type GenerationConfig struct {
	MaxRetries     int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" validate:"gt=0"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" validate:"gt=0"`
}

// CacheConfig configures the generated-card cache. An empty RedisAddr
// disables caching.
type CacheConfig struct {
	RedisAddr string        `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	TTL       time.Duration `mapstructure:"ttl" validate:"gte=0"`
}
