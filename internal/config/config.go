// Package config loads and validates application configuration.
//
// Sources, highest priority first:
//  1. Environment variables (RAGVAULT_ prefix, e.g. RAGVAULT_DATABASE_URL)
//  2. Optional YAML config file
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Generation provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Defaults applied when neither environment nor config file sets a value.
const (
	DefaultAddr               = "127.0.0.1:8080"
	DefaultEmbedderModel      = "gemini-embedding-001"
	DefaultChatModel          = "gemini-2.5-flash"
	DefaultOllamaHost         = "http://localhost:11434"
	DefaultMaxHistoryMessages = 10
	DefaultTopK               = 5
	DefaultTemperature        = 0.3
)

// Config holds the full application configuration.
//
// SENSITIVE: GeminiAPIKey must never be logged; it is omitted from String().
type Config struct {
	// Server
	Addr string `mapstructure:"addr"`

	// Relational store. postgres:// URL with pgvector available.
	DatabaseURL string `mapstructure:"database_url"`

	// Provider selects the embedding/generation backend: gemini or ollama.
	Provider     string `mapstructure:"provider"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	OllamaHost   string `mapstructure:"ollama_host"`

	// Model identifiers.
	EmbedderModel string `mapstructure:"embedder_model"`
	ChatModel     string `mapstructure:"chat_model"`

	// Chat turn tuning.
	MaxHistoryMessages int     `mapstructure:"max_history_messages"`
	TopKDefault        int     `mapstructure:"top_k_default"`
	DefaultTemperature float32 `mapstructure:"default_temperature"`

	// Logging.
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // "text" or "json"
}

// Load reads configuration from the environment and, if path is non-empty,
// from the YAML file at path. The result is validated before being returned.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("ollama_host", DefaultOllamaHost)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("chat_model", DefaultChatModel)
	v.SetDefault("max_history_messages", DefaultMaxHistoryMessages)
	v.SetDefault("top_k_default", DefaultTopK)
	v.SetDefault("default_temperature", DefaultTemperature)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("RAGVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// String renders the config for logging with secrets masked.
func (c *Config) String() string {
	key := "(unset)"
	if c.GeminiAPIKey != "" {
		key = "****"
	}
	return fmt.Sprintf(
		"addr=%s provider=%s embedder=%s chat=%s history=%d top_k=%d temp=%.2f gemini_api_key=%s",
		c.Addr, c.Provider, c.EmbedderModel, c.ChatModel,
		c.MaxHistoryMessages, c.TopKDefault, c.DefaultTemperature, key,
	)
}

var (
	// ErrConfigNil indicates a nil configuration was validated.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingDatabaseURL indicates database_url is not set.
	ErrMissingDatabaseURL = errors.New("missing database URL")

	// ErrInvalidDatabaseURL indicates database_url is not a postgres URL.
	ErrInvalidDatabaseURL = errors.New("invalid database URL")

	// ErrInvalidProvider indicates an unsupported provider name.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrMissingAPIKey indicates the selected provider requires an API key.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidHistoryLimit indicates max_history_messages is out of range.
	ErrInvalidHistoryLimit = errors.New("invalid max history messages")

	// ErrInvalidTopK indicates top_k_default is out of range.
	ErrInvalidTopK = errors.New("invalid top_k default")

	// ErrInvalidTemperature indicates default_temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")
)

// Validate checks the configuration for values the rest of the system
// cannot operate with. It returns the first violation found, wrapped
// around the matching sentinel error.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: set RAGVAULT_DATABASE_URL", ErrMissingDatabaseURL)
	}
	if !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return fmt.Errorf("%w: must start with postgres:// or postgresql://", ErrInvalidDatabaseURL)
	}

	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: provider %q requires RAGVAULT_GEMINI_API_KEY", ErrMissingAPIKey, c.Provider)
		}
	case ProviderOllama:
		// No credentials; host has a default.
	default:
		return fmt.Errorf("%w: %q (expected %q or %q)", ErrInvalidProvider, c.Provider, ProviderGemini, ProviderOllama)
	}

	if c.MaxHistoryMessages < 1 || c.MaxHistoryMessages > 1000 {
		return fmt.Errorf("%w: %d (must be 1..1000)", ErrInvalidHistoryLimit, c.MaxHistoryMessages)
	}
	if c.TopKDefault < 1 || c.TopKDefault > 100 {
		return fmt.Errorf("%w: %d (must be 1..100)", ErrInvalidTopK, c.TopKDefault)
	}
	if c.DefaultTemperature < 0 || c.DefaultTemperature > 2 {
		return fmt.Errorf("%w: %.2f (must be 0..2)", ErrInvalidTemperature, c.DefaultTemperature)
	}

	return nil
}
