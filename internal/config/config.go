// Package config provides configuration loading and validation for the service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultLLMProvider    = "gemini"
	DefaultLLMTimeout     = 60 * time.Second
	DefaultLLMTextCap     = 30000
	DefaultStoreDriver    = "memory"
	DefaultMongoDatabase  = "sankalp"
	DefaultNoveltyTimeout = 30 * time.Second
	DefaultNoveltyScale   = 100
	DefaultPort           = 8080
)

// Config represents the service configuration. It can be loaded from a JSON or YAML
// file and is overridden by environment variables; empty fields fall back to defaults.
type Config struct {
	// Completion service
	LLMProvider  string `json:"llm_provider,omitempty" yaml:"llm_provider,omitempty"` // gemini or openai
	GeminiAPIKey string `json:"gemini_api_key,omitempty" yaml:"gemini_api_key,omitempty"`
	OpenAIAPIKey string `json:"openai_api_key,omitempty" yaml:"openai_api_key,omitempty"`
	LLMTimeout   string `json:"llm_timeout,omitempty" yaml:"llm_timeout,omitempty"`   // Go duration, e.g. "60s"
	LLMTextCap   int    `json:"llm_text_cap,omitempty" yaml:"llm_text_cap,omitempty"` // Max proposal characters sent per prompt

	// Storage
	StoreDriver   string `json:"store_driver,omitempty" yaml:"store_driver,omitempty"` // memory, postgres or mongo
	DatabaseURL   string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	MongoURI      string `json:"mongo_uri,omitempty" yaml:"mongo_uri,omitempty"`
	MongoDatabase string `json:"mongo_database,omitempty" yaml:"mongo_database,omitempty"`

	// Novelty service
	NoveltyURL     string `json:"novelty_url,omitempty" yaml:"novelty_url,omitempty"`
	NoveltyTimeout string `json:"novelty_timeout,omitempty" yaml:"novelty_timeout,omitempty"`
	NoveltyScale   int    `json:"novelty_scale,omitempty" yaml:"novelty_scale,omitempty"` // 10 or 100

	// Optional infrastructure
	NATSURL  string `json:"nats_url,omitempty" yaml:"nats_url,omitempty"`
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`

	Port int `json:"port,omitempty" yaml:"port,omitempty"`
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. Unset variables stay empty.
func FromEnv() (Config, error) {
	cfg := Config{
		LLMProvider:    os.Getenv("LLM_PROVIDER"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		LLMTimeout:     os.Getenv("LLM_TIMEOUT"),
		StoreDriver:    os.Getenv("STORE_DRIVER"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoDatabase:  os.Getenv("MONGO_DATABASE"),
		NoveltyURL:     os.Getenv("NOVELTY_URL"),
		NoveltyTimeout: os.Getenv("NOVELTY_TIMEOUT"),
		NATSURL:        os.Getenv("NATS_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
	}

	var err error
	if cfg.LLMTextCap, err = envInt("LLM_TEXT_CAP"); err != nil {
		return cfg, err
	}
	if cfg.NoveltyScale, err = envInt("NOVELTY_SCALE"); err != nil {
		return cfg, err
	}
	if cfg.Port, err = envInt("PORT"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func envInt(key string) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

// Load builds the effective configuration: environment over the optional config
// file over built-in defaults. The result is validated.
func Load(path string) (*Config, error) {
	env, err := FromEnv()
	if err != nil {
		return nil, err
	}

	var file Config
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		file = *loaded
	}

	cfg := env.MergeWithDefaults(file)
	cfg = cfg.MergeWithDefaults(Defaults())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LLMProvider:    DefaultLLMProvider,
		LLMTimeout:     DefaultLLMTimeout.String(),
		LLMTextCap:     DefaultLLMTextCap,
		StoreDriver:    DefaultStoreDriver,
		MongoDatabase:  DefaultMongoDatabase,
		NoveltyTimeout: DefaultNoveltyTimeout.String(),
		NoveltyScale:   DefaultNoveltyScale,
		Port:           DefaultPort,
	}
}

// Validate checks that the configuration has valid values.
// API keys are not required here; commands that call the completion service check them.
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("config error: unknown llm_provider %q (want gemini or openai)", c.LLMProvider)
	}

	switch c.StoreDriver {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres store")
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("config error: 'mongo_uri' is required for the mongo store")
		}
	default:
		return fmt.Errorf("config error: unknown store_driver %q (want memory, postgres or mongo)", c.StoreDriver)
	}

	if c.NoveltyScale != 10 && c.NoveltyScale != 100 {
		return fmt.Errorf("config error: 'novelty_scale' must be 10 or 100, got %d", c.NoveltyScale)
	}
	if c.LLMTextCap < 0 {
		return fmt.Errorf("config error: 'llm_text_cap' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	if _, err := c.LLMTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.NoveltyTimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// LLMTimeoutDuration parses LLMTimeout, falling back to the default when empty.
func (c *Config) LLMTimeoutDuration() (time.Duration, error) {
	return parseDuration("llm_timeout", c.LLMTimeout, DefaultLLMTimeout)
}

// NoveltyTimeoutDuration parses NoveltyTimeout, falling back to the default when empty.
func (c *Config) NoveltyTimeoutDuration() (time.Duration, error) {
	return parseDuration("novelty_timeout", c.NoveltyTimeout, DefaultNoveltyTimeout)
}

func parseDuration(name, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config error: invalid '%s': %v", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config error: '%s' must be positive", name)
	}
	return d, nil
}

// APIKey returns the key for the configured completion provider.
func (c *Config) APIKey() string {
	if c.LLMProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer environment values over config file values.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	fillString(&result.LLMProvider, defaults.LLMProvider)
	fillString(&result.GeminiAPIKey, defaults.GeminiAPIKey)
	fillString(&result.OpenAIAPIKey, defaults.OpenAIAPIKey)
	fillString(&result.LLMTimeout, defaults.LLMTimeout)
	fillString(&result.StoreDriver, defaults.StoreDriver)
	fillString(&result.DatabaseURL, defaults.DatabaseURL)
	fillString(&result.MongoURI, defaults.MongoURI)
	fillString(&result.MongoDatabase, defaults.MongoDatabase)
	fillString(&result.NoveltyURL, defaults.NoveltyURL)
	fillString(&result.NoveltyTimeout, defaults.NoveltyTimeout)
	fillString(&result.NATSURL, defaults.NATSURL)
	fillString(&result.RedisURL, defaults.RedisURL)

	// Int fields: use default if zero
	if result.LLMTextCap == 0 {
		result.LLMTextCap = defaults.LLMTextCap
	}
	if result.NoveltyScale == 0 {
		result.NoveltyScale = defaults.NoveltyScale
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	return result
}

func fillString(dst *string, fallback string) {
	if *dst == "" {
		*dst = fallback
	}
}
