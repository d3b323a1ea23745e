// Package llm provides centralized completion-service configuration and client abstractions.
// Evaluation providers treat the completion service as a black box: prompt in, free text out.
package llm

import (
	"fmt"
	"time"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: short classification and extraction
	TierLite ModelTier = "lite"
	// TierStandard is for dimension scoring with structured output
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-context reasoning such as pairwise similarity
	TierAdvanced ModelTier = "advanced"
)

// Provider represents a completion provider
type Provider string

// Provider constants define supported completion providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI provider
	ProviderOpenAI Provider = "openai"
)

// DefaultTimeout bounds a single completion call when the caller sets none.
const DefaultTimeout = 60 * time.Second

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	Timeout  time.Duration
	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways only).
	BaseURL string
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Timeout: DefaultTimeout,
	}
}

// DefaultOpenAIConfig returns the default OpenAI configuration
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Models: map[ModelTier]string{
			TierLite:     "gpt-4o-mini",
			TierStandard: "gpt-4o-mini",
			TierAdvanced: "gpt-4o",
		},
		Timeout: DefaultTimeout,
	}
}

// ConfigForProvider returns the default configuration for a provider name.
func ConfigForProvider(name string) (*Config, error) {
	switch Provider(name) {
	case "", ProviderGemini:
		return DefaultGeminiConfig(), nil
	case ProviderOpenAI:
		return DefaultOpenAIConfig(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", name)
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := c.copy()
	newConfig.Models[tier] = model
	return newConfig
}

// WithTimeout returns a new Config with the given per-call timeout
func (c *Config) WithTimeout(d time.Duration) *Config {
	newConfig := c.copy()
	newConfig.Timeout = d
	return newConfig
}

// EffectiveTimeout returns the configured timeout or DefaultTimeout when unset.
func (c *Config) EffectiveTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c *Config) copy() *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)),
		Timeout:  c.Timeout,
		BaseURL:  c.BaseURL,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	return newConfig
}
