package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LLM_PROVIDER", "GEMINI_API_KEY", "OPENAI_API_KEY", "LLM_TIMEOUT", "LLM_TEXT_CAP",
	"STORE_DRIVER", "DATABASE_URL", "MONGO_URI", "MONGO_DATABASE",
	"NOVELTY_URL", "NOVELTY_TIMEOUT", "NOVELTY_SCALE", "NATS_URL", "REDIS_URL", "PORT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"llm_provider": "openai",
		"store_driver": "postgres",
		"database_url": "postgres://localhost/sankalp",
		"novelty_scale": 10,
		"novelty_timeout": "5s"
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "postgres://localhost/sankalp", cfg.DatabaseURL)
	assert.Equal(t, 10, cfg.NoveltyScale)
	assert.Equal(t, "5s", cfg.NoveltyTimeout)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "store_driver: mongo\nmongo_uri: mongodb://localhost:27017\nllm_text_cap: 12000\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, 12000, cfg.LLMTextCap)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "config path is empty")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadConfig(writeFile(t, "bad.json", `{ invalid json }`))
	assert.ErrorContains(t, err, "failed to parse config JSON")

	_, err = LoadConfig(writeFile(t, "bad.yml", "store_driver: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse config YAML")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMProvider, cfg.LLMProvider)
	assert.Equal(t, DefaultStoreDriver, cfg.StoreDriver)
	assert.Equal(t, DefaultLLMTextCap, cfg.LLMTextCap)
	assert.Equal(t, DefaultNoveltyScale, cfg.NoveltyScale)
	assert.Equal(t, DefaultPort, cfg.Port)

	d, err := cfg.LLMTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, d)
	d, err = cfg.NoveltyTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "llm_provider: openai\nnovelty_url: http://file:9000/check\nnovelty_scale: 10\n")
	t.Setenv("NOVELTY_URL", "http://env:9000/check")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, "http://env:9000/check", cfg.NoveltyURL)
	assert.Equal(t, 10, cfg.NoveltyScale)
	assert.Equal(t, "sk-test", cfg.APIKey())
}

func TestLoad_InvalidEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOVELTY_SCALE", "ten")

	_, err := Load("")
	assert.ErrorContains(t, err, "invalid NOVELTY_SCALE")
}

func TestConfig_Validate(t *testing.T) {
	base := Defaults()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.LLMProvider = "claude" }, wantErr: "unknown llm_provider"},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "sqlite" }, wantErr: "unknown store_driver"},
		{name: "postgres without url", mutate: func(c *Config) { c.StoreDriver = "postgres" }, wantErr: "'database_url' is required"},
		{name: "mongo without uri", mutate: func(c *Config) { c.StoreDriver = "mongo" }, wantErr: "'mongo_uri' is required"},
		{name: "odd novelty scale", mutate: func(c *Config) { c.NoveltyScale = 5 }, wantErr: "'novelty_scale' must be 10 or 100"},
		{name: "negative text cap", mutate: func(c *Config) { c.LLMTextCap = -1 }, wantErr: "'llm_text_cap'"},
		{name: "bad timeout", mutate: func(c *Config) { c.LLMTimeout = "forever" }, wantErr: "invalid 'llm_timeout'"},
		{name: "negative timeout", mutate: func(c *Config) { c.NoveltyTimeout = "-1s" }, wantErr: "'novelty_timeout' must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMergeWithDefaults_KeepsSetValues(t *testing.T) {
	cfg := Config{StoreDriver: "mongo", LLMTextCap: 500}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "mongo", merged.StoreDriver)
	assert.Equal(t, 500, merged.LLMTextCap)
	assert.Equal(t, DefaultLLMProvider, merged.LLMProvider)
	assert.Equal(t, DefaultMongoDatabase, merged.MongoDatabase)
}
