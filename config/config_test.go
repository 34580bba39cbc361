package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "PORT", "CORS_ORIGINS", "DEFAULT_MISTRAL_API_KEY", "POSTHOG_KEY", "POSTHOG_HOST", "DB_DSN",
		"LLM_MAX_ATTEMPTS", "LLM_BACKOFF_BASE", "LLM_TEMPERATURE", "LLM_MAX_TOKENS", "SESSION_TTL", "REDIS_ADDR")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.LLM.MaxAttempts)
	assert.Equal(t, time.Second, cfg.LLM.BackoffBase)
	assert.Equal(t, 0.7, cfg.LLM.Temperature)
	assert.Equal(t, int64(2000), cfg.LLM.MaxTokens)
	assert.Equal(t, 24*time.Hour, cfg.Redis.SessionTTL)
	assert.Equal(t, "https://app.posthog.com", cfg.Analytics.PostHogHost)
	assert.False(t, cfg.TrialAvailable())
	assert.False(t, cfg.AnalyticsEnabled())
	assert.False(t, cfg.DatabaseEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DEFAULT_MISTRAL_API_KEY", "mistral-shared-key")
	t.Setenv("POSTHOG_KEY", "phc_test")
	t.Setenv("LLM_MAX_ATTEMPTS", "5")
	t.Setenv("LLM_BACKOFF_BASE", "250ms")
	t.Setenv("SESSION_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 5, cfg.LLM.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.LLM.BackoffBase)
	assert.Equal(t, time.Hour, cfg.Redis.SessionTTL)
	assert.True(t, cfg.TrialAvailable())
	assert.True(t, cfg.AnalyticsEnabled())
}

func TestTrialAvailable_BlankKey(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{DefaultMistralAPIKey: "   "}}
	assert.False(t, cfg.TrialAvailable())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: "8080"},
			Redis:  RedisConfig{Addr: "localhost:6379"},
			LLM:    LLMConfig{MaxAttempts: 3, Temperature: 0.7, MaxTokens: 2000},
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = ""
		assert.EqualError(t, cfg.Validate(), "PORT is required")
	})

	t.Run("missing redis", func(t *testing.T) {
		cfg := valid()
		cfg.Redis.Addr = ""
		assert.EqualError(t, cfg.Validate(), "REDIS_ADDR is required")
	})

	t.Run("zero attempts", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.MaxAttempts = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("temperature out of range", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.Temperature = 2.5
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive max tokens", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.MaxTokens = 0
		assert.Error(t, cfg.Validate())
	})
}
