package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Auth      AuthConfig
	Analytics AnalyticsConfig
	Retention RetentionConfig
	App       AppConfig
}

type ServerConfig struct {
	Port        string   `env:"PORT" envDefault:"8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

// DatabaseConfig is optional; an empty DSN disables artifact history.
type DatabaseConfig struct {
	DSN string `env:"DB_DSN"`
}

type RedisConfig struct {
	Addr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB" envDefault:"0"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

type LLMConfig struct {
	OpenAIBaseURL        string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1/"`
	MistralBaseURL       string        `env:"MISTRAL_BASE_URL" envDefault:"https://api.mistral.ai/v1/"`
	DefaultMistralAPIKey string        `env:"DEFAULT_MISTRAL_API_KEY"`
	MaxAttempts          int           `env:"LLM_MAX_ATTEMPTS" envDefault:"3"`
	BackoffBase          time.Duration `env:"LLM_BACKOFF_BASE" envDefault:"1s"`
	Timeout              time.Duration `env:"LLM_TIMEOUT" envDefault:"2m"`
	RatePerSecond        float64       `env:"LLM_RATE_PER_SEC" envDefault:"2"`
	Temperature          float64       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	MaxTokens            int64         `env:"LLM_MAX_TOKENS" envDefault:"2000"`
}

type AuthConfig struct {
	HashedPassphrase string `env:"HASHED_PASSPHRASE"`
}

type AnalyticsConfig struct {
	PostHogKey  string `env:"POSTHOG_KEY"`
	PostHogHost string `env:"POSTHOG_HOST" envDefault:"https://app.posthog.com"`
}

type RetentionConfig struct {
	MaxAge   time.Duration `env:"ARTIFACT_RETENTION" envDefault:"720h"`
	Schedule string        `env:"RETENTION_SCHEDULE" envDefault:"0 0 3 * * *"`
}

type AppConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"APP_VERSION" envDefault:"1.0.0"`
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	if c.LLM.MaxAttempts < 1 {
		return fmt.Errorf("LLM_MAX_ATTEMPTS must be at least 1, got %d", c.LLM.MaxAttempts)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2, got %v", c.LLM.Temperature)
	}

	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive")
	}

	return nil
}

// TrialAvailable reports whether a shared Mistral key is configured.
func (c *Config) TrialAvailable() bool {
	return strings.TrimSpace(c.LLM.DefaultMistralAPIKey) != ""
}

func (c *Config) AnalyticsEnabled() bool {
	return strings.TrimSpace(c.Analytics.PostHogKey) != ""
}

func (c *Config) DatabaseEnabled() bool {
	return strings.TrimSpace(c.Database.DSN) != ""
}
