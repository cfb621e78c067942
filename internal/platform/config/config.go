// Package config loads application configuration from environment variables.
// All variables use the MINDPREP_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Gemini     GeminiConfig
	Quiz       QuizConfig
	Device     DeviceConfig
	Log        LogConfig
	TopicsPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is one of "file", "memory", "redis", "postgres".
	Backend     string
	FilePath    string
	RedisURL    string
	PostgresURL string
	MaxConns    int
	MinConns    int
}

// GeminiConfig holds generation client settings. The API key itself lives in
// the store, written through settings, never in the environment.
type GeminiConfig struct {
	Model   string
	BaseURL string
}

// QuizConfig holds quiz tuning knobs.
type QuizConfig struct {
	DailyLimit int
	BatchSize  int
}

// DeviceConfig holds the secret used to seal the stored API credential.
type DeviceConfig struct {
	Secret string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with MINDPREP_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("MINDPREP_SERVER_PORT", 8080),
			Host: envStr("MINDPREP_SERVER_HOST", "0.0.0.0"),
		},
		Store: StoreConfig{
			Backend:     envStr("MINDPREP_STORE_BACKEND", "file"),
			FilePath:    envStr("MINDPREP_STORE_FILE", "./mindprep.json"),
			RedisURL:    envStr("MINDPREP_STORE_REDIS_URL", "redis://localhost:6379"),
			PostgresURL: envStr("MINDPREP_STORE_POSTGRES_URL", ""),
			MaxConns:    envInt("MINDPREP_STORE_MAX_CONNS", 10),
			MinConns:    envInt("MINDPREP_STORE_MIN_CONNS", 2),
		},
		Gemini: GeminiConfig{
			Model:   envStr("MINDPREP_GEMINI_MODEL", "gemini-1.5-flash"),
			BaseURL: envStr("MINDPREP_GEMINI_BASE_URL", ""),
		},
		Quiz: QuizConfig{
			DailyLimit: envInt("MINDPREP_QUIZ_DAILY_LIMIT", 20),
			BatchSize:  envInt("MINDPREP_QUIZ_BATCH_SIZE", 5),
		},
		Device: DeviceConfig{
			Secret: envStr("MINDPREP_DEVICE_SECRET", "change-me-in-production"),
		},
		Log: LogConfig{
			Level:  envStr("MINDPREP_LOG_LEVEL", "info"),
			Format: envStr("MINDPREP_LOG_FORMAT", "json"),
		},
		TopicsPath: envStr("MINDPREP_TOPICS_PATH", ""),
	}

	return cfg, nil
}

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "file":
		if c.Store.FilePath == "" {
			return fmt.Errorf("MINDPREP_STORE_FILE is required for the file backend")
		}
	case "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("MINDPREP_STORE_REDIS_URL is required for the redis backend")
		}
	case "postgres":
		if c.Store.PostgresURL == "" {
			return fmt.Errorf("MINDPREP_STORE_POSTGRES_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("MINDPREP_STORE_BACKEND must be file, memory, redis or postgres, got %q", c.Store.Backend)
	}

	if c.Quiz.DailyLimit <= 0 {
		return fmt.Errorf("MINDPREP_QUIZ_DAILY_LIMIT must be positive, got %d", c.Quiz.DailyLimit)
	}
	if c.Quiz.BatchSize <= 0 {
		return fmt.Errorf("MINDPREP_QUIZ_BATCH_SIZE must be positive, got %d", c.Quiz.BatchSize)
	}
	if c.Quiz.BatchSize > c.Quiz.DailyLimit {
		return fmt.Errorf("batch size %d exceeds the daily limit %d", c.Quiz.BatchSize, c.Quiz.DailyLimit)
	}

	if c.Device.Secret == "" {
		return fmt.Errorf("MINDPREP_DEVICE_SECRET must not be empty")
	}

	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
