// Package config loads service configuration from defaults, an optional YAML
// file, and environment variables, in that order of precedence.
package config

import (
	"time"
)

// ConfigPathEnvVar overrides the config file search.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/movieme/config.yaml",
}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	TMDb      TMDbConfig      `koanf:"tmdb"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Redis     RedisConfig     `koanf:"redis"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig selects sqlite (default) or postgres.
type DatabaseConfig struct {
	Type       string `koanf:"type"`
	SQLitePath string `koanf:"path"`
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	User       string `koanf:"user"`
	Password   string `koanf:"password"`
	Name       string `koanf:"name"`
	Migrations bool   `koanf:"migrations"`
}

type OpenAIConfig struct {
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	Model       string        `koanf:"model"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`
	Timeout     time.Duration `koanf:"timeout"`
}

type TMDbConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
	// RequestsPerSecond paces outgoing lookups; 0 disables pacing.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

// RateLimitConfig configures the sliding-window limiters.
type RateLimitConfig struct {
	// Backend is "memory" or "redis".
	Backend          string        `koanf:"backend"`
	Window           time.Duration `koanf:"window"`
	RecommendLimit   int           `koanf:"recommend_limit"`
	UsageLimit       int           `koanf:"usage_limit"`
	TrustForwardedIP bool          `koanf:"trust_forwarded_ip"`
}

type RedisConfig struct {
	URL    string `koanf:"url"`
	Prefix string `koanf:"prefix"`
}

// RecommendConfig holds the orchestration constants.
type RecommendConfig struct {
	BatchSize  int           `koanf:"batch_size"`
	MaxRetries int           `koanf:"max_retries"`
	SessionCap int           `koanf:"session_cap"`
	SessionTTL time.Duration `koanf:"session_ttl"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			CORSOrigins:     []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Type:       "sqlite",
			SQLitePath: "./movieme.db",
			Host:       "localhost",
			Port:       5432,
			User:       "movieme",
			Password:   "movieme_dev",
			Name:       "movieme",
			Migrations: true,
		},
		OpenAI: OpenAIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4-turbo-preview",
			Temperature: 0.7,
			MaxTokens:   4000,
			Timeout:     90 * time.Second,
		},
		TMDb: TMDbConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 20,
			Burst:             5,
		},
		RateLimit: RateLimitConfig{
			Backend:        "memory",
			Window:         60 * time.Second,
			RecommendLimit: 10,
			UsageLimit:     5,
		},
		Redis: RedisConfig{
			URL:    "redis://localhost:6379/0",
			Prefix: "movieme:ratelimit:",
		},
		Recommend: RecommendConfig{
			BatchSize:  5,
			MaxRetries: 3,
			SessionCap: 15,
			SessionTTL: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
