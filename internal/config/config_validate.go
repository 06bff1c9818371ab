package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks ranges and enumerated values. Missing provider keys are
// not an error here; the gateway reports them per request.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateRateLimit(); err != nil {
		return err
	}
	if err := c.validateRecommend(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.OpenAI.Temperature < 0 || c.OpenAI.Temperature > 2 {
		return fmt.Errorf("openai.temperature must be between 0 and 2, got %v", c.OpenAI.Temperature)
	}
	if c.OpenAI.MaxTokens <= 0 {
		return errors.New("openai.max_tokens must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("database.host and database.name are required for postgres")
		}
	default:
		return fmt.Errorf("database.type must be sqlite or postgres, got %q", c.Database.Type)
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required when rate_limit.backend is redis")
		}
	default:
		return fmt.Errorf("rate_limit.backend must be memory or redis, got %q", c.RateLimit.Backend)
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("rate_limit.window must be positive")
	}
	if c.RateLimit.RecommendLimit <= 0 || c.RateLimit.UsageLimit <= 0 {
		return errors.New("rate_limit limits must be positive")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	r := c.Recommend
	if r.BatchSize <= 0 {
		return fmt.Errorf("recommend.batch_size must be positive, got %d", r.BatchSize)
	}
	if r.MaxRetries <= 0 {
		return fmt.Errorf("recommend.max_retries must be positive, got %d", r.MaxRetries)
	}
	if r.SessionCap < r.BatchSize {
		return fmt.Errorf("recommend.session_cap (%d) must be at least recommend.batch_size (%d)", r.SessionCap, r.BatchSize)
	}
	if r.SessionTTL <= 0 {
		return errors.New("recommend.session_ttl must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// PostgresDSN formats the connection string for the pgx driver.
func (d DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}
