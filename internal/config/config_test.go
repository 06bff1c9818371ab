package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	chdirTemp(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.OpenAI.Model != "gpt-4-turbo-preview" {
		t.Errorf("OpenAI.Model = %q", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.MaxTokens != 4000 {
		t.Errorf("OpenAI.MaxTokens = %d, want 4000", cfg.OpenAI.MaxTokens)
	}
	if cfg.RateLimit.RecommendLimit != 10 || cfg.RateLimit.UsageLimit != 5 {
		t.Errorf("rate limits = %d/%d, want 10/5", cfg.RateLimit.RecommendLimit, cfg.RateLimit.UsageLimit)
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Errorf("RateLimit.Window = %v, want 1m", cfg.RateLimit.Window)
	}
	if cfg.Recommend.BatchSize != 5 || cfg.Recommend.MaxRetries != 3 || cfg.Recommend.SessionCap != 15 {
		t.Errorf("recommend = %+v", cfg.Recommend)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	chdirTemp(t)

	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("OpenAI.APIKey = %q", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Temperature != 0.2 {
		t.Errorf("OpenAI.Temperature = %v, want 0.2", cfg.OpenAI.Temperature)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("RateLimit.Window = %v, want 30s", cfg.RateLimit.Window)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
recommend:
  batch_size: 3
  session_cap: 9
rate_limit:
  backend: redis
redis:
  url: redis://cache:6379/1
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("RECOMMEND_SESSION_CAP", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Recommend.BatchSize != 3 {
		t.Errorf("BatchSize = %d, want 3", cfg.Recommend.BatchSize)
	}
	// env wins over file
	if cfg.Recommend.SessionCap != 12 {
		t.Errorf("SessionCap = %d, want 12", cfg.Recommend.SessionCap)
	}
	if cfg.RateLimit.Backend != "redis" || cfg.Redis.URL != "redis://cache:6379/1" {
		t.Errorf("redis backend not loaded: %+v %+v", cfg.RateLimit, cfg.Redis)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"bad db type", func(c *Config) { c.Database.Type = "mysql" }, true},
		{"postgres needs host", func(c *Config) { c.Database.Type = "postgres"; c.Database.Host = "" }, true},
		{"bad backend", func(c *Config) { c.RateLimit.Backend = "memcached" }, true},
		{"redis without url", func(c *Config) { c.RateLimit.Backend = "redis"; c.Redis.URL = "" }, true},
		{"cap below batch", func(c *Config) { c.Recommend.SessionCap = 2 }, true},
		{"zero retries", func(c *Config) { c.Recommend.MaxRetries = 0 }, true},
		{"temperature too high", func(c *Config) { c.OpenAI.Temperature = 3 }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	if got := envTransformFunc("OPENAI_API_KEY"); got != "openai.api_key" {
		t.Errorf("OPENAI_API_KEY -> %q", got)
	}
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("PATH should be ignored, got %q", got)
	}
}

// chdirTemp keeps the default config search from picking up a stray
// config.yaml in the package directory.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
