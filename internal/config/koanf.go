package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Load builds the configuration from three layers:
//
//  1. built-in defaults
//  2. an optional YAML file (CONFIG_PATH or one of DefaultConfigPaths)
//  3. environment variables
//
// and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

var envMappings = map[string]string{
	"port":             "server.port",
	"server_host":      "server.host",
	"cors_origins":     "server.cors_origins",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	"db_type":       "database.type",
	"db_path":       "database.path",
	"db_host":       "database.host",
	"db_port":       "database.port",
	"db_user":       "database.user",
	"db_password":   "database.password",
	"db_name":       "database.name",
	"db_migrations": "database.migrations",

	"openai_api_key":     "openai.api_key",
	"openai_base_url":    "openai.base_url",
	"openai_model":       "openai.model",
	"openai_temperature": "openai.temperature",
	"openai_max_tokens":  "openai.max_tokens",
	"openai_timeout":     "openai.timeout",

	"tmdb_api_key":  "tmdb.api_key",
	"tmdb_base_url": "tmdb.base_url",
	"tmdb_timeout":  "tmdb.timeout",
	"tmdb_rps":      "tmdb.requests_per_second",
	"tmdb_burst":    "tmdb.burst",

	"rate_limit_backend":   "rate_limit.backend",
	"rate_limit_window":    "rate_limit.window",
	"rate_limit_recommend": "rate_limit.recommend_limit",
	"rate_limit_usage":     "rate_limit.usage_limit",
	"trust_forwarded_ip":   "rate_limit.trust_forwarded_ip",

	"redis_url":    "redis.url",
	"redis_prefix": "redis.prefix",

	"recommend_batch_size":  "recommend.batch_size",
	"recommend_max_retries": "recommend.max_retries",
	"recommend_session_cap": "recommend.session_cap",
	"recommend_session_ttl": "recommend.session_ttl",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unknown variables return "" and are ignored.
//
//	OPENAI_API_KEY -> openai.api_key
//	DB_TYPE        -> database.type
//	LOG_LEVEL      -> logging.level
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
