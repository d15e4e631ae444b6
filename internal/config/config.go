package config

import (
	"os"
	"strconv"
	"time"

	"biotriage/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Oracle   OracleConfig
	Reports  ReportsConfig
	Database DatabaseConfig
	Triage   TriageConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	GinMode     string
	MaxUploadMB int64
}

// OracleConfig holds reasoning-oracle (LLM) settings. The oracle is optional:
// with no API key the pipeline runs without narrative annotation.
type OracleConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// Enabled reports whether the reasoning oracle is configured.
func (o OracleConfig) Enabled() bool { return o.APIKey != "" }

// ReportsConfig holds generated-report output settings
type ReportsConfig struct {
	Dir  string
	Port string
}

// DatabaseConfig holds the optional analysis-archive connection
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether the archive database is configured.
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// TriageConfig holds triage engine settings
type TriageConfig struct {
	RuleFile         string // optional YAML rule base extending the defaults
	MaxConcurrent    int64
	JaccardThreshold float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:        getEnvOrDefault("PORT", "8080"),
			GinMode:     getEnvOrDefault("GIN_MODE", "debug"),
			MaxUploadMB: int64(getEnvIntOrDefault("MAX_UPLOAD_MB", 25)),
		},
		Oracle: OracleConfig{
			APIKey:      os.Getenv("OPENAI_API_KEY"),
			Model:       getEnvOrDefault("LLM_MODEL", "gpt-5"),
			BaseURL:     getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
			Timeout:     getEnvDurationOrDefault("ORACLE_TIMEOUT", 3*time.Minute),
			MaxTokens:   getEnvIntOrDefault("MAX_TOKENS", 4000),
			Temperature: getEnvFloatOrDefault("TEMPERATURE", 1.0),
		},
		Reports: ReportsConfig{
			Dir:  getEnvOrDefault("REPORTS_DIR", "/tmp/reports"),
			Port: getEnvOrDefault("REPORTS_PORT", "8081"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Triage: TriageConfig{
			RuleFile:         os.Getenv("RULEBASE_FILE"),
			MaxConcurrent:    int64(getEnvIntOrDefault("MAX_CONCURRENT_ANALYSES", 4)),
			JaccardThreshold: getEnvFloatOrDefault("JACCARD_THRESHOLD", 0.3),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	if config.Triage.MaxConcurrent < 1 {
		return errors.ConfigInvalid("MAX_CONCURRENT_ANALYSES must be at least 1")
	}
	if config.Triage.JaccardThreshold <= 0 || config.Triage.JaccardThreshold >= 1 {
		return errors.ConfigInvalid("JACCARD_THRESHOLD must be in (0,1)")
	}
	if config.Oracle.Enabled() && config.Oracle.Timeout <= 0 {
		return errors.ConfigInvalid("ORACLE_TIMEOUT must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
