// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port             string
	ClientURL        string
	AppEnv           string
	DataDir          string
	DBPath           string
	RetellAPIKey     string
	RetellBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string
	CallRetention    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "3001"),
		ClientURL:        getEnv("CLIENT_URL", "http://localhost:5173"),
		AppEnv:           getEnv("APP_ENV", "development"),
		DataDir:          getEnv("DATA_DIR", "./data"),
		DBPath:           getEnv("DB_PATH", "./data/calls.db"),
		RetellAPIKey:     os.Getenv("RETELL_API_KEY"),
		RetellBaseURL:    os.Getenv("RETELL_BASE_URL"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		AnthropicModel:   os.Getenv("ANTHROPIC_MODEL"),
		CallRetention:    getEnvDuration("CALL_RETENTION", 90*24*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.CallRetention <= 0 {
		return fmt.Errorf("CALL_RETENTION must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv != "production"
}

// TenantConfigPath is the location of the tenant's config.json.
func (c *Config) TenantConfigPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

// ScenariosPath is the location of the scenarios.json store.
func (c *Config) ScenariosPath() string {
	return filepath.Join(c.DataDir, "scenarios.json")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
