package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the foreman service.
type Config struct {
	BindAddr          string
	ShutdownTimeout   time.Duration
	MetricsNamespace  string
	ReconcileInterval time.Duration

	AgentMode    string
	AgentBaseURL string
	AgentToken   string

	GitHubToken      string
	GitHubBaseBranch string
	HostingMode      string

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:          envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:  envOrDefault("APP_METRICS_NAMESPACE", "foreman"),
		ShutdownTimeout:   15 * time.Second,
		ReconcileInterval: 10 * time.Second,
		AgentMode:         envOrDefault("AGENT_MODE", "auto"),
		AgentBaseURL:      envTrimmed("AGENT_BASE_URL"),
		AgentToken:        envTrimmed("AGENT_TOKEN"),
		GitHubToken:       envTrimmed("GITHUB_TOKEN"),
		GitHubBaseBranch:  envOrDefault("GITHUB_BASE_BRANCH", "main"),
		HostingMode:       envOrDefault("HOSTING_MODE", "auto"),
		DatabaseURL:       envTrimmed("DATABASE_URL"),
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ReconcileInterval, err = durationFromEnv("APP_RECONCILE_INTERVAL", cfg.ReconcileInterval)
	if err != nil {
		return Config{}, err
	}

	if cfg.ReconcileInterval < time.Second {
		return Config{}, fmt.Errorf("APP_RECONCILE_INTERVAL must be at least 1s")
	}
	switch strings.ToLower(cfg.AgentMode) {
	case "auto", "http", "mock":
	default:
		return Config{}, fmt.Errorf("invalid AGENT_MODE: %q (expected auto|http|mock)", cfg.AgentMode)
	}
	switch strings.ToLower(cfg.HostingMode) {
	case "auto", "github", "mock":
	default:
		return Config{}, fmt.Errorf("invalid HOSTING_MODE: %q (expected auto|github|mock)", cfg.HostingMode)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := envTrimmed(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}
