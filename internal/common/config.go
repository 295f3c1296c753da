// Package common provides shared utilities for CareerForge
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the CareerForge orchestrator.
type Config struct {
	Environment string            `toml:"environment"`
	Server      ServerConfig      `toml:"server"`
	Store       StoreConfig       `toml:"store"`
	Queue       QueueConfig       `toml:"queue"`
	Specialists SpecialistsConfig `toml:"specialists"`
	Retry       RetryConfig       `toml:"retry"`
	Trace       TraceConfig       `toml:"trace"`
	Logging     LoggingConfig     `toml:"logging"`
}

// ServerConfig holds the orchestrator's own HTTP surface: liveness/readiness
// only. Job creation and read endpoints are an external collaborator.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StoreConfig holds SurrealDB connection configuration for the Job Store.
type StoreConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// QueueConfig holds Redis connection configuration for the Work Queue.
type QueueConfig struct {
	Address           string `toml:"address"`
	Password          string `toml:"password"`
	DB                int    `toml:"db"`
	VisibilityTimeout string `toml:"visibility_timeout"` // duration string, default "5m"
	PollInterval      string `toml:"poll_interval"`      // duration string, default "1s"
}

// GetVisibilityTimeout parses the queue visibility lease duration.
func (c *QueueConfig) GetVisibilityTimeout() time.Duration {
	d, err := time.ParseDuration(c.VisibilityTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// GetPollInterval parses the dequeue poll interval.
func (c *QueueConfig) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 1 * time.Second
	}
	return d
}

// SpecialistEndpoint configures how the orchestrator reaches one specialist.
// An empty URL means "use the in-process reference backend" where one exists
// (extractor, charter); analyzer and interviewer always require a URL since
// no in-process backend is provided for them.
type SpecialistEndpoint struct {
	URL     string `toml:"url"`
	Timeout string `toml:"timeout"` // duration string, default "5m"
}

// GetTimeout parses the per-call deadline for this specialist.
func (e *SpecialistEndpoint) GetTimeout() time.Duration {
	d, err := time.ParseDuration(e.Timeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// SpecialistsConfig holds per-specialist dispatch configuration.
type SpecialistsConfig struct {
	Extractor   SpecialistEndpoint `toml:"extractor"`
	Analyzer    SpecialistEndpoint `toml:"analyzer"`
	Interviewer SpecialistEndpoint `toml:"interviewer"`
	Charter     SpecialistEndpoint `toml:"charter"`
	// RateLimitPerSecond throttles outbound calls per specialist to protect
	// the downstream LLM/embedding backends from bursts of retries.
	RateLimitPerSecond int `toml:"rate_limit_per_second"`
	// GeminiAPIKey configures the in-process extractor reference backend.
	GeminiAPIKey string `toml:"gemini_api_key"`
	GeminiModel  string `toml:"gemini_model"`
}

// RetryConfig holds the exponential backoff policy for transient specialist
// failures.
type RetryConfig struct {
	InitialDelay string  `toml:"initial_delay"` // default "4s"
	Multiplier   float64 `toml:"multiplier"`    // default 2
	MaxDelay     string  `toml:"max_delay"`     // default "60s"
	MaxAttempts  int     `toml:"max_attempts"`  // default 5
	JobBudget    string  `toml:"job_budget"`    // total per-job wall clock budget, default "20m"
}

// GetInitialDelay parses the first backoff delay.
func (c *RetryConfig) GetInitialDelay() time.Duration {
	d, err := time.ParseDuration(c.InitialDelay)
	if err != nil || d <= 0 {
		return 4 * time.Second
	}
	return d
}

// GetMultiplier returns the backoff growth factor.
func (c *RetryConfig) GetMultiplier() float64 {
	if c.Multiplier <= 1 {
		return 2
	}
	return c.Multiplier
}

// GetMaxDelay parses the backoff ceiling.
func (c *RetryConfig) GetMaxDelay() time.Duration {
	d, err := time.ParseDuration(c.MaxDelay)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// GetMaxAttempts returns the maximum number of attempts per specialist call.
func (c *RetryConfig) GetMaxAttempts() int {
	if c.MaxAttempts <= 0 {
		return 5
	}
	return c.MaxAttempts
}

// GetJobBudget parses the total per-job wall-clock budget.
func (c *RetryConfig) GetJobBudget() time.Duration {
	d, err := time.ParseDuration(c.JobBudget)
	if err != nil || d <= 0 {
		return 20 * time.Minute
	}
	return d
}

// TraceConfig configures the trace sink.
type TraceConfig struct {
	Enabled bool   `toml:"enabled"`
	Sink    string `toml:"sink"` // "log" (default) or "noop"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string   `toml:"level"`
	Format  string   `toml:"format"`
	Outputs []string `toml:"outputs"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Store: StoreConfig{
			Address:   "ws://localhost:8000/rpc",
			Namespace: "careerforge",
			Database:  "jobs",
		},
		Queue: QueueConfig{
			Address:           "localhost:6379",
			VisibilityTimeout: "5m",
			PollInterval:      "1s",
		},
		Specialists: SpecialistsConfig{
			RateLimitPerSecond: 5,
			GeminiModel:        "gemini-3-flash-preview",
		},
		Retry: RetryConfig{
			InitialDelay: "4s",
			Multiplier:   2,
			MaxDelay:     "60s",
			MaxAttempts:  5,
			JobBudget:    "20m",
		},
		Trace: TraceConfig{
			Enabled: true,
			Sink:    "log",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "json",
			Outputs: []string{"console"},
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CAREERFORGE_ENV"); env != "" {
		config.Environment = env
	}
	if host := os.Getenv("CAREERFORGE_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("CAREERFORGE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("CAREERFORGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if addr := os.Getenv("CAREERFORGE_STORE_ADDRESS"); addr != "" {
		config.Store.Address = addr
	}
	if addr := os.Getenv("CAREERFORGE_QUEUE_ADDRESS"); addr != "" {
		config.Queue.Address = addr
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Specialists.GeminiAPIKey = key
	}
	if v := os.Getenv("CAREERFORGE_EXTRACTOR_URL"); v != "" {
		config.Specialists.Extractor.URL = v
	}
	if v := os.Getenv("CAREERFORGE_ANALYZER_URL"); v != "" {
		config.Specialists.Analyzer.URL = v
	}
	if v := os.Getenv("CAREERFORGE_INTERVIEWER_URL"); v != "" {
		config.Specialists.Interviewer.URL = v
	}
	if v := os.Getenv("CAREERFORGE_CHARTER_URL"); v != "" {
		config.Specialists.Charter.URL = v
	}
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// resolveConfigPath mirrors the teacher's binary-relative config resolution.
func resolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if v := os.Getenv("CAREERFORGE_CONFIG"); v != "" {
		return v
	}
	exe, err := os.Executable()
	if err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "careerforge.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "config/careerforge.toml"
}

// ResolveConfigPath is exported for cmd/ entrypoints.
func ResolveConfigPath(configPath string) string {
	return resolveConfigPath(configPath)
}
