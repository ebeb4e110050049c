// Package config provides configuration management for the MCP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the Semantic Scholar MCP server.
type Config struct {
	// Server contains the metrics/health HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// SemanticScholar contains Semantic Scholar API client settings.
	SemanticScholar SemanticScholarConfig `mapstructure:"semantic_scholar"`
	// Render contains markdown rendering limits.
	Render RenderConfig `mapstructure:"render"`
}

// ServerConfig holds the metrics/health HTTP server configuration.
// The MCP tool surface itself is served over stdio; this server only
// exposes /healthz and /metrics.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	// Defaults to stderr: stdout carries the MCP JSON-RPC stream.
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// SemanticScholarConfig holds Semantic Scholar API client configuration.
type SemanticScholarConfig struct {
	// APIKey is the optional API key (loaded from SEMANTIC_SCHOLAR_API_KEY).
	// Absence degrades to unauthenticated, rate-limited access.
	APIKey string `mapstructure:"-"`
	// BaseURL is the Graph API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the maximum burst of requests allowed.
	BurstSize int `mapstructure:"burst_size"`
	// EnrichLimit is the number of citations/references fetched per paper
	// when enriching search results.
	EnrichLimit int `mapstructure:"enrich_limit"`
	// EnrichWorkers is the size of the enrichment worker pool.
	EnrichWorkers int `mapstructure:"enrich_workers"`
}

// RenderConfig holds markdown rendering limits.
type RenderConfig struct {
	// MaxListAuthors is how many authors are shown per paper in search results.
	MaxListAuthors int `mapstructure:"max_list_authors"`
	// MaxCitationAuthors is how many authors appear in inline citation strings.
	MaxCitationAuthors int `mapstructure:"max_citation_authors"`
	// AbstractTruncate is the character cap for abstracts in nested lists.
	AbstractTruncate int `mapstructure:"abstract_truncate"`
	// MaxNested is how many citing/cited papers are listed per search result.
	MaxNested int `mapstructure:"max_nested"`
}

// MetricsAddress returns the metrics server bind address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("S2MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mcp-semantic-scholar-server")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.SemanticScholar.APIKey = os.Getenv("SEMANTIC_SCHOLAR_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")

	// Semantic Scholar defaults
	// The API key is loaded exclusively from the environment (see loadSecrets).
	v.SetDefault("semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("semantic_scholar.timeout", "30s")
	v.SetDefault("semantic_scholar.rate_limit", 10.0)
	v.SetDefault("semantic_scholar.burst_size", 10)
	v.SetDefault("semantic_scholar.enrich_limit", 5)
	v.SetDefault("semantic_scholar.enrich_workers", 4)

	// Render defaults
	v.SetDefault("render.max_list_authors", 5)
	v.SetDefault("render.max_citation_authors", 6)
	v.SetDefault("render.abstract_truncate", 200)
	v.SetDefault("render.max_nested", 3)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.SemanticScholar.BaseURL == "" {
		return fmt.Errorf("semantic_scholar base_url is required")
	}
	if c.SemanticScholar.RateLimit <= 0 {
		return fmt.Errorf("semantic_scholar rate_limit must be positive")
	}
	if c.SemanticScholar.EnrichWorkers <= 0 {
		return fmt.Errorf("semantic_scholar enrich_workers must be positive")
	}

	if c.Render.MaxListAuthors <= 0 {
		return fmt.Errorf("render max_list_authors must be positive")
	}
	if c.Render.MaxNested <= 0 {
		return fmt.Errorf("render max_nested must be positive")
	}

	return nil
}
