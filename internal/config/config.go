// Package config loads the storefront client configuration from the
// environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/utafrali/storefront/internal/session"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/tracing"
)

// Token stores.
const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

// Config holds all configuration for the storefront client.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`

	// Backend
	APIURL      string        `env:"STOREFRONT_API_URL" envDefault:"http://localhost:8080"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	// Public product-image fetches retry transient failures.
	ImageRetryAttempts int           `env:"IMAGE_RETRY_ATTEMPTS" envDefault:"2"`
	ImageRetryDelay    time.Duration `env:"IMAGE_RETRY_DELAY" envDefault:"500ms"`

	// Client-side request rate towards the backend; 0 disables it.
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Circuit breaker
	BreakerEnabled bool          `env:"BREAKER_ENABLED" envDefault:"true"`
	BreakerTimeout time.Duration `env:"BREAKER_TIMEOUT" envDefault:"30s"`

	// Session persistence
	TokenStore     string `env:"TOKEN_STORE" envDefault:"file"`
	TokenFile      string `env:"TOKEN_FILE"`
	SessionProfile string `env:"SESSION_PROFILE" envDefault:"default"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Prometheus textfile written on exit; empty disables it.
	MetricsFile string `env:"METRICS_FILE"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return cfg, cfg.validate()
}

// LoadFrom reads configuration from vars instead of the environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, vars); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("STOREFRONT_API_URL must be an absolute URL, got %q", c.APIURL)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %d", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.ImageRetryAttempts < 0 {
		return fmt.Errorf("IMAGE_RETRY_ATTEMPTS must not be negative, got %d", c.ImageRetryAttempts)
	}
	if c.ImageRetryDelay < 0 {
		return fmt.Errorf("IMAGE_RETRY_DELAY must not be negative, got %s", c.ImageRetryDelay)
	}
	switch c.TokenStore {
	case TokenStoreFile, TokenStoreRedis:
	default:
		return fmt.Errorf("TOKEN_STORE must be %q or %q, got %q", TokenStoreFile, TokenStoreRedis, c.TokenStore)
	}
	if c.TokenStore == TokenStoreRedis && (c.RedisPort < 1 || c.RedisPort > 65535) {
		return fmt.Errorf("invalid REDIS_PORT: %d", c.RedisPort)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// TokenPath returns the token file, defaulting to a per-profile file in the
// user's config directory.
func (c *Config) TokenPath() string {
	if c.TokenFile != "" {
		return c.TokenFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "storefront", c.SessionProfile+".token")
}

// HTTPConfig returns the transport configuration for ordinary calls.
func (c *Config) HTTPConfig() httpclient.Config {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = c.HTTPTimeout
	return cfg
}

// ImageHTTPConfig returns the retrying configuration for image fetches.
func (c *Config) ImageHTTPConfig() httpclient.Config {
	cfg := httpclient.FixedRetryConfig("images", c.ImageRetryAttempts, c.ImageRetryDelay)
	cfg.Timeout = c.HTTPTimeout
	return cfg
}

// RateLimitConfig returns the request rate shared by all backend transports.
func (c *Config) RateLimitConfig() httpclient.RateLimitConfig {
	return httpclient.RateLimitConfig{RPS: c.RateLimitRPS, Burst: c.RateLimitBurst}
}

// BreakerConfig returns the circuit breaker settings for backend calls.
func (c *Config) BreakerConfig() httpclient.CircuitBreakerConfig {
	cfg := httpclient.DefaultCircuitBreakerConfig("backend")
	cfg.Timeout = c.BreakerTimeout
	return cfg
}

// RedisConfig returns the Redis connection settings.
func (c *Config) RedisConfig() session.RedisConfig {
	return session.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// TracingConfig returns the OpenTelemetry settings.
func (c *Config) TracingConfig(version string) tracing.Config {
	return tracing.Config{
		ServiceName:    "storefront",
		ServiceVersion: version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		SampleRate:     c.OTELSampleRate,
		Enabled:        c.OTELEnabled,
	}
}
