package config

import (
	"fmt"
	"os"
	"time"

	"candle-feed/src/models"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Defaults applied to zero values after loading
const (
	DefaultPollIntervalMs     = 700
	DefaultRequestTimeoutMs   = 2000
	DefaultSeedTimeoutMs      = 3000
	DefaultSendBuffer         = 64
	DefaultSessionTimezone    = "Asia/Kolkata"
	DefaultSessionOpen        = "09:15"
	DefaultSessionClose       = "15:30"
	DefaultUpstreamQuotePath  = "/rest/secure/angelbroking/market/v1/quote/"
	DefaultUpstreamRatePerSec = 10
	DefaultRejectCooldownMs   = 30000
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a validated Config from YAML bytes plus environment overrides
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	// Environment wins over the file
	if err := env.Parse(&modelConfig); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Poller.IntervalMs == 0 {
		c.Poller.IntervalMs = DefaultPollIntervalMs
	}
	if c.Poller.RequestTimeoutMs == 0 {
		c.Poller.RequestTimeoutMs = DefaultRequestTimeoutMs
	}
	if c.Poller.SeedTimeoutMs == 0 {
		c.Poller.SeedTimeoutMs = DefaultSeedTimeoutMs
	}
	if c.Session.Timezone == "" {
		c.Session.Timezone = DefaultSessionTimezone
	}
	if c.Session.Open == "" {
		c.Session.Open = DefaultSessionOpen
	}
	if c.Session.Close == "" {
		c.Session.Close = DefaultSessionClose
	}
	if c.Upstream.Mode == "" {
		c.Upstream.Mode = "broker"
	}
	if c.Upstream.QuotePath == "" {
		c.Upstream.QuotePath = DefaultUpstreamQuotePath
	}
	if c.Upstream.RatePerSecond == 0 {
		c.Upstream.RatePerSecond = DefaultUpstreamRatePerSec
	}
	if c.Upstream.Burst == 0 {
		c.Upstream.Burst = 1
	}
	if c.Upstream.RejectCooldownMs == 0 {
		c.Upstream.RejectCooldownMs = DefaultRejectCooldownMs
	}
	if c.Seed.DBType == "" {
		c.Seed.DBType = "none"
	}
	if c.Transport.SendBuffer == 0 {
		c.Transport.SendBuffer = DefaultSendBuffer
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d (must be between 1025 and 65535)", c.GrpcPort)
	}

	if c.Poller.IntervalMs <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}
	if c.Poller.RequestTimeoutMs <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Poller.SeedTimeoutMs <= 0 {
		return fmt.Errorf("seed timeout must be greater than 0")
	}

	if err := validateSession("session", c.Session); err != nil {
		return err
	}
	for exchange, session := range c.Exchanges {
		if err := validateSession("exchange_sessions."+exchange, session); err != nil {
			return err
		}
	}

	switch c.Upstream.Mode {
	case "broker":
		if c.Upstream.BaseURL == "" {
			return fmt.Errorf("upstream base_url cannot be empty in broker mode")
		}
		if c.Upstream.APIKey == "" {
			return fmt.Errorf("upstream api_key cannot be empty in broker mode")
		}
	case "simulated":
	default:
		return fmt.Errorf("unsupported upstream mode: %s", c.Upstream.Mode)
	}
	if c.Upstream.RatePerSecond < 0 {
		return fmt.Errorf("upstream rate_per_second cannot be negative")
	}
	if c.Upstream.RejectCooldownMs < 0 {
		return fmt.Errorf("reject cooldown cannot be negative")
	}
	if c.Upstream.Burst < 0 {
		return fmt.Errorf("upstream burst cannot be negative")
	}

	switch c.Seed.DBType {
	case "none":
	case "sqlite":
		if c.Seed.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Seed.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	case "redis":
		if c.Seed.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty for redis seed source")
		}
	default:
		return fmt.Errorf("unsupported seed db_type: %s", c.Seed.DBType)
	}

	if c.Transport.SendBuffer < 0 {
		return fmt.Errorf("transport send buffer cannot be negative")
	}

	return nil
}

// -----------------------------------------------------------------------------

func validateSession(name string, s models.MSessionConfig) error {
	open, err := ParseClock(s.Open)
	if err != nil {
		return fmt.Errorf("%s open: %w", name, err)
	}
	closeAt, err := ParseClock(s.Close)
	if err != nil {
		return fmt.Errorf("%s close: %w", name, err)
	}
	if closeAt <= open {
		return fmt.Errorf("%s close %s must be after open %s", name, s.Close, s.Open)
	}
	return nil
}

// -----------------------------------------------------------------------------

// ParseClock parses an "HH:MM" wall-clock time into an offset from midnight
func ParseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid wall-clock time %q (want HH:MM): %w", value, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// -----------------------------------------------------------------------------

func (c *Config) GetLogLevel() string {
	return c.LogLevel
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poller.IntervalMs) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Poller.RequestTimeoutMs) * time.Millisecond
}

func (c *Config) RejectCooldown() time.Duration {
	return time.Duration(c.Upstream.RejectCooldownMs) * time.Millisecond
}

func (c *Config) SeedTimeout() time.Duration {
	return time.Duration(c.Poller.SeedTimeoutMs) * time.Millisecond
}
