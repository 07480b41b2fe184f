package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. CHEESEFINDER_NATS_URL
const EnvPrefix = "CHEESEFINDER"

// Config holds all application configuration
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger"`
	Finder  FinderConfig  `mapstructure:"finder"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// FinderConfig holds dispatch configuration
type FinderConfig struct {
	Script        string        `mapstructure:"script"` // path to a JavaScript handler; empty uses the announce handler
	ScriptTimeout time.Duration `mapstructure:"script_timeout"`
	SecurityLevel string        `mapstructure:"script_security_level"` // strict, standard or permissive
	HaltOnNonZero bool          `mapstructure:"halt_on_nonzero"`
}

// NATSConfig holds the optional remote status sink configuration
type NATSConfig struct {
	URL        string        `mapstructure:"url"` // empty disables publishing
	Subject    string        `mapstructure:"subject"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	Token      string        `mapstructure:"token"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ServiceName  string  `mapstructure:"service_name"`
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"` // empty disables Sentry
	Environment string `mapstructure:"environment"`
}

// Load reads configuration from the optional file at configPath and from the environment.
// Environment variables win over file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")

	v.SetDefault("finder.script", "")
	v.SetDefault("finder.script_timeout", 5*time.Second)
	v.SetDefault("finder.script_security_level", "standard")
	v.SetDefault("finder.halt_on_nonzero", false)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "cheese.result")
	v.SetDefault("nats.max_retries", 3)
	v.SetDefault("nats.retry_delay", time.Second)
	v.SetDefault("nats.token", "")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "cheesefinder")
	v.SetDefault("tracing.environment", "development")
	v.SetDefault("tracing.otlp_endpoint", "127.0.0.1:4318")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Logger.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logger.level must be one of debug, info, warn, error")
	}
	switch c.Logger.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logger.format must be console or json")
	}
	switch c.Finder.SecurityLevel {
	case "strict", "standard", "permissive":
	default:
		return fmt.Errorf("finder.script_security_level must be strict, standard or permissive")
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return fmt.Errorf("nats.subject is required when nats.url is set")
	}
	if c.NATS.MaxRetries < 0 {
		return fmt.Errorf("nats.max_retries cannot be negative")
	}
	if c.Tracing.Enabled && c.Tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when tracing is enabled")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be between 0 and 1")
	}
	return nil
}
