// Package config loads the caucehub server configuration from a YAML file
// and maps it onto the hub and HTTP server settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cauce-ai/cauce-go/internal/hub"
	"github.com/cauce-ai/cauce-go/internal/submanager"
	"github.com/cauce-ai/cauce-go/pkg/topic"
)

// Duration wraps time.Duration so YAML values like "30s" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr              string   `yaml:"addr"`
	KeepaliveInterval Duration `yaml:"keepalive_interval"`
}

// HubConfig holds hub settings.
type HubConfig struct {
	ClientBuffer  int      `yaml:"client_buffer"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// TopicConfig holds topic validation limits.
type TopicConfig struct {
	MaxLength   int `yaml:"max_length"`
	MaxSegments int `yaml:"max_segments"`
}

// SubscriptionConfig holds subscription limits.
type SubscriptionConfig struct {
	MaxPerClient int      `yaml:"max_per_client"`
	MaxPatterns  int      `yaml:"max_patterns"`
	DefaultTTL   Duration `yaml:"default_ttl"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the full caucehub configuration.
type Config struct {
	Server        ServerConfig       `yaml:"server"`
	Hub           HubConfig          `yaml:"hub"`
	Topics        TopicConfig        `yaml:"topics"`
	Subscriptions SubscriptionConfig `yaml:"subscriptions"`
	Log           LogConfig          `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// Load reads a YAML config file, applies defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// SetDefaults fills in zero values with sensible defaults.
func (c *Config) SetDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.KeepaliveInterval == 0 {
		c.Server.KeepaliveInterval = Duration(30 * time.Second)
	}
	if c.Hub.ClientBuffer == 0 {
		c.Hub.ClientBuffer = 256
	}
	if c.Hub.SweepInterval == 0 {
		c.Hub.SweepInterval = Duration(30 * time.Second)
	}
	if c.Topics.MaxLength == 0 {
		c.Topics.MaxLength = topic.MaxLength
	}
	if c.Topics.MaxSegments == 0 {
		c.Topics.MaxSegments = topic.DefaultMaxSegments
	}
	if c.Subscriptions.MaxPerClient == 0 {
		c.Subscriptions.MaxPerClient = 100
	}
	if c.Subscriptions.MaxPatterns == 0 {
		c.Subscriptions.MaxPatterns = 16
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Hub.ClientBuffer < 0 {
		return fmt.Errorf("hub.client_buffer cannot be negative: %d", c.Hub.ClientBuffer)
	}
	if c.Topics.MaxLength < 1 {
		return fmt.Errorf("topics.max_length must be positive: %d", c.Topics.MaxLength)
	}
	if c.Topics.MaxSegments < 1 {
		return fmt.Errorf("topics.max_segments must be positive: %d", c.Topics.MaxSegments)
	}
	if c.Subscriptions.MaxPerClient < 0 {
		return fmt.Errorf("subscriptions.max_per_client cannot be negative: %d", c.Subscriptions.MaxPerClient)
	}
	if c.Subscriptions.DefaultTTL < 0 {
		return fmt.Errorf("subscriptions.default_ttl cannot be negative")
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error: %q", c.Log.Level)
	}
	return nil
}

// HubConfig maps the file configuration onto the hub's config struct.
func (c *Config) ToHubConfig() *hub.Config {
	return &hub.Config{
		ClientBuffer:  c.Hub.ClientBuffer,
		SweepInterval: time.Duration(c.Hub.SweepInterval),
		TopicLimits: topic.Limits{
			MaxLength:   c.Topics.MaxLength,
			MaxSegments: c.Topics.MaxSegments,
		},
		SubscriptionLimits: submanager.Limits{
			MaxPerClient: c.Subscriptions.MaxPerClient,
			MaxPatterns:  c.Subscriptions.MaxPatterns,
			DefaultTTL:   time.Duration(c.Subscriptions.DefaultTTL),
		},
	}
}
