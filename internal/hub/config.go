package hub

import (
	"fmt"
	"time"

	"github.com/cauce-ai/cauce-go/internal/submanager"
	"github.com/cauce-ai/cauce-go/pkg/topic"
)

// Config controls hub behavior.
type Config struct {
	// ClientBuffer is the per-client signal channel capacity.
	ClientBuffer int

	// SweepInterval is how often expired subscriptions are removed. Zero
	// disables the sweep loop.
	SweepInterval time.Duration

	// TopicLimits bounds topic and pattern validation.
	TopicLimits topic.Limits

	// SubscriptionLimits bounds what each client can register.
	SubscriptionLimits submanager.Limits
}

// SetDefaults fills in zero values with sensible defaults.
func (c *Config) SetDefaults() {
	if c.ClientBuffer == 0 {
		c.ClientBuffer = 256
	}
	if c.TopicLimits == (topic.Limits{}) {
		c.TopicLimits = topic.DefaultLimits()
	}
	if c.SubscriptionLimits == (submanager.Limits{}) {
		c.SubscriptionLimits = submanager.DefaultLimits()
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.ClientBuffer < 0 {
		return fmt.Errorf("client buffer cannot be negative: %d", c.ClientBuffer)
	}
	if c.SweepInterval < 0 {
		return fmt.Errorf("sweep interval cannot be negative: %s", c.SweepInterval)
	}
	if c.TopicLimits.MaxLength < 0 || c.TopicLimits.MaxSegments < 0 {
		return fmt.Errorf("topic limits cannot be negative")
	}
	return nil
}

// DefaultConfig returns a config with all defaults applied.
func DefaultConfig() *Config {
	c := &Config{SweepInterval: 30 * time.Second}
	c.SetDefaults()
	return c
}
