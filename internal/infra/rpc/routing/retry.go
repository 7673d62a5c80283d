package routing

import (
	"math"
	"time"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	// MaxAttempts caps attempts across all endpoints. 0 means twice the
	// number of endpoints.
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	BackoffMultiple float64       `yaml:"backoff_multiple"`
	// CooldownWindow is how long a failed endpoint is skipped.
	CooldownWindow time.Duration `yaml:"cooldown_window"`
	// CallTimeout bounds a single attempt.
	CallTimeout time.Duration `yaml:"call_timeout"`
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     0,
	InitialDelay:    250 * time.Millisecond,
	MaxDelay:        8 * time.Second,
	BackoffMultiple: 2.0,
	CooldownWindow:  60 * time.Second,
	CallTimeout:     8 * time.Second,
}

// WithDefaults fills zero fields from DefaultRetryConfig.
// A negative InitialDelay disables backoff sleeps.
func (c RetryConfig) WithDefaults() RetryConfig {
	if c.InitialDelay == 0 {
		c.InitialDelay = DefaultRetryConfig.InitialDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = DefaultRetryConfig.MaxDelay
	}
	if c.BackoffMultiple == 0 {
		c.BackoffMultiple = DefaultRetryConfig.BackoffMultiple
	}
	if c.CooldownWindow == 0 {
		c.CooldownWindow = DefaultRetryConfig.CooldownWindow
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = DefaultRetryConfig.CallTimeout
	}
	return c
}

func (c RetryConfig) attempts(endpoints int) int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return 2 * endpoints
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	if config.InitialDelay <= 0 {
		return 0
	}
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
